package ui

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"biasaudit/app"
	"biasaudit/internal/errors"
	"biasaudit/internal/metrics"
	"biasaudit/ui/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server serves the bias audit dashboard and its JSON API
type Server struct {
	router    *gin.Engine
	templates *template.Template
	audits    *app.AuditService
	analyses  *app.AnalysisService
	logger    *zap.Logger
}

// NewServer creates a new web server instance with all routes registered
func NewServer(audits *app.AuditService, analyses *app.AnalysisService, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.L()
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	s := &Server{
		router:    gin.New(),
		templates: templates,
		audits:    audits,
		analyses:  analyses,
		logger:    logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery(s.logger), middleware.RequestLogger(s.logger))
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleDashboard())
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.router.Group("/api")
	{
		api.GET("/report", s.handleReport())

		api.POST("/dataset/generate", s.handleGenerate())
		api.POST("/dataset/upload", s.handleUpload())
		api.DELETE("/dataset/upload", s.handleClearUpload())

		api.POST("/analysis", s.handleStartAnalysis())
		api.GET("/analysis", s.handleAnalysisStatus())
		api.GET("/analysis/history", s.handleAnalysisHistory())
	}
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}
	return nil
}

// respondError writes err as {"error", "code"} with a status derived from
// its code.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	if code == "UNKNOWN" {
		code = errors.CodeInternalError
	}
	c.Error(err) //nolint:errcheck
	c.JSON(statusForCode(code), gin.H{"error": err.Error(), "code": code})
}

func statusForCode(code string) int {
	switch code {
	case errors.CodeInvalidInput, errors.CodeValidationError, errors.CodeIngestionFailed:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeAnalysisBusy:
		return http.StatusConflict
	case errors.CodeRateLimited:
		return http.StatusTooManyRequests
	case errors.CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

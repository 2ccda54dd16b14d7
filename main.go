package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"biasaudit/internal/config"
	"biasaudit/internal/container"
	"biasaudit/internal/errors"
	"biasaudit/ui"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// initDatabase opens the optional PostgreSQL archive connection
func initDatabase(ctx context.Context, appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.InitLogger(appConfig.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := zap.L()
	defer logger.Sync() //nolint:errcheck

	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		logger.Fatal("failed to create application container", zap.Error(err))
	}

	if appConfig.Database.Enabled() {
		db, err := initDatabase(ctx, appConfig)
		if err != nil {
			logger.Fatal("failed to initialize database", zap.Error(err))
		}
		if err := appContainer.InitWithDatabase(ctx, db); err != nil {
			logger.Fatal("failed to initialize archive", zap.Error(err))
		}
	} else {
		logger.Info("DATABASE_URL not set, audit archive disabled")
	}

	if appConfig.LLM.APIKey == "" {
		logger.Warn("no LLM API key configured, analysis requests will fail",
			zap.String("provider", appConfig.LLM.Provider))
	}

	server, err := ui.NewServer(appContainer.Audits, appContainer.Analyses, logger.Named("http"))
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	logger.Info("starting bias audit dashboard",
		zap.String("port", appConfig.Server.Port),
		zap.Int("records", appContainer.Audits.Active().Len()),
		zap.String("provider", appContainer.LLM.Provider()),
		zap.String("model", appContainer.LLM.Model()))

	if err := server.Start(ctx, ":"+appConfig.Server.Port); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := appContainer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

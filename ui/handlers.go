package ui

import (
	"html/template"
	"net/http"

	"biasaudit/ai"
	"biasaudit/app"
	"biasaudit/domain/audit"
	"biasaudit/internal/analysis"
	"biasaudit/internal/dataset"
	"biasaudit/internal/errors"

	"github.com/gin-gonic/gin"
)

type tabView struct {
	Dimension audit.Dimension
	Label     string
	Active    bool
}

type dashboardView struct {
	Dataset        *dataset.Dataset
	Report         analysis.Report
	Current        analysis.DimensionReport
	Tabs           []tabView
	SizeOptions    []int
	GeneratedSize  int
	Analysis       app.AnalysisSnapshot
	AnalysisHTML   []template.HTML
	ArchiveEnabled bool
}

func (s *Server) handleDashboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		tab, ok := audit.ParseDimension(c.DefaultQuery("tab", string(audit.DimensionRace)))
		if !ok {
			tab = audit.DimensionRace
		}

		ds, report := s.audits.Report()
		current, _ := report.Dimension(tab)
		snap := s.analyses.Snapshot()

		view := dashboardView{
			Dataset:        ds,
			Report:         report,
			Current:        current,
			SizeOptions:    app.SizeOptions,
			GeneratedSize:  s.audits.GeneratedSize(),
			Analysis:       snap,
			AnalysisHTML:   ai.RenderAnalysis(snap.Text),
			ArchiveEnabled: s.analyses.ArchiveEnabled(),
		}
		for _, dim := range audit.Dimensions {
			view.Tabs = append(view.Tabs, tabView{Dimension: dim, Label: dim.Label(), Active: dim == tab})
		}

		s.renderTemplate(c, "index.html", view)
	}
}

func (s *Server) handleReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, report := s.audits.Report()

		raw := c.Query("dimension")
		if raw == "" {
			c.JSON(http.StatusOK, gin.H{"dataset": datasetSummary(ds), "report": report})
			return
		}

		dim, ok := audit.ParseDimension(raw)
		if !ok {
			respondError(c, errors.InvalidInput("unknown dimension "+raw+"; use race, gender or ageGroup"))
			return
		}
		current, _ := report.Dimension(dim)
		c.JSON(http.StatusOK, gin.H{
			"dataset":   datasetSummary(ds),
			"dimension": current,
			"kpis":      report.KPIs,
		})
	}
}

type generateRequest struct {
	N int `form:"n" json:"n" binding:"required,gt=0"`
}

func (s *Server) handleGenerate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req generateRequest
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, errors.ValidationError("n must be a positive integer"))
			return
		}

		if _, err := s.audits.Regenerate(req.N); err != nil {
			respondError(c, err)
			return
		}
		ds, report := s.audits.Report()
		c.JSON(http.StatusOK, gin.H{"dataset": datasetSummary(ds), "kpis": report.KPIs})
	}
}

func (s *Server) handleUpload() gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			respondError(c, errors.InvalidInput("multipart field \"file\" is required"))
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondError(c, errors.IngestionFailedf("open upload: %v", err))
			return
		}
		defer f.Close()

		if _, err := s.audits.Upload(fh.Filename, f); err != nil {
			respondError(c, err)
			return
		}
		ds, report := s.audits.Report()
		c.JSON(http.StatusOK, gin.H{"dataset": datasetSummary(ds), "kpis": report.KPIs})
	}
}

func (s *Server) handleClearUpload() gin.HandlerFunc {
	return func(c *gin.Context) {
		ds := s.audits.ClearUpload()
		c.JSON(http.StatusOK, gin.H{"dataset": datasetSummary(ds)})
	}
}

func (s *Server) handleStartAnalysis() gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, report := s.audits.Report()
		started, err := s.analyses.Start(c.Request.Context(), ds, report)
		if err != nil {
			respondError(c, err)
			return
		}

		body := gin.H{"started": started, "analysis": s.analyses.Snapshot()}
		if !started {
			body["code"] = errors.CodeAnalysisBusy
		}
		c.JSON(http.StatusAccepted, body)
	}
}

func (s *Server) handleAnalysisStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := s.analyses.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"analysis": snap,
			"html":     ai.RenderAnalysis(snap.Text),
		})
	}
}

func (s *Server) handleAnalysisHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		runs, err := s.analyses.History(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"runs":           runs,
			"count":          len(runs),
			"archiveEnabled": s.analyses.ArchiveEnabled(),
		})
	}
}

func datasetSummary(ds *dataset.Dataset) gin.H {
	return gin.H{
		"origin":               ds.Origin,
		"name":                 ds.Name,
		"records":              ds.Len(),
		"groundTruthSimulated": ds.GroundTruthSimulated,
		"loadedAt":             ds.LoadedAt,
	}
}

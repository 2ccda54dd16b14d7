package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strconv"

	"biasaudit/domain/audit"
	"biasaudit/internal/analysis"
	"biasaudit/internal/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"num": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
		"fixed1": func(v *float64) string {
			if v == nil {
				return "—"
			}
			return strconv.FormatFloat(*v, 'f', 1, 64)
		},
		"di": func(v *float64) string {
			if v == nil {
				return "—"
			}
			return strconv.FormatFloat(*v, 'f', 2, 64) + "×"
		},
		"pvalue": func(t *analysis.ProportionTest) string {
			if t == nil {
				return "—"
			}
			if t.PValue < 0.001 {
				return "<0.001"
			}
			return strconv.FormatFloat(t.PValue, 'f', 3, 64)
		},
		// rateWidth is a bar width in percent for a 0-100 rate.
		"rateWidth": func(v float64) string {
			return strconv.FormatFloat(math.Max(0, math.Min(100, v)), 'f', 1, 64)
		},
		// diWidth maps DI 0..2 onto 0..100 percent; parity sits in the middle.
		"diWidth": func(v *float64) string {
			if v == nil {
				return "50"
			}
			return strconv.FormatFloat(math.Max(0, math.Min(100, *v*50)), 'f', 1, 64)
		},
		"heatColor": heatColor,
		// tierClass is the CSS class for the tier of a DI value.
		"tierClass": func(v *float64) string {
			return "tier-" + string(audit.ClassifyDI(v))
		},
		"dimensionLabel": func(d audit.Dimension) string { return d.Label() },
	}

	return template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
}

// heatColor shades an average risk score from green (low) to red (high).
func heatColor(score float64) template.CSS {
	t := math.Max(0, math.Min(1, (score-30)/40))
	hue := 120 * (1 - t)
	return template.CSS(fmt.Sprintf("hsl(%.0f, 55%%, 82%%)", hue))
}

// renderTemplate executes a template with the given data
func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	// First render to a buffer to catch any errors before writing to response
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.Error("template error", zap.String("template", templateName), zap.Error(err))
		c.Abort()
		respondError(c, errors.InternalError("template rendering failed: "+err.Error()))
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		s.logger.Warn("error writing template response", zap.Error(err))
	}
}

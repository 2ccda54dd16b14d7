package ai

import (
	"strconv"
	"strings"

	"biasaudit/domain/audit"
	"biasaudit/internal/analysis"
)

// auditTemplate is filled with one line per dimension in report order.
const auditTemplate = `You are a fairness auditor for AI risk scoring models.

Bias metrics summary:
{DIMENSIONS}

Disparate Impact (DI) < 0.8 or > 1.25 = discriminatory (4/5ths rule).

Provide:
1. A 2-sentence executive summary of findings.
2. Top 3 most concerning disparities with brief explanation.
3. 3 concrete mitigation strategies.

Use **bold** for key terms. Be direct and concise.`

// BuildAuditPrompt renders the fairness-audit prompt for a report.
func BuildAuditPrompt(report analysis.Report) string {
	lines := make([]string, 0, len(report.Dimensions))
	for _, d := range report.Dimensions {
		lines = append(lines, d.Dimension.PromptLabel()+" (ref: "+d.Reference+"): "+FormatGroups(d.Stats()))
	}
	return strings.Replace(auditTemplate, "{DIMENSIONS}", strings.Join(lines, "\n"), 1)
}

// FormatGroups renders stats as "group: avgScore=X, highRiskRate=Y%, DI=Z"
// entries joined by "; ". A missing DI prints as null.
func FormatGroups(stats []audit.GroupStat) string {
	parts := make([]string, len(stats))
	for i, s := range stats {
		di := "null"
		if s.DI != nil {
			di = formatNumber(*s.DI)
		}
		parts[i] = s.Group + ": avgScore=" + formatNumber(s.AvgScore) +
			", highRiskRate=" + formatNumber(s.HighRiskRate) + "%, DI=" + di
	}
	return strings.Join(parts, "; ")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

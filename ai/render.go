package ai

import (
	"html"
	"html/template"
	"regexp"
	"strings"
)

var boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)

// RenderAnalysis turns analysis text into one HTML paragraph body per line.
// Only **text** is interpreted, as <strong>; everything else is escaped.
func RenderAnalysis(text string) []template.HTML {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]template.HTML, len(lines))
	for i, line := range lines {
		out[i] = template.HTML(renderLine(line))
	}
	return out
}

func renderLine(line string) string {
	var b strings.Builder
	last := 0
	for _, m := range boldPattern.FindAllStringSubmatchIndex(line, -1) {
		b.WriteString(html.EscapeString(line[last:m[0]]))
		b.WriteString("<strong>")
		b.WriteString(html.EscapeString(line[m[2]:m[3]]))
		b.WriteString("</strong>")
		last = m[1]
	}
	b.WriteString(html.EscapeString(line[last:]))
	return b.String()
}

package dataset

import (
	"encoding/csv"
	stderrors "errors"
	"io"
	"math"
	"strconv"
	"strings"

	"biasaudit/internal/errors"
)

// CellKind distinguishes coerced numbers from plain strings.
type CellKind int

const (
	CellString CellKind = iota
	CellNumber
)

// Cell is one ingested value. Text always holds the trimmed source text;
// Number is set only for CellNumber.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// ParseCell trims raw and coerces it to a number when it parses as a finite
// one. An empty cell stays an empty string.
func ParseCell(raw string) Cell {
	text := strings.TrimSpace(raw)
	if text != "" {
		if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return Cell{Kind: CellNumber, Text: text, Number: f}
		}
	}
	return Cell{Kind: CellString, Text: text}
}

// IsNumber reports whether the cell was coerced to a number.
func (c Cell) IsNumber() bool {
	return c.Kind == CellNumber
}

// Row is one data line keyed by header name. Line is the 1-based source line.
type Row struct {
	Line   int
	Values map[string]Cell
}

// Get returns the cell for column, if the row had one.
func (r Row) Get(column string) (Cell, bool) {
	c, ok := r.Values[column]
	return c, ok
}

// Table is a header plus positionally mapped rows.
type Table struct {
	Headers []string
	Rows    []Row
}

// HasColumn reports whether the header names column.
func (t *Table) HasColumn(column string) bool {
	for _, h := range t.Headers {
		if h == column {
			return true
		}
	}
	return false
}

// ParseCSV reads comma-delimited text whose first line is the header.
// Blank lines are skipped; rows may be shorter or longer than the header.
// Quotes are lenient: a bare quote inside a field is kept as text.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var rows [][]string
	var lines []int
	for {
		record, err := reader.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.IngestionFailedf("malformed CSV: %v", err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, record)
		lines = append(lines, line)
	}

	return buildTable(rows, lines)
}

// TableFromRows builds a table from raw string rows where rows[0] is the
// header, numbering lines from 1.
func TableFromRows(rows [][]string) (*Table, error) {
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	return buildTable(rows, lines)
}

func buildTable(rows [][]string, lines []int) (*Table, error) {
	if len(rows) == 0 {
		return nil, errors.IngestionFailed("dataset is empty: a header row is required")
	}

	headers := make([]string, len(rows[0]))
	named := false
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
		if headers[i] != "" {
			named = true
		}
	}
	if !named {
		return nil, errors.IngestionFailed("header row has no column names")
	}

	table := &Table{Headers: headers, Rows: make([]Row, 0, len(rows)-1)}
	for i := 1; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}
		row := Row{Line: lines[i], Values: make(map[string]Cell, len(headers))}
		for j, header := range headers {
			if header == "" || j >= len(rows[i]) {
				continue
			}
			row.Values[header] = ParseCell(rows[i][j])
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

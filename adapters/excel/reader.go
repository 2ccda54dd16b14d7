package excel

import (
	"io"
	"time"

	"biasaudit/internal/dataset"
	"biasaudit/internal/errors"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ReadTable reads the first worksheet of an xlsx workbook into a Table with
// the same trimming and numeric coercion as CSV ingestion.
func ReadTable(r io.Reader) (*dataset.Table, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.IngestionFailedf("unreadable xlsx workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.IngestionFailed("xlsx workbook has no worksheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.IngestionFailedf("failed to read sheet %q: %v", sheets[0], err)
	}

	table, err := dataset.TableFromRows(rows)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("xlsx table read",
		zap.String("sheet", sheets[0]),
		zap.Int("columns", len(table.Headers)),
		zap.Int("rows", len(table.Rows)),
		zap.Duration("elapsed", time.Since(startTime)),
	)
	return table, nil
}

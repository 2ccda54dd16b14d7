package app

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"biasaudit/adapters/excel"
	"biasaudit/internal/analysis"
	"biasaudit/internal/config"
	"biasaudit/internal/dataset"
	"biasaudit/internal/errors"
	"biasaudit/internal/metrics"

	"go.uber.org/zap"
)

// SizeOptions are the dataset sizes offered by the dashboard selector.
var SizeOptions = []int{100, 250, 500, 1000, 2000}

// Upload formats, used for routing and metric labels.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// AuditService owns the active dataset. Datasets are never mutated; every
// change swaps in a new one, and reports are computed from whichever is
// active at the time of the call.
type AuditService struct {
	mu        sync.RWMutex
	source    *dataset.Source
	generated *dataset.Dataset
	uploaded  *dataset.Dataset

	maxSize        int
	uploadMaxBytes int64
	logger         *zap.Logger
}

// NewAuditService generates the initial dataset of cfg.Size records.
func NewAuditService(cfg config.DatasetConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.L()
	}
	s := &AuditService{
		source:         dataset.NewSource(cfg.Seed),
		maxSize:        cfg.MaxSize,
		uploadMaxBytes: cfg.UploadMaxBytes,
		logger:         logger,
	}
	s.generated = s.source.Generated(cfg.Size)
	metrics.ActiveRecords.Set(float64(s.generated.Len()))
	return s
}

// Regenerate replaces the generated dataset with n fresh records. An active
// upload stays in front of it until cleared.
func (s *AuditService) Regenerate(n int) (*dataset.Dataset, error) {
	if n <= 0 || n > s.maxSize {
		return nil, errors.InvalidInput(fmt.Sprintf("dataset size must be between 1 and %d, got %d", s.maxSize, n))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generated = s.source.Generated(n)
	s.logger.Info("regenerated dataset", zap.Int("records", n))
	metrics.ActiveRecords.Set(float64(s.activeLocked().Len()))
	return s.generated, nil
}

// Upload parses a CSV or XLSX file, chosen by the file name's extension, and
// makes it the active dataset. On any failure the previous dataset stays
// active.
func (s *AuditService) Upload(name string, r io.Reader) (*dataset.Dataset, error) {
	format := UploadFormat(name)

	ds, err := s.ingest(name, format, r)
	if err != nil {
		metrics.IngestionFailures.WithLabelValues(format).Inc()
		s.logger.Warn("upload rejected", zap.String("file", name), zap.String("format", format), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.uploaded = ds
	s.mu.Unlock()

	metrics.ActiveRecords.Set(float64(ds.Len()))
	s.logger.Info("dataset uploaded", zap.String("file", name), zap.Int("records", ds.Len()))
	return ds, nil
}

func (s *AuditService) ingest(name, format string, r io.Reader) (*dataset.Dataset, error) {
	raw, err := io.ReadAll(io.LimitReader(r, s.uploadMaxBytes+1))
	if err != nil {
		return nil, errors.IngestionFailedf("read upload: %v", err)
	}
	if int64(len(raw)) > s.uploadMaxBytes {
		return nil, errors.IngestionFailedf("file exceeds the %d byte upload limit", s.uploadMaxBytes)
	}

	var table *dataset.Table
	if format == FormatXLSX {
		table, err = excel.ReadTable(bytes.NewReader(raw))
	} else {
		table, err = dataset.ParseCSV(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, err
	}

	// the source's rng simulates ground truth and is not safe for concurrent use
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source.FromTable(name, table)
}

// ClearUpload drops the uploaded dataset, reactivating the generated one.
func (s *AuditService) ClearUpload() *dataset.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded = nil
	metrics.ActiveRecords.Set(float64(s.generated.Len()))
	return s.generated
}

// Active returns the dataset reports are computed from.
func (s *AuditService) Active() *dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLocked()
}

func (s *AuditService) activeLocked() *dataset.Dataset {
	if s.uploaded != nil {
		return s.uploaded
	}
	return s.generated
}

// GeneratedSize is the record count of the generated dataset.
func (s *AuditService) GeneratedSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generated.Len()
}

// MaxSize is the largest accepted generated dataset.
func (s *AuditService) MaxSize() int {
	return s.maxSize
}

// Report computes the bias report for the active dataset.
func (s *AuditService) Report() (*dataset.Dataset, analysis.Report) {
	ds := s.Active()
	report := analysis.BuildReport(ds.Records, analysis.DefaultSpecs(ds.Categories))
	metrics.ReportsComputed.WithLabelValues(string(ds.Origin)).Inc()
	return ds, report
}

// UploadFormat maps a file name onto the parser used for it. Anything that
// is not an Excel workbook is read as CSV.
func UploadFormat(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

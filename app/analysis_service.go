package app

import (
	"context"
	"sync"
	"time"

	"biasaudit/ai"
	"biasaudit/internal/analysis"
	"biasaudit/internal/dataset"
	"biasaudit/internal/errors"
	"biasaudit/internal/metrics"
	"biasaudit/models"
	"biasaudit/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// FailurePlaceholder is shown in place of the analysis when the provider
// call fails.
const FailurePlaceholder = "Error fetching analysis. Please try again."

const (
	defaultAnalysisTimeout = 60 * time.Second
	archiveTimeout         = 5 * time.Second
	historyLimit           = 20
)

// AnalysisState is the lifecycle of the most recent analysis request.
type AnalysisState string

const (
	AnalysisIdle      AnalysisState = "idle"
	AnalysisInFlight  AnalysisState = "in_flight"
	AnalysisSucceeded AnalysisState = "succeeded"
	AnalysisFailed    AnalysisState = "failed"
)

// AnalysisSnapshot is a point-in-time copy of the analysis state.
type AnalysisSnapshot struct {
	State       AnalysisState `json:"state"`
	Text        string        `json:"text"`
	Error       string        `json:"error,omitempty"`
	Provider    string        `json:"provider"`
	Model       string        `json:"model"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// Loading reports whether a request is in flight.
func (s AnalysisSnapshot) Loading() bool {
	return s.State == AnalysisInFlight
}

// AnalysisConfig tunes the analysis call.
type AnalysisConfig struct {
	Timeout       time.Duration
	RatePerMinute int // 0 disables rate limiting
}

// AnalysisService runs at most one provider request at a time. Statistics
// never depend on it: a failed or slow analysis only changes the text shown
// next to them.
type AnalysisService struct {
	client  ports.LLMClient
	repo    ports.AuditRunRepository
	gate    *semaphore.Weighted
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.RWMutex
	snap    AnalysisSnapshot
	current *analysisRequest
}

// analysisRequest is one provider call. result is written before done is
// closed and never changes afterwards.
type analysisRequest struct {
	run     *models.AuditRun
	started time.Time
	done    chan struct{}
	result  AnalysisSnapshot
}

// NewAnalysisService creates the service. repo may be nil, which disables
// archiving.
func NewAnalysisService(client ports.LLMClient, repo ports.AuditRunRepository, cfg AnalysisConfig, logger *zap.Logger) *AnalysisService {
	if logger == nil {
		logger = zap.L()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAnalysisTimeout
	}

	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
	}

	return &AnalysisService{
		client:  client,
		repo:    repo,
		gate:    semaphore.NewWeighted(1),
		limiter: limiter,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
		snap: AnalysisSnapshot{
			State:    AnalysisIdle,
			Provider: client.Provider(),
			Model:    client.Model(),
		},
	}
}

// Start sends the audit prompt for report asynchronously. It returns false
// without doing anything while another request is in flight. ctx only
// carries values into the request; its cancellation does not abort it.
func (s *AnalysisService) Start(ctx context.Context, ds *dataset.Dataset, report analysis.Report) (bool, error) {
	req, err := s.start(ctx, ds, report)
	return req != nil, err
}

// start returns nil without error while another request is in flight.
func (s *AnalysisService) start(ctx context.Context, ds *dataset.Dataset, report analysis.Report) (*analysisRequest, error) {
	if !s.gate.TryAcquire(1) {
		metrics.AnalysisRequests.WithLabelValues(s.client.Provider(), metrics.OutcomeBusy).Inc()
		return nil, nil
	}
	if s.limiter != nil && !s.limiter.Allow() {
		s.gate.Release(1)
		metrics.AnalysisRequests.WithLabelValues(s.client.Provider(), metrics.OutcomeRateLimited).Inc()
		return nil, errors.RateLimited("analysis rate limit reached, try again shortly")
	}

	prompt := ai.BuildAuditPrompt(report)
	run := &models.AuditRun{
		RecordCount: report.KPIs.Records,
		MaxDI:       report.KPIs.MaxDI,
		Provider:    s.client.Provider(),
		Model:       s.client.Model(),
		Prompt:      prompt,
	}
	if ds != nil {
		run.Source = string(ds.Origin)
		run.DatasetName = ds.Name
	}
	if top := report.KPIs.TopGroup; top != nil {
		run.TopGroup = string(top.Dimension) + ":" + top.Group
	}

	started := s.now()
	req := &analysisRequest{run: run, started: started, done: make(chan struct{})}
	s.mu.Lock()
	s.snap = AnalysisSnapshot{
		State:     AnalysisInFlight,
		Provider:  run.Provider,
		Model:     run.Model,
		StartedAt: &started,
	}
	s.current = req
	s.mu.Unlock()

	s.logger.Info("analysis started",
		zap.String("provider", run.Provider),
		zap.String("model", run.Model),
		zap.Int("records", run.RecordCount))

	go s.run(context.WithoutCancel(ctx), req)
	return req, nil
}

func (s *AnalysisService) run(ctx context.Context, req *analysisRequest) {
	// done closes before the gate is released.
	defer s.gate.Release(1)
	defer close(req.done)

	run, started := req.run, req.started

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	text, err := s.client.Complete(callCtx, run.Prompt)
	cancel()

	completed := s.now()
	elapsed := completed.Sub(started)
	metrics.AnalysisLatency.WithLabelValues(run.Provider).Observe(elapsed.Seconds())

	snap := AnalysisSnapshot{
		State:       AnalysisSucceeded,
		Text:        text,
		Provider:    run.Provider,
		Model:       run.Model,
		StartedAt:   &started,
		CompletedAt: &completed,
	}
	outcome := metrics.OutcomeSuccess
	if err != nil {
		snap.State = AnalysisFailed
		snap.Text = FailurePlaceholder
		snap.Error = err.Error()
		outcome = metrics.OutcomeFailure
		s.logger.Warn("analysis failed", zap.String("provider", run.Provider), zap.Duration("elapsed", elapsed), zap.Error(err))
	} else {
		s.logger.Info("analysis completed", zap.String("provider", run.Provider), zap.Duration("elapsed", elapsed))
	}
	metrics.AnalysisRequests.WithLabelValues(run.Provider, outcome).Inc()

	req.result = snap
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	if s.repo == nil {
		return
	}
	run.CreatedAt = completed
	run.Response = snap.Text
	run.Failed = err != nil
	run.DurationMS = elapsed.Milliseconds()

	archiveCtx, cancelArchive := context.WithTimeout(ctx, archiveTimeout)
	defer cancelArchive()
	if err := s.repo.SaveRun(archiveCtx, run); err != nil {
		s.logger.Error("failed to archive analysis", zap.Error(err))
	}
}

// Snapshot returns the current analysis state.
func (s *AnalysisService) Snapshot() AnalysisSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Wait blocks until the most recently started request has resolved and been
// archived, or ctx is done.
func (s *AnalysisService) Wait(ctx context.Context) error {
	s.mu.RLock()
	req := s.current
	s.mu.RUnlock()
	if req == nil {
		return nil
	}
	return req.wait(ctx)
}

func (r *analysisRequest) wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Analyze runs a request to completion and returns its own result, even
// if another request starts right after it. It fails with ANALYSIS_BUSY
// when one is already in flight.
func (s *AnalysisService) Analyze(ctx context.Context, ds *dataset.Dataset, report analysis.Report) (AnalysisSnapshot, error) {
	req, err := s.start(ctx, ds, report)
	if err != nil {
		return AnalysisSnapshot{}, err
	}
	if req == nil {
		return AnalysisSnapshot{}, errors.AnalysisBusy()
	}
	if err := req.wait(ctx); err != nil {
		return AnalysisSnapshot{}, err
	}
	return req.result, nil
}

// History lists archived analyses, newest first. Without an archive it is
// always empty.
func (s *AnalysisService) History(ctx context.Context) ([]*models.AuditRun, error) {
	if s.repo == nil {
		return []*models.AuditRun{}, nil
	}
	return s.repo.ListRecent(ctx, historyLimit)
}

// ArchiveEnabled reports whether analyses are persisted.
func (s *AnalysisService) ArchiveEnabled() bool {
	return s.repo != nil
}

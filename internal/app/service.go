// Package service wires the supplier quality pipeline together and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	lotqueue "github.com/kuiperworks/kerf/internal/adapters/mq/queue"
	workerpool "github.com/kuiperworks/kerf/internal/adapters/mq/worker"
	repository "github.com/kuiperworks/kerf/internal/adapters/repository"
	"github.com/kuiperworks/kerf/internal/domain/alerts"
	"github.com/kuiperworks/kerf/internal/domain/apqp"
	"github.com/kuiperworks/kerf/internal/domain/dedupe"
	"github.com/kuiperworks/kerf/internal/domain/model"
	"github.com/kuiperworks/kerf/internal/domain/pareto"
	"github.com/kuiperworks/kerf/internal/domain/quality"
	"github.com/kuiperworks/kerf/internal/domain/scorecard"
	"github.com/kuiperworks/kerf/pkg/logger"
	"github.com/kuiperworks/kerf/pkg/metrics"

	"github.com/google/uuid"
)

// Default sizing constants.
const (
	defaultWorkerMultiplier = 2
	defaultQueueSize        = 100_000
	defaultDedupeSize       = 50_000
	defaultMaxLotHistory    = 500
	defaultControlWindow    = 25
	defaultAlertFeedSize    = 256
	defaultDPPMCritical     = 200.0
)

// Service runs the ingest pipeline and answers the read-side queries.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    *repository.MemoryStore
	deduper  dedupe.Deduper
	queue    lotqueue.Queue
	alertBus *alerts.Engine
	pool     *workerpool.Pool

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	maxLotHistory int
	alertFeedSize int
	dppmCritical  float64

	// Tunables that a config reload may replace at runtime.
	controlWindow  int
	thresholds     scorecard.Thresholds
	defaultWeights map[string]int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of evaluation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the lot report queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the report-ID idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxLotHistory caps the per-supplier lot retention.
func WithMaxLotHistory(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLotHistory = n
		}
	}
}

// WithControlWindow sets how many recent lots feed the ingest-time p-chart.
func WithControlWindow(window int) Option {
	return func(s *Service) {
		if window > 0 {
			s.controlWindow = window
		}
	}
}

// WithAlertFeedSize bounds the in-memory alert feed.
func WithAlertFeedSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.alertFeedSize = size
		}
	}
}

// WithDPPMCriticalThreshold sets the DPPM rate that raises a critical alert
// at ingest. Zero disables the alert.
func WithDPPMCriticalThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold >= 0 {
			s.dppmCritical = threshold
		}
	}
}

// WithThresholds sets the scorecard classification bounds.
func WithThresholds(t scorecard.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = t
	}
}

// WithDefaultWeights sets the weight profile applied when a ranking request
// omits weights.
func WithDefaultWeights(weights map[string]int) Option {
	return func(s *Service) {
		s.defaultWeights = weights
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU() * defaultWorkerMultiplier,
		queueSize:      defaultQueueSize,
		dedupeSize:     defaultDedupeSize,
		maxLotHistory:  defaultMaxLotHistory,
		controlWindow:  defaultControlWindow,
		alertFeedSize:  defaultAlertFeedSize,
		dppmCritical:   defaultDPPMCritical,
		thresholds:     scorecard.DefaultThresholds(),
		defaultWeights: map[string]int{},
		logger:         nil, // resolved at Start
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the pipeline components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting supplier quality service")

	s.store = repository.NewMemoryStore(ctx,
		repository.WithMaxLotHistory(s.maxLotHistory),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = lotqueue.NewInMemoryQueue(
		lotqueue.WithCapacity(s.queueSize),
		lotqueue.WithBufferSize(s.queueSize),
	)
	s.alertBus = alerts.NewEngine(
		alerts.WithFeedSize(s.alertFeedSize),
	)

	evaluator := workerpool.EvaluatorFunc(
		func(_ context.Context, samples []quality.LotSample) (quality.ControlLimitsResult, error) {
			return quality.ControlLimits(samples)
		},
	)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, evaluator, s.store, s.alertBus,
		workerpool.WithControlWindowFunc(s.ControlWindow),
		workerpool.WithDPPMCriticalThreshold(s.dppmCritical),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "supplier quality service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("controlWindow", s.controlWindow),
	)

	return nil
}

// Stop gracefully shuts down the pipeline.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping supplier quality service")

	if s.pool != nil {
		// Shutdown closes the queue first so workers drain what is left.
		_ = s.pool.Shutdown(ctx)
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "supplier quality service stopped")
}

// ApplyConfig installs the reloadable tunables from a fresh config: the
// scorecard bounds, the default weight profile, and the control window.
// Structural settings (queue size, worker count, retention) keep their
// start-time values.
func (s *Service) ApplyConfig(ctx context.Context, thresholds scorecard.Thresholds, weights map[string]int, controlWindow int) {
	s.mu.Lock()
	s.thresholds = thresholds
	if weights != nil {
		s.defaultWeights = weights
	}
	if controlWindow > 0 {
		s.controlWindow = controlWindow
	}
	s.mu.Unlock()

	s.logger.Info(ctx, "runtime tunables updated",
		logger.Int("controlWindow", controlWindow),
		logger.Int("weightCategories", len(weights)),
	)
}

// SeenAndRecord atomically checks if a report id was seen and records it if
// not. Returns true if the report was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordLotDuplicate()
	}
	return seen
}

// Unrecord removes a report ID from the seen list, allowing a retry after
// the queue refused the report.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue submits a lot report for asynchronous evaluation.
// Returns false on backpressure.
func (s *Service) Enqueue(ctx context.Context, report model.LotReport) bool { //nolint:gocritic // hugeParam: reports are passed by value throughout the pipeline
	if report.Yield == 0 {
		// Feed omitted the yield; derive it from the counts.
		report.Yield = 1 - report.Proportion()
	}
	return s.queue.Enqueue(ctx, report)
}

// PutSupplier inserts or replaces a supplier record.
func (s *Service) PutSupplier(ctx context.Context, supplier model.Supplier) error {
	return s.store.PutSupplier(ctx, supplier)
}

// Supplier returns a supplier by ID.
func (s *Service) Supplier(ctx context.Context, id string) (model.Supplier, error) {
	return s.store.Supplier(ctx, id)
}

// Suppliers returns all registered suppliers ordered by ID.
func (s *Service) Suppliers(ctx context.Context) ([]model.Supplier, error) {
	return s.store.Suppliers(ctx)
}

// ControlChart evaluates the supplier's retained recent lots. window <= 0
// applies the configured control window. The returned reports are the
// samples behind the limits, in arrival order.
func (s *Service) ControlChart(ctx context.Context, supplierID string, window int) ([]model.LotReport, quality.ControlLimitsResult, error) {
	if window <= 0 {
		window = s.ControlWindow()
	}

	history, err := s.store.LotsBySupplier(ctx, supplierID, window)
	if err != nil {
		return nil, quality.ControlLimitsResult{}, err
	}

	samples := make([]quality.LotSample, len(history))
	for i, report := range history {
		samples[i] = quality.LotSample{
			LotID:          report.LotID,
			InspectionDate: report.InspectionDate,
			LotSize:        report.LotSize,
			DefectCount:    report.DefectCount,
		}
	}

	limits, err := quality.ControlLimits(samples)
	if err != nil {
		return nil, quality.ControlLimitsResult{}, err
	}
	return history, limits, nil
}

// Lot returns the stored report for a lot ID (traceability lookup).
func (s *Service) Lot(ctx context.Context, lotID string) (model.LotReport, error) {
	return s.store.Lot(ctx, lotID)
}

// RecordFailure stores a failure record, assigning an ID and the open
// status when the caller leaves them blank.
func (s *Service) RecordFailure(ctx context.Context, failure model.FailureRecord) (model.FailureRecord, error) {
	if failure.ID == "" {
		failure.ID = uuid.NewString()
	}
	if failure.Status == "" {
		failure.Status = model.FailureOpen
	}
	if failure.ReportedAt.IsZero() {
		failure.ReportedAt = time.Now().UTC()
	}
	if err := s.store.AppendFailure(ctx, failure); err != nil {
		return model.FailureRecord{}, err
	}
	return failure, nil
}

// Failures lists failure records newest first, optionally filtered by status.
func (s *Service) Failures(ctx context.Context, status string) ([]model.FailureRecord, error) {
	return s.store.Failures(ctx, status)
}

// Pareto counts failures by mode and returns the top entries.
func (s *Service) Pareto(ctx context.Context, top int) ([]pareto.Entry, error) {
	failures, err := s.store.Failures(ctx, "")
	if err != nil {
		return nil, err
	}
	return pareto.TopModes(failures, top), nil
}

// PutMilestone upserts an APQP milestone card, filling in the default PPAP
// checklist for elements the caller did not supply.
func (s *Service) PutMilestone(ctx context.Context, card model.MilestoneCard) error {
	card = apqp.ApplyChecklistDefaults(card)
	return s.store.PutMilestone(ctx, card)
}

// Board returns the milestone cards grouped by APQP phase in program order.
func (s *Service) Board(ctx context.Context) ([]apqp.PhaseGroup, error) {
	cards, err := s.store.Milestones(ctx)
	if err != nil {
		return nil, err
	}
	return apqp.Board(cards), nil
}

// Scorecard assembles the per-supplier scorecard rows.
func (s *Service) Scorecard(ctx context.Context) ([]scorecard.Card, error) {
	suppliers, err := s.store.Suppliers(ctx)
	if err != nil {
		return nil, err
	}

	openBySupplier, err := s.openFailuresBySupplier(ctx)
	if err != nil {
		return nil, err
	}

	bounds := s.Thresholds()
	cards := make([]scorecard.Card, 0, len(suppliers))
	for _, supplier := range suppliers {
		var latest *model.LotReport
		history, err := s.store.LotsBySupplier(ctx, supplier.ID, 1)
		switch {
		case err == nil && len(history) > 0:
			latest = &history[len(history)-1]
		case err != nil && !repository.IsMissingData(err):
			metrics.RecordScorecardError()
			return nil, err
		}
		cards = append(cards, scorecard.BuildCard(supplier, latest, openBySupplier[supplier.ID], bounds))
	}

	metrics.RecordScorecardUpdate()
	return cards, nil
}

// Summary rolls the scorecard into the fleet-level numbers.
func (s *Service) Summary(ctx context.Context) (scorecard.Summary, error) {
	cards, err := s.Scorecard(ctx)
	if err != nil {
		return scorecard.Summary{}, err
	}
	return scorecard.Summarize(cards, s.store.OpenFailureCount(ctx)), nil
}

// openFailuresBySupplier counts not-yet-closed failures per supplier.
func (s *Service) openFailuresBySupplier(ctx context.Context) (map[string]int, error) {
	failures, err := s.store.Failures(ctx, "")
	if err != nil {
		return nil, err
	}
	open := make(map[string]int)
	for _, failure := range failures {
		if failure.Status != model.FailureClosed {
			open[failure.SupplierID]++
		}
	}
	return open, nil
}

// RecentAlerts returns up to limit alerts, most recent first.
func (s *Service) RecentAlerts(ctx context.Context, limit int) []alerts.Alert {
	return s.alertBus.Recent(ctx, limit)
}

// Rank scores the candidates with the supplied weights; a nil or empty
// weight map applies the configured default profile.
func (s *Service) Rank(ctx context.Context, candidates []quality.Candidate, weights map[string]int) ([]quality.RankedCandidate, error) {
	if len(weights) == 0 {
		weights = s.DefaultWeights()
	}
	return quality.WeightedScores(candidates, weights)
}

// DefaultWeights returns a copy of the configured default weight profile.
func (s *Service) DefaultWeights() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	weights := make(map[string]int, len(s.defaultWeights))
	for category, weight := range s.defaultWeights {
		weights[category] = weight
	}
	return weights
}

// Thresholds returns the current scorecard classification bounds.
func (s *Service) Thresholds() scorecard.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

// ControlWindow returns the current ingest-time control window.
func (s *Service) ControlWindow() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controlWindow
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		suppliers := s.store.SupplierCount(ctx)
		lots := s.store.LotCount(ctx)
		openFailures := s.store.OpenFailureCount(ctx)

		stats["queueLength"] = queueLen
		stats["suppliers"] = suppliers
		stats["lotsStored"] = lots
		stats["openFailures"] = openFailures
		stats["milestones"] = s.store.MilestoneCount(ctx)
		stats["alertsRetained"] = s.alertBus.Size(ctx)
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalSuppliers(suppliers)
		metrics.UpdateOpenFailures(openFailures)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

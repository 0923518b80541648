// Package worker defines worker contracts for asynchronous lot evaluation.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/kuiperworks/kerf/internal/domain/model"
	"github.com/kuiperworks/kerf/internal/domain/quality"
	"github.com/kuiperworks/kerf/pkg/logger"
	"github.com/kuiperworks/kerf/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 20 // multiplier for runtime.NumCPU()
	defaultControlWindow    = 25
	defaultDPPMCritical     = 200.0
	metricsUpdateInterval   = 5 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Report abstracts what workers read off the queue.
// Using the model.LotReport type for consistency.
type Report = model.LotReport

// Recorder persists lot reports and serves back recent supplier history.
type Recorder interface {
	AppendLot(ctx context.Context, report model.LotReport) error
	LotsBySupplier(ctx context.Context, supplierID string, window int) ([]model.LotReport, error)
	SetLotFlag(ctx context.Context, lotID string, flagged bool) error
}

// Evaluator computes control limits over a run of lot samples.
type Evaluator interface {
	Evaluate(ctx context.Context, samples []quality.LotSample) (quality.ControlLimitsResult, error)
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, samples []quality.LotSample) (quality.ControlLimitsResult, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, samples []quality.LotSample) (quality.ControlLimitsResult, error) {
	return f(ctx, samples)
}

// Alerter receives control excursions and DPPM breaches found during evaluation.
type Alerter interface {
	Excursion(ctx context.Context, report model.LotReport, limits quality.ControlLimitsResult)
	CriticalDPPM(ctx context.Context, report model.LotReport, threshold float64)
}

// Queue defines how workers receive reports.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Report
}

// Worker evaluates lot reports and records the outcome using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining reports before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing lot reports.
type InMemoryWorker struct {
	queue     Queue
	evaluator Evaluator
	recorder  Recorder
	alerter   Alerter
	name      string

	controlWindow int
	windowFn      func() int // overrides controlWindow when set (config hot reload)
	dppmCritical  float64

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Pool-level processed counter, nil for standalone workers
	processed *atomic.Int64

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, evaluator Evaluator, recorder Recorder, alerter Alerter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:         queue,
		evaluator:     evaluator,
		recorder:      recorder,
		alerter:       alerter,
		name:          "worker", // default name
		controlWindow: defaultControlWindow,
		dppmCritical:  defaultDPPMCritical,
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
		logger:        logger.Get().Named("worker"), // will be updated by options
	}

	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	reportChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case report, ok := <-reportChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processReport(ctx, report); err != nil {
				w.logger.Error(ctx, "error processing report", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processReport stores a single report and evaluates its supplier's recent run.
func (w *InMemoryWorker) processReport(ctx context.Context, report Report) error { //nolint:gocritic // hugeParam: Report must be passed by value for channel semantics
	// Track overall processing latency
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	if err := w.recorder.AppendLot(ctx, report); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		metrics.RecordErrorByType("store_error", "high")
		w.logger.Error(ctx, "storing report failed",
			logger.String("reportID", report.ReportID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to store report %s: %w", report.ReportID, err)
	}

	window := w.controlWindow
	if w.windowFn != nil {
		if n := w.windowFn(); n > 0 {
			window = n
		}
	}

	history, err := w.recorder.LotsBySupplier(ctx, report.SupplierID, window)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "history_error")
		metrics.RecordErrorByType("history_error", "high")
		w.logger.Error(ctx, "loading supplier history failed",
			logger.String("supplierID", report.SupplierID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to load history for %s: %w", report.SupplierID, err)
	}

	// Track evaluation latency
	evalStart := time.Now()
	limits, err := w.evaluator.Evaluate(ctx, toSamples(history))
	evalLatency := time.Since(evalStart).Milliseconds()

	metrics.RecordEvaluationLatency(float64(evalLatency))

	if err != nil {
		metrics.RecordEvaluationError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "evaluation_error")
		metrics.RecordErrorByType("evaluation_error", "high")
		w.logger.Error(ctx, "evaluation failed for report",
			logger.String("reportID", report.ReportID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to evaluate report %s: %w", report.ReportID, err)
	}

	// Concurrent appends may interleave, so locate this report's flag by
	// lot ID rather than assuming it is the newest sample.
	flagged := false
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].LotID == report.LotID {
			if i < len(limits.Flags) {
				flagged = limits.Flags[i]
			}
			break
		}
	}

	if err := w.recorder.SetLotFlag(ctx, report.LotID, flagged); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		w.logger.Error(ctx, "flagging report failed",
			logger.String("lotID", report.LotID),
			logger.Error(err),
		)
	}

	if flagged {
		metrics.RecordExcursion()
		if w.alerter != nil {
			w.alerter.Excursion(ctx, report, limits)
		}
	}

	if w.alerter != nil && w.dppmCritical > 0 && report.DPPM() >= w.dppmCritical {
		w.alerter.CriticalDPPM(ctx, report, w.dppmCritical)
	}

	metrics.RecordLotProcessed()
	if w.processed != nil {
		w.processed.Add(1)
	}

	return nil
}

// toSamples projects stored reports onto control chart samples.
func toSamples(history []model.LotReport) []quality.LotSample {
	samples := make([]quality.LotSample, len(history))
	for i, report := range history {
		samples[i] = quality.LotSample{
			LotID:          report.LotID,
			InspectionDate: report.InspectionDate,
			LotSize:        report.LotSize,
			DefectCount:    report.DefectCount,
		}
	}
	return samples
}

// Pool manages multiple workers.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	evaluator Evaluator
	recorder  Recorder
	alerter   Alerter

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Metrics tracking
	processed         atomic.Int64
	lastProcessedTime time.Time

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, evaluator Evaluator, recorder Recorder, alerter Alerter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             queue,
		evaluator:         evaluator,
		recorder:          recorder,
		alerter:           alerter,
		shutdown:          make(chan struct{}),
		done:              make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, evaluator, recorder, alerter, workerOpts...)
		pool.workers[i].processed = &pool.processed
	}

	// Initialize worker metrics
	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerIdleCount(0)
	metrics.UpdateWorkerReportsPerSecond(0.0)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}

	// Start metrics updater
	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater starts a background goroutine that updates worker metrics.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

// updateMetrics updates worker-related metrics.
func (p *Pool) updateMetrics() {
	now := time.Now()
	timeDiff := now.Sub(p.lastProcessedTime).Seconds()
	if timeDiff > 0 {
		reportsPerSecond := float64(p.processed.Swap(0)) / timeDiff
		metrics.UpdateWorkerReportsPerSecond(reportsPerSecond)
	}
	p.lastProcessedTime = now
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	// Wait for all workers to finish
	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new reports
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish or context to timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}

// Package alerts keeps a bounded in-process feed of quality alerts.
//
// The feed is append-only and trimmed to a configured size, so the service
// can always serve "what fired recently" without unbounded growth.
package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kuiperworks/kerf/internal/domain/model"
	"github.com/kuiperworks/kerf/internal/domain/quality"
	"github.com/kuiperworks/kerf/pkg/logger"
	"github.com/kuiperworks/kerf/pkg/metrics"
)

// Default number of alerts retained in the feed.
const defaultFeedSize = 256

// Alert kinds raised by the ingest pipeline.
const (
	KindExcursion    = "excursion"
	KindDPPMCritical = "dppm-critical"
)

// Alert severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is a single event in the feed.
type Alert struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Severity   string    `json:"severity"`
	SupplierID string    `json:"supplier_id"`
	LotID      string    `json:"lot_id,omitempty"`
	Message    string    `json:"message"`
	FiredAt    time.Time `json:"fired_at"`
}

// Engine collects alerts raised by the pipeline and serves the recent feed.
// Engine is safe for concurrent use.
type Engine struct {
	mu   sync.Mutex
	feed []Alert
	size int

	logger logger.Logger
}

// NewEngine creates an alert engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		size:   defaultFeedSize,
		logger: logger.Get().Named("alerts"),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.feed = make([]Alert, 0, e.size)

	return e
}

// Raise appends an alert to the feed and returns it with its assigned ID.
func (e *Engine) Raise(ctx context.Context, kind, severity, supplierID, lotID, message string) Alert {
	a := Alert{
		ID:         uuid.NewString(),
		Kind:       kind,
		Severity:   severity,
		SupplierID: supplierID,
		LotID:      lotID,
		Message:    message,
		FiredAt:    time.Now(),
	}

	e.mu.Lock()
	e.feed = append(e.feed, a)
	if len(e.feed) > e.size {
		e.feed = e.feed[len(e.feed)-e.size:]
	}
	e.mu.Unlock()

	metrics.RecordAlertRaised(kind)
	e.logger.Warn(ctx, "alert raised",
		logger.String("kind", kind),
		logger.String("severity", severity),
		logger.String("supplier_id", supplierID),
		logger.String("lot_id", lotID),
	)

	return a
}

// Excursion raises a control-limit excursion alert for a lot.
func (e *Engine) Excursion(ctx context.Context, report model.LotReport, limits quality.ControlLimitsResult) { //nolint:gocritic // hugeParam: reports are passed by value throughout the pipeline
	message := fmt.Sprintf("lot %s proportion %.4f outside control limits [%.4f, %.4f]",
		report.LotID, report.Proportion(), limits.LCL, limits.UCL)
	e.Raise(ctx, KindExcursion, SeverityWarning, report.SupplierID, report.LotID, message)
}

// CriticalDPPM raises an alert for a lot breaching the critical DPPM band.
func (e *Engine) CriticalDPPM(ctx context.Context, report model.LotReport, threshold float64) { //nolint:gocritic // hugeParam: reports are passed by value throughout the pipeline
	message := fmt.Sprintf("lot %s at %.0f DPPM exceeds critical threshold %.0f",
		report.LotID, report.DPPM(), threshold)
	e.Raise(ctx, KindDPPMCritical, SeverityCritical, report.SupplierID, report.LotID, message)
}

// Recent returns up to limit alerts, most recent first.
// limit <= 0 returns the whole retained feed.
func (e *Engine) Recent(ctx context.Context, limit int) []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.feed)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]Alert, 0, n)
	for i := len(e.feed) - 1; i >= len(e.feed)-n; i-- {
		out = append(out, e.feed[i])
	}
	return out
}

// Size returns the number of alerts currently retained.
func (e *Engine) Size(ctx context.Context) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.feed)
}

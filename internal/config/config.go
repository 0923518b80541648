// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with compiled defaults.
// - Load() layers file and environment values over the defaults.
// - External errors must be wrapped via this package's error kinds.
package config

import "runtime"

// Worker sizing relative to available CPUs.
const workerMultiplier = 10

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory lot report queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of evaluation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the report-ID idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLotHistory caps how many lot reports are retained per supplier.
	MaxLotHistory int `koanf:"max_lot_history"`

	// ControlWindow sets how many recent lots feed the ingest-time p-chart.
	ControlWindow int `koanf:"control_window"`

	// MaxChartWindow caps GET /suppliers/{id}/control-chart?window.
	MaxChartWindow int `koanf:"max_chart_window"`

	// MaxParetoTop caps GET /pareto/failure-modes?top.
	MaxParetoTop int `koanf:"max_pareto_top"`

	// MaxRankingCandidates caps the candidate list accepted by POST /rankings.
	MaxRankingCandidates int `koanf:"max_ranking_candidates"`

	// AlertFeedSize bounds the in-memory alert feed.
	AlertFeedSize int `koanf:"alert_feed_size"`

	// DefaultWeights is the weight profile applied when POST /rankings
	// omits weights. Integer percentages; must sum to 100 when set.
	DefaultWeights map[string]int `koanf:"default_weights"`

	// Scorecard classification bounds.
	HealthGoodAt   int     `koanf:"health_good_at"`
	HealthWatchAt  int     `koanf:"health_watch_at"`
	DPPMGoodBelow  float64 `koanf:"dppm_good_below"`
	DPPMWatchBelow float64 `koanf:"dppm_watch_below"`

	// DPPMCritical is the defect rate that raises a critical alert at
	// ingest. Zero disables the alert.
	DPPMCritical float64 `koanf:"dppm_critical"`

	// WatchConfig enables hot reload of tunable fields when the config
	// file named by KERF_CONFIG changes.
	WatchConfig bool `koanf:"watch_config"`
}

// New creates a Config with compiled defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		QueueSize:            100_000,
		WorkerCount:          runtime.NumCPU() * workerMultiplier,
		DedupeSize:           500_000,
		MaxLotHistory:        500,
		ControlWindow:        25,
		MaxChartWindow:       200,
		MaxParetoTop:         50,
		MaxRankingCandidates: 100,
		AlertFeedSize:        256,
		DefaultWeights: map[string]int{
			"audit_score":  40,
			"sample_yield": 40,
			"quoted_cost":  20,
		},
		HealthGoodAt:   90,
		HealthWatchAt:  70,
		DPPMGoodBelow:  100,
		DPPMWatchBelow: 200,
		DPPMCritical:   200,
	}
}

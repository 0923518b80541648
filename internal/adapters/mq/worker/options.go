// Package worker defines worker contracts for asynchronous lot evaluation.
package worker

import (
	"github.com/kuiperworks/kerf/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithControlWindow sets how many recent lots feed the control chart.
func WithControlWindow(window int) Option {
	return func(w *InMemoryWorker) {
		if window > 0 {
			w.controlWindow = window
		}
	}
}

// WithControlWindowFunc makes the worker read its control window through fn
// on every evaluation, letting a config reload take effect without a restart.
func WithControlWindowFunc(fn func() int) Option {
	return func(w *InMemoryWorker) {
		if fn != nil {
			w.windowFn = fn
		}
	}
}

// WithDPPMCriticalThreshold sets the DPPM level that raises a critical alert.
// A threshold of zero disables DPPM alerts.
func WithDPPMCriticalThreshold(threshold float64) Option {
	return func(w *InMemoryWorker) {
		if threshold >= 0 {
			w.dppmCritical = threshold
		}
	}
}

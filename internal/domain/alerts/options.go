// Package alerts keeps a bounded in-process feed of quality alerts.
package alerts

import (
	"github.com/kuiperworks/kerf/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithFeedSize sets how many alerts the feed retains.
func WithFeedSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.size = size
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(logger logger.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

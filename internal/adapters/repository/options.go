// Package repository defines the supplier quality store interface and errors.
package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithMaxLotHistory caps how many lot reports are retained per supplier.
func WithMaxLotHistory(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxLotHistory = n
		}
	}
}

package repository

import (
	"context"
	"sort"
	"time"

	"github.com/kuiperworks/kerf/internal/domain/model"
	"github.com/kuiperworks/kerf/pkg/metrics"
)

// AppendFailure records a failure record, replacing any record with the same ID.
func (s *MemoryStore) AppendFailure(ctx context.Context, failure model.FailureRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.failureIdx[failure.ID]; ok {
		s.failures[idx] = failure
		return nil
	}
	s.failureIdx[failure.ID] = len(s.failures)
	s.failures = append(s.failures, failure)
	return nil
}

// Failures returns failure records newest first, optionally filtered by
// lifecycle status. An empty status matches every record.
func (s *MemoryStore) Failures(ctx context.Context, status string) ([]model.FailureRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.FailureRecord, 0, len(s.failures))
	for i := len(s.failures) - 1; i >= 0; i-- {
		if status != "" && s.failures[i].Status != status {
			continue
		}
		out = append(out, s.failures[i])
	}
	// Records arriving in the same instant keep reverse append order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReportedAt.After(out[j].ReportedAt)
	})
	return out, nil
}

// OpenFailureCount returns the number of records not yet closed.
func (s *MemoryStore) OpenFailureCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openFailuresLocked()
}

// openFailuresLocked counts non-closed records. Must be called with s.mu held.
func (s *MemoryStore) openFailuresLocked() int {
	open := 0
	for _, failure := range s.failures {
		if failure.Status != model.FailureClosed {
			open++
		}
	}
	return open
}

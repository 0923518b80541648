package repository

import (
	"context"
	"time"

	"github.com/kuiperworks/kerf/internal/domain/model"
	"github.com/kuiperworks/kerf/pkg/metrics"
)

// AppendLot records an inspected lot for its supplier.
func (s *MemoryStore) AppendLot(ctx context.Context, report model.LotReport) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.lots[report.SupplierID], report)
	if s.maxLotHistory > 0 && len(history) > s.maxLotHistory {
		history = history[len(history)-s.maxLotHistory:]
	}
	s.lots[report.SupplierID] = history
	s.lotIndex[report.LotID] = report
	return nil
}

// LotsBySupplier returns up to window most recent lot reports in arrival order.
func (s *MemoryStore) LotsBySupplier(ctx context.Context, supplierID string, window int) ([]model.LotReport, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if window < 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.suppliers[supplierID]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, ErrNotFound
	}
	history := s.lots[supplierID]
	if len(history) == 0 {
		metrics.RecordErrorByComponent("repository", "no_data")
		return nil, ErrNoData
	}
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}

	out := make([]model.LotReport, len(history))
	copy(out, history)
	return out, nil
}

// Lot returns the most recent report for a lot ID.
func (s *MemoryStore) Lot(ctx context.Context, lotID string) (model.LotReport, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.lotIndex[lotID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.LotReport{}, ErrNotFound
	}
	return report, nil
}

// LotCount returns the number of retained lot reports across suppliers.
func (s *MemoryStore) LotCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, history := range s.lots {
		total += len(history)
	}
	return total
}

// SetLotFlag records the control evaluation outcome for a stored lot.
func (s *MemoryStore) SetLotFlag(ctx context.Context, lotID string, flagged bool) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.lotIndex[lotID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	report.Flagged = flagged
	s.lotIndex[lotID] = report

	// The supplier history stores values, so flag the matching entry too.
	history := s.lots[report.SupplierID]
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].LotID == lotID {
			history[i].Flagged = flagged
			break
		}
	}
	return nil
}

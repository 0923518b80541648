package repository

import (
	"context"
	"sort"
	"time"

	"github.com/kuiperworks/kerf/internal/domain/model"
	"github.com/kuiperworks/kerf/pkg/metrics"
)

// PutSupplier inserts or replaces a supplier.
func (s *MemoryStore) PutSupplier(ctx context.Context, supplier model.Supplier) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers[supplier.ID] = supplier
	return nil
}

// Supplier returns a supplier by ID.
func (s *MemoryStore) Supplier(ctx context.Context, id string) (model.Supplier, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, ok := s.suppliers[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Supplier{}, ErrNotFound
	}
	return supplier, nil
}

// Suppliers returns all registered suppliers ordered by ID.
func (s *MemoryStore) Suppliers(ctx context.Context) ([]model.Supplier, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Supplier, 0, len(s.suppliers))
	for _, supplier := range s.suppliers {
		out = append(out, supplier)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SupplierCount returns the number of registered suppliers.
func (s *MemoryStore) SupplierCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.suppliers)
}

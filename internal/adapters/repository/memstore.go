// Package repository defines the supplier quality store interface and errors.
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/kuiperworks/kerf/internal/domain/model"
	"github.com/kuiperworks/kerf/pkg/metrics"
)

// In-memory Store implementation.
//
// All collections live behind one RWMutex. Per-supplier lot history is
// kept in arrival order and trimmed to maxLotHistory so a chatty feed
// cannot grow the store without bound.

// Default retention and metrics cadence.
const (
	defaultMaxLotHistory       = 500
	defaultMetricsUpdatePeriod = 5 * time.Second
)

// MemoryStore holds the supplier quality state in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	suppliers  map[string]model.Supplier
	lots       map[string][]model.LotReport // supplier ID -> reports in arrival order
	lotIndex   map[string]model.LotReport   // lot ID -> latest report
	failures   []model.FailureRecord        // append order; read newest first
	failureIdx map[string]int               // failure ID -> index into failures
	milestones map[string]model.MilestoneCard

	maxLotHistory         int
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore constructs an in-memory store with configuration options.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		suppliers:             make(map[string]model.Supplier),
		lots:                  make(map[string][]model.LotReport),
		lotIndex:              make(map[string]model.LotReport),
		failureIdx:            make(map[string]int),
		milestones:            make(map[string]model.MilestoneCard),
		maxLotHistory:         defaultMaxLotHistory,
		metricsUpdateInterval: defaultMetricsUpdatePeriod,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s
}

// Close gracefully shuts down the background metrics goroutine.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
		// Channel already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// startMetricsUpdater starts a background goroutine that refreshes store gauges.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

// updateMetrics refreshes the record gauges for every entity kind.
func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	suppliers := len(s.suppliers)
	lots := 0
	for _, history := range s.lots {
		lots += len(history)
	}
	failures := len(s.failures)
	milestones := len(s.milestones)
	open := s.openFailuresLocked()
	s.mu.RUnlock()

	metrics.UpdateRepositoryRecordsPerKind("suppliers", suppliers)
	metrics.UpdateRepositoryRecordsPerKind("lots", lots)
	metrics.UpdateRepositoryRecordsPerKind("failures", failures)
	metrics.UpdateRepositoryRecordsPerKind("milestones", milestones)
	metrics.UpdateRepositoryRecordsTotal(suppliers + lots + failures + milestones)
	metrics.UpdateTotalSuppliers(suppliers)
	metrics.UpdateOpenFailures(open)
}

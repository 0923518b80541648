package repository

import (
	"context"
	"sort"
	"time"

	"github.com/kuiperworks/kerf/internal/domain/model"
	"github.com/kuiperworks/kerf/pkg/metrics"
)

// PutMilestone inserts or replaces the APQP milestone card for a part number.
func (s *MemoryStore) PutMilestone(ctx context.Context, card model.MilestoneCard) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.milestones[card.PartNumber] = cloneCard(card)
	return nil
}

// Milestones returns all milestone cards ordered by part number.
func (s *MemoryStore) Milestones(ctx context.Context) ([]model.MilestoneCard, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.MilestoneCard, 0, len(s.milestones))
	for _, card := range s.milestones {
		out = append(out, cloneCard(card))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PartNumber < out[j].PartNumber
	})
	return out, nil
}

// MilestoneCount returns the number of milestone cards.
func (s *MemoryStore) MilestoneCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.milestones)
}

// cloneCard copies a card so callers never share the PPAP checklist map.
func cloneCard(card model.MilestoneCard) model.MilestoneCard {
	if card.PPAP == nil {
		return card
	}
	checklist := make(map[string]string, len(card.PPAP))
	for element, status := range card.PPAP {
		checklist[element] = status
	}
	card.PPAP = checklist
	return card
}

// Package apqp maintains the milestone board for new-part qualification.
package apqp

import (
	"sort"

	"github.com/kuiperworks/kerf/internal/domain/model"
)

// PPAP element lifecycle states.
const (
	ElementNotStarted = "not-started"
	ElementInProgress = "in-progress"
	ElementComplete   = "complete"
)

// PPAPElements lists the checklist elements every card tracks.
func PPAPElements() []string {
	return []string{
		"design records",
		"process flow diagram",
		"process FMEA",
		"control plan",
		"MSA",
		"initial process studies",
		"PSW",
	}
}

// ValidPhase reports whether phase is one of the five APQP phases.
func ValidPhase(phase string) bool {
	for _, p := range model.Phases() {
		if p == phase {
			return true
		}
	}
	return false
}

// ApplyChecklistDefaults fills in any missing PPAP element as not started.
// Element statuses already on the card are kept.
func ApplyChecklistDefaults(card model.MilestoneCard) model.MilestoneCard {
	checklist := make(map[string]string, len(PPAPElements()))
	for _, element := range PPAPElements() {
		checklist[element] = ElementNotStarted
	}
	for element, status := range card.PPAP {
		checklist[element] = status
	}
	card.PPAP = checklist
	return card
}

// PhaseGroup is one column of the board.
type PhaseGroup struct {
	Phase string
	Cards []model.MilestoneCard
}

// Board groups cards into the five phases in program order, each group
// sorted by part number. Cards carrying an unknown phase are dropped;
// upstream validation rejects them before they are stored.
func Board(cards []model.MilestoneCard) []PhaseGroup {
	byPhase := make(map[string][]model.MilestoneCard)
	for _, card := range cards {
		byPhase[card.Phase] = append(byPhase[card.Phase], card)
	}

	groups := make([]PhaseGroup, 0, len(model.Phases()))
	for _, phase := range model.Phases() {
		group := byPhase[phase]
		sort.Slice(group, func(i, j int) bool {
			return group[i].PartNumber < group[j].PartNumber
		})
		if group == nil {
			group = []model.MilestoneCard{}
		}
		groups = append(groups, PhaseGroup{Phase: phase, Cards: group})
	}
	return groups
}

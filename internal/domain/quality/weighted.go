package quality

import (
	"fmt"
	"sort"
)

// Weights are integer percentages and must sum to exactly this total.
// Sub-scores are bounded to the same 0-100 scale.
const (
	weightTotal = 100
	maxSubScore = 100
)

// Candidate is a named option scored across weighted categories. Every
// sub-score is expected on a 0-100 scale.
type Candidate struct {
	Name      string             `json:"name"`
	SubScores map[string]float64 `json:"sub_scores"`
}

// RankedCandidate pairs a candidate with its weighted score and rank.
type RankedCandidate struct {
	Rank          int     `json:"rank"`
	Name          string  `json:"name"`
	WeightedScore float64 `json:"weighted_score"`
}

// WeightedScores ranks candidates by the weighted sum of their sub-scores.
// The ranking is descending by score with ties broken by name ascending,
// so the result does not depend on input order. Categories are summed in
// sorted order to keep the arithmetic independent of map iteration.
func WeightedScores(candidates []Candidate, weights map[string]int) ([]RankedCandidate, error) {
	total := 0
	categories := make([]string, 0, len(weights))
	for category, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("%w: weight for %q is negative", ErrInvalidInput, category)
		}
		total += w
		categories = append(categories, category)
	}
	if total != weightTotal {
		return nil, fmt.Errorf("%w: weights sum to %d, want %d", ErrInvalidInput, total, weightTotal)
	}
	sort.Strings(categories)

	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		var score float64
		for _, category := range categories {
			sub, ok := c.SubScores[category]
			if !ok {
				return nil, fmt.Errorf("%w: candidate %q missing sub-score for %q", ErrInvalidInput, c.Name, category)
			}
			if sub < 0 || sub > maxSubScore {
				return nil, fmt.Errorf("%w: candidate %q sub-score %g for %q outside [0, %d]", ErrInvalidInput, c.Name, sub, category, maxSubScore)
			}
			score += sub * float64(weights[category]) / weightTotal
		}
		ranked = append(ranked, RankedCandidate{Name: c.Name, WeightedScore: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].WeightedScore != ranked[j].WeightedScore {
			return ranked[i].WeightedScore > ranked[j].WeightedScore
		}
		return ranked[i].Name < ranked[j].Name
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked, nil
}

// Package pareto ranks failure modes by frequency.
package pareto

import (
	"sort"

	"github.com/kuiperworks/kerf/internal/domain/model"
)

// Default number of modes returned.
const defaultTop = 5

// Entry is one failure mode's slice of the total.
type Entry struct {
	Mode       string  `json:"mode"`
	Count      int     `json:"count"`
	Share      float64 `json:"share"`
	Cumulative float64 `json:"cumulative"`
}

// TopModes counts failures by mode and returns the leading entries in
// classic Pareto order: count descending, ties broken by mode name
// ascending. Share and Cumulative are fractions of all counted failures,
// so a truncated listing keeps its shares relative to the full total.
// top <= 0 applies the default of 5. Records without a mode are skipped.
func TopModes(failures []model.FailureRecord, top int) []Entry {
	if top <= 0 {
		top = defaultTop
	}

	counts := make(map[string]int)
	total := 0
	for _, failure := range failures {
		if failure.Mode == "" {
			continue
		}
		counts[failure.Mode]++
		total++
	}
	if total == 0 {
		return []Entry{}
	}

	entries := make([]Entry, 0, len(counts))
	for mode, count := range counts {
		entries = append(entries, Entry{Mode: mode, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Mode < entries[j].Mode
	})

	if len(entries) > top {
		entries = entries[:top]
	}

	cumulative := 0.0
	for i := range entries {
		entries[i].Share = float64(entries[i].Count) / float64(total)
		cumulative += entries[i].Share
		entries[i].Cumulative = cumulative
	}
	return entries
}

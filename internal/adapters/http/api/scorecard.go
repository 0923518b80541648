// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/kuiperworks/kerf/internal/domain/scorecard"
)

// ScorecardDependencies defines the interface for scorecard reads.
type ScorecardDependencies interface {
	Scorecard(ctx context.Context) ([]scorecard.Card, error)
	Summary(ctx context.Context) (scorecard.Summary, error)
}

// ScorecardHandler handles supplier scorecard and fleet summary requests.
type ScorecardHandler struct {
	deps ScorecardDependencies
}

// NewScorecardHandler creates a new scorecard handler.
func NewScorecardHandler(deps ScorecardDependencies) *ScorecardHandler {
	return &ScorecardHandler{deps: deps}
}

// HandleGetScorecard handles GET /scorecard requests.
func (h *ScorecardHandler) HandleGetScorecard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	cards, err := h.deps.Scorecard(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// HandleGetSummary handles GET /summary requests.
func (h *ScorecardHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	summary, err := h.deps.Summary(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

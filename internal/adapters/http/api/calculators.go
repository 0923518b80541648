// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kuiperworks/kerf/internal/domain/quality"
	"github.com/kuiperworks/kerf/pkg/metrics"
)

// CalculatorDependencies defines the interface for the ranking calculator.
// Control limits and capability are pure functions and need no dependency.
type CalculatorDependencies interface {
	Rank(ctx context.Context, candidates []quality.Candidate, weights map[string]int) ([]quality.RankedCandidate, error)
}

// controlLimitsRequest mirrors the OpenAPI schema for POST /spc/control-limits.
type controlLimitsRequest struct {
	Samples []quality.LotSample `json:"samples"`
}

// capabilityRequest mirrors the OpenAPI schema for POST /capability.
type capabilityRequest struct {
	Measurements []float64 `json:"measurements"`
	USL          float64   `json:"usl"`
	LSL          float64   `json:"lsl"`
}

// rankingsRequest mirrors the OpenAPI schema for POST /rankings. Weights
// are optional; the configured defaults apply when absent.
type rankingsRequest struct {
	Candidates []quality.Candidate `json:"candidates"`
	Weights    map[string]int      `json:"weights,omitempty"`
}

// CalculatorHandler handles the stateless SPC calculator endpoints.
type CalculatorHandler struct {
	deps          CalculatorDependencies
	maxCandidates int
}

// NewCalculatorHandler creates a new calculator handler.
func NewCalculatorHandler(deps CalculatorDependencies, maxCandidates int) *CalculatorHandler {
	return &CalculatorHandler{
		deps:          deps,
		maxCandidates: maxCandidates,
	}
}

// HandleControlLimits handles POST /spc/control-limits requests.
func (h *CalculatorHandler) HandleControlLimits(w http.ResponseWriter, r *http.Request) {
	const op = "api.control_limits"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req controlLimitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	result, err := quality.ControlLimits(req.Samples)
	if err != nil {
		if errors.Is(err, quality.ErrInvalidInput) {
			metrics.RecordInvalidInput(op)
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleCapability handles POST /capability requests.
func (h *CalculatorHandler) HandleCapability(w http.ResponseWriter, r *http.Request) {
	const op = "api.capability"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req capabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	result, err := quality.Capability(req.Measurements, req.USL, req.LSL)
	if err != nil {
		if errors.Is(err, quality.ErrInvalidInput) {
			metrics.RecordInvalidInput(op)
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleRankings handles POST /rankings requests.
func (h *CalculatorHandler) HandleRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.rankings"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req rankingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Candidates) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest))
		return
	}
	if len(req.Candidates) > h.maxCandidates {
		writeError(w, http.StatusBadRequest, "candidates_exceeded", newKind(op, ErrBadRequest))
		return
	}
	ranked, err := h.deps.Rank(r.Context(), req.Candidates, req.Weights)
	if err != nil {
		if errors.Is(err, quality.ErrInvalidInput) {
			metrics.RecordInvalidInput(op)
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

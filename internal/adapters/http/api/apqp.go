// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kuiperworks/kerf/internal/domain/apqp"
	"github.com/kuiperworks/kerf/internal/domain/model"
)

// APQPDependencies defines the interface for the milestone board.
type APQPDependencies interface {
	PutMilestone(ctx context.Context, card model.MilestoneCard) error
	Board(ctx context.Context) ([]apqp.PhaseGroup, error)
}

// milestoneRequest mirrors the OpenAPI schema for POST /apqp.
type milestoneRequest struct {
	PartNumber string            `json:"part_number"`
	Phase      string            `json:"phase"`
	Status     string            `json:"status,omitempty"`
	Owner      string            `json:"owner,omitempty"`
	PPAP       map[string]string `json:"ppap,omitempty"`
}

func (r milestoneRequest) validate() error {
	switch {
	case strings.TrimSpace(r.PartNumber) == "":
		return errors.New("missing part_number")
	case !apqp.ValidPhase(r.Phase):
		return errors.New("unknown APQP phase")
	}
	if r.Status != "" && !validMilestoneStatus(r.Status) {
		return errors.New("status must be on-track, at-risk, or approved")
	}
	return nil
}

func validMilestoneStatus(status string) bool {
	return status == model.MilestoneOnTrack || status == model.MilestoneAtRisk || status == model.MilestoneApproved
}

// milestoneCardResponse is the read shape for one card.
type milestoneCardResponse struct {
	PartNumber string            `json:"part_number"`
	Phase      string            `json:"phase"`
	Status     string            `json:"status"`
	Owner      string            `json:"owner,omitempty"`
	PPAP       map[string]string `json:"ppap"`
}

// boardGroupResponse is one phase column of the board.
type boardGroupResponse struct {
	Phase string                  `json:"phase"`
	Cards []milestoneCardResponse `json:"cards"`
}

func toCardResponse(card model.MilestoneCard) milestoneCardResponse {
	return milestoneCardResponse{
		PartNumber: card.PartNumber,
		Phase:      card.Phase,
		Status:     card.Status,
		Owner:      card.Owner,
		PPAP:       card.PPAP,
	}
}

// APQPHandler handles milestone board requests.
type APQPHandler struct {
	deps APQPDependencies
}

// NewAPQPHandler creates a new APQP handler.
func NewAPQPHandler(deps APQPDependencies) *APQPHandler {
	return &APQPHandler{deps: deps}
}

// HandlePostMilestone handles POST /apqp requests (upsert by part number).
func (h *APQPHandler) HandlePostMilestone(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_milestone"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req milestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	card := model.MilestoneCard{
		PartNumber: req.PartNumber,
		Phase:      req.Phase,
		Status:     req.Status,
		Owner:      req.Owner,
		PPAP:       req.PPAP,
	}
	if card.Status == "" {
		card.Status = model.MilestoneOnTrack
	}
	if err := h.deps.PutMilestone(r.Context(), card); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "stored"})
}

// HandleGetBoard handles GET /apqp/board requests.
func (h *APQPHandler) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	groups, err := h.deps.Board(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]boardGroupResponse, len(groups))
	for i, group := range groups {
		cards := make([]milestoneCardResponse, len(group.Cards))
		for j, card := range group.Cards {
			cards[j] = toCardResponse(card)
		}
		out[i] = boardGroupResponse{Phase: group.Phase, Cards: cards}
	}
	writeJSON(w, http.StatusOK, out)
}

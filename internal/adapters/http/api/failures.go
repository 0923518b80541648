// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kuiperworks/kerf/internal/domain/model"
	"github.com/kuiperworks/kerf/internal/domain/pareto"
)

// FailureDependencies defines the interface for the failure log.
type FailureDependencies interface {
	RecordFailure(ctx context.Context, failure model.FailureRecord) (model.FailureRecord, error)
	Failures(ctx context.Context, status string) ([]model.FailureRecord, error)
	Pareto(ctx context.Context, top int) ([]pareto.Entry, error)
}

// failureRequest mirrors the OpenAPI schema for POST /failures.
type failureRequest struct {
	ID         string `json:"id,omitempty"`
	PartNumber string `json:"part_number"`
	SupplierID string `json:"supplier_id"`
	Mode       string `json:"mode"`
	ReportedAt string `json:"reported_at,omitempty"`
	Status     string `json:"status,omitempty"`
}

func (r failureRequest) validate() error {
	switch {
	case strings.TrimSpace(r.SupplierID) == "":
		return errors.New("missing supplier_id")
	case strings.TrimSpace(r.Mode) == "":
		return errors.New("missing mode")
	}
	if r.Status != "" && !validFailureStatus(r.Status) {
		return errors.New("status must be open, analysis, or closed")
	}
	if r.ReportedAt != "" {
		if _, err := time.Parse(time.RFC3339, r.ReportedAt); err != nil {
			return errors.New("invalid reported_at; must be RFC3339")
		}
	}
	return nil
}

func validFailureStatus(status string) bool {
	return status == model.FailureOpen || status == model.FailureAnalysis || status == model.FailureClosed
}

// failureResponse is the read shape for a failure record.
type failureResponse struct {
	ID         string    `json:"id"`
	PartNumber string    `json:"part_number,omitempty"`
	SupplierID string    `json:"supplier_id"`
	Mode       string    `json:"mode"`
	ReportedAt time.Time `json:"reported_at"`
	Status     string    `json:"status"`
}

func toFailureResponse(f model.FailureRecord) failureResponse {
	return failureResponse{
		ID:         f.ID,
		PartNumber: f.PartNumber,
		SupplierID: f.SupplierID,
		Mode:       f.Mode,
		ReportedAt: f.ReportedAt,
		Status:     f.Status,
	}
}

// FailuresHandler handles failure log and Pareto requests.
type FailuresHandler struct {
	deps   FailureDependencies
	maxTop int
}

// NewFailuresHandler creates a new failures handler.
func NewFailuresHandler(deps FailureDependencies, maxTop int) *FailuresHandler {
	return &FailuresHandler{
		deps:   deps,
		maxTop: maxTop,
	}
}

// HandleFailures handles GET /failures?status=S and POST /failures requests.
func (h *FailuresHandler) HandleFailures(w http.ResponseWriter, r *http.Request) {
	const op = "api.failures"
	switch r.Method {
	case http.MethodGet:
		status := r.URL.Query().Get("status")
		if status != "" && !validFailureStatus(status) {
			writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest))
			return
		}
		failures, err := h.deps.Failures(r.Context(), status)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]failureResponse, len(failures))
		for i, f := range failures {
			out[i] = toFailureResponse(f)
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req failureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
			return
		}
		failure := model.FailureRecord{
			ID:         req.ID,
			PartNumber: req.PartNumber,
			SupplierID: req.SupplierID,
			Mode:       req.Mode,
			Status:     req.Status,
		}
		if req.ReportedAt != "" {
			failure.ReportedAt, _ = time.Parse(time.RFC3339, req.ReportedAt)
		}
		stored, err := h.deps.RecordFailure(r.Context(), failure)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toFailureResponse(stored))
	default:
		http.NotFound(w, r)
	}
}

// HandleGetPareto handles GET /pareto/failure-modes?top=N requests.
// top is optional; the domain default of five applies when absent.
func (h *FailuresHandler) HandleGetPareto(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_pareto"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	top := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest))
			return
		}
		if n > h.maxTop {
			writeError(w, http.StatusBadRequest, "top_exceeded", newKind(op, ErrBadRequest))
			return
		}
		top = n
	}
	entries, err := h.deps.Pareto(r.Context(), top)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kuiperworks/kerf/internal/domain/dedupe"
	"github.com/kuiperworks/kerf/internal/domain/model"
)

// LotDependencies defines the interface for lot ingest and lookup.
type LotDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, report model.LotReport) bool
	Lot(ctx context.Context, lotID string) (model.LotReport, error)
}

// lotReportRequest mirrors the OpenAPI schema for POST /lots.
type lotReportRequest struct {
	ReportID       string  `json:"report_id"`
	SupplierID     string  `json:"supplier_id"`
	LotID          string  `json:"lot_id"`
	PartNumber     string  `json:"part_number"`
	InspectionDate string  `json:"inspection_date"`
	LotSize        int     `json:"lot_size"`
	DefectCount    int     `json:"defect_count"`
	Yield          float64 `json:"yield,omitempty"`
}

func (r lotReportRequest) validate() error {
	switch {
	case strings.TrimSpace(r.ReportID) == "":
		return errors.New("missing report_id")
	case strings.TrimSpace(r.SupplierID) == "":
		return errors.New("missing supplier_id")
	case strings.TrimSpace(r.LotID) == "":
		return errors.New("missing lot_id")
	case strings.TrimSpace(r.InspectionDate) == "":
		return errors.New("missing inspection_date")
	case r.LotSize <= 0:
		return errors.New("lot_size must be positive")
	case r.DefectCount < 0 || r.DefectCount > r.LotSize:
		return errors.New("defect_count outside [0, lot_size]")
	case r.Yield < 0 || r.Yield > 1:
		return errors.New("yield outside [0, 1]")
	}
	if _, err := time.Parse(time.RFC3339, r.InspectionDate); err != nil {
		return errors.New("invalid inspection_date; must be RFC3339")
	}
	return nil
}

func (r lotReportRequest) toModel() model.LotReport {
	date, _ := time.Parse(time.RFC3339, r.InspectionDate)
	return model.LotReport{
		ReportID:       r.ReportID,
		SupplierID:     r.SupplierID,
		LotID:          r.LotID,
		PartNumber:     r.PartNumber,
		InspectionDate: date,
		LotSize:        r.LotSize,
		DefectCount:    r.DefectCount,
		Yield:          r.Yield,
	}
}

// lotResponse is the traceability read shape for a stored lot.
type lotResponse struct {
	ReportID       string    `json:"report_id"`
	SupplierID     string    `json:"supplier_id"`
	LotID          string    `json:"lot_id"`
	PartNumber     string    `json:"part_number,omitempty"`
	InspectionDate time.Time `json:"inspection_date"`
	LotSize        int       `json:"lot_size"`
	DefectCount    int       `json:"defect_count"`
	Proportion     float64   `json:"proportion_defective"`
	DPPM           float64   `json:"dppm"`
	Yield          float64   `json:"yield"`
	Flagged        bool      `json:"flagged"`
}

func toLotResponse(report model.LotReport) lotResponse { //nolint:gocritic // hugeParam: reports are passed by value throughout the pipeline
	return lotResponse{
		ReportID:       report.ReportID,
		SupplierID:     report.SupplierID,
		LotID:          report.LotID,
		PartNumber:     report.PartNumber,
		InspectionDate: report.InspectionDate,
		LotSize:        report.LotSize,
		DefectCount:    report.DefectCount,
		Proportion:     report.Proportion(),
		DPPM:           report.DPPM(),
		Yield:          report.Yield,
		Flagged:        report.Flagged,
	}
}

// LotsHandler handles lot report ingest and traceability lookups.
type LotsHandler struct {
	deps LotDependencies
}

// NewLotsHandler creates a new lots handler.
func NewLotsHandler(deps LotDependencies) *LotsHandler {
	return &LotsHandler{deps: deps}
}

// HandlePostLot handles POST /lots requests.
func (h *LotsHandler) HandlePostLot(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_lot"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req lotReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), req.ReportID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	// Try to enqueue for async evaluation
	if ok := h.deps.Enqueue(r.Context(), req.toModel()); !ok {
		// Roll back the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), req.ReportID)
		writeError(w, http.StatusTooManyRequests, "backpressure", newKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}

// HandleGetLot handles GET /lots/{lot_id} requests.
func (h *LotsHandler) HandleGetLot(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_lot"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	lotID := strings.TrimPrefix(r.URL.Path, "/lots/")
	if lotID == "" || strings.Contains(lotID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest))
		return
	}
	report, err := h.deps.Lot(r.Context(), lotID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLotResponse(report))
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kuiperworks/kerf/internal/domain/model"
	"github.com/kuiperworks/kerf/internal/domain/quality"
)

// ChartDependencies defines the interface for stored control charts.
type ChartDependencies interface {
	ControlChart(ctx context.Context, supplierID string, window int) ([]model.LotReport, quality.ControlLimitsResult, error)
}

// chartPoint is one plotted lot on the chart.
type chartPoint struct {
	LotID          string    `json:"lot_id"`
	InspectionDate time.Time `json:"inspection_date"`
	LotSize        int       `json:"lot_size"`
	DefectCount    int       `json:"defect_count"`
	Proportion     float64   `json:"proportion_defective"`
	OutOfControl   bool      `json:"out_of_control"`
}

// chartResponse is the read shape for GET /suppliers/{id}/control-chart.
type chartResponse struct {
	SupplierID  string       `json:"supplier_id"`
	CenterLine  float64      `json:"center_line"`
	UCL         float64      `json:"ucl"`
	LCL         float64      `json:"lcl"`
	MeanLotSize float64      `json:"mean_lot_size"`
	Points      []chartPoint `json:"points"`
}

// ControlChartHandler handles stored control chart requests.
type ControlChartHandler struct {
	deps      ChartDependencies
	maxWindow int
}

// NewControlChartHandler creates a new control chart handler.
func NewControlChartHandler(deps ChartDependencies, maxWindow int) *ControlChartHandler {
	return &ControlChartHandler{
		deps:      deps,
		maxWindow: maxWindow,
	}
}

// HandleGetChart handles GET /suppliers/{id}/control-chart?window=N requests.
// window is optional; zero means the configured control window.
func (h *ControlChartHandler) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_control_chart"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/suppliers/")
	supplierID := strings.TrimSuffix(rest, "/control-chart")
	if supplierID == "" || strings.Contains(supplierID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest))
		return
	}

	window := 0
	if raw := r.URL.Query().Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest))
			return
		}
		if n > h.maxWindow {
			writeError(w, http.StatusBadRequest, "window_exceeded", newKind(op, ErrBadRequest))
			return
		}
		window = n
	}

	history, limits, err := h.deps.ControlChart(r.Context(), supplierID, window)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := chartResponse{
		SupplierID:  supplierID,
		CenterLine:  limits.CenterLine,
		UCL:         limits.UCL,
		LCL:         limits.LCL,
		MeanLotSize: limits.MeanLotSize,
		Points:      make([]chartPoint, len(history)),
	}
	for i, report := range history {
		resp.Points[i] = chartPoint{
			LotID:          report.LotID,
			InspectionDate: report.InspectionDate,
			LotSize:        report.LotSize,
			DefectCount:    report.DefectCount,
			Proportion:     report.Proportion(),
			OutOfControl:   i < len(limits.Flags) && limits.Flags[i],
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	repository "github.com/kuiperworks/kerf/internal/adapters/repository"
	"github.com/kuiperworks/kerf/internal/domain/alerts"
	"github.com/kuiperworks/kerf/internal/domain/apqp"
	"github.com/kuiperworks/kerf/internal/domain/dedupe"
	"github.com/kuiperworks/kerf/internal/domain/model"
	"github.com/kuiperworks/kerf/internal/domain/pareto"
	"github.com/kuiperworks/kerf/internal/domain/quality"
	"github.com/kuiperworks/kerf/internal/domain/scorecard"
)

// Dependencies bundles everything the HTTP handlers need. Using an interface
// bundle keeps the handler layer loosely coupled to implementations in other
// packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a lot report for async evaluation. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, report model.LotReport) bool

	// Supplier registry.
	PutSupplier(ctx context.Context, supplier model.Supplier) error
	Supplier(ctx context.Context, id string) (model.Supplier, error)
	Suppliers(ctx context.Context) ([]model.Supplier, error)

	// Lot traceability and stored control charts.
	Lot(ctx context.Context, lotID string) (model.LotReport, error)
	ControlChart(ctx context.Context, supplierID string, window int) ([]model.LotReport, quality.ControlLimitsResult, error)

	// Failure log.
	RecordFailure(ctx context.Context, failure model.FailureRecord) (model.FailureRecord, error)
	Failures(ctx context.Context, status string) ([]model.FailureRecord, error)
	Pareto(ctx context.Context, top int) ([]pareto.Entry, error)

	// APQP board.
	PutMilestone(ctx context.Context, card model.MilestoneCard) error
	Board(ctx context.Context) ([]apqp.PhaseGroup, error)

	// Read-side analytics.
	Scorecard(ctx context.Context) ([]scorecard.Card, error)
	Summary(ctx context.Context) (scorecard.Summary, error)
	RecentAlerts(ctx context.Context, limit int) []alerts.Alert
	Rank(ctx context.Context, candidates []quality.Candidate, weights map[string]int) ([]quality.RankedCandidate, error)
}

// Limits caps the tunable request parameters.
type Limits struct {
	MaxChartWindow       int
	MaxParetoTop         int
	MaxRankingCandidates int
	MaxAlertLimit        int
}

// DefaultLimits returns the stock request caps.
func DefaultLimits() Limits {
	return Limits{
		MaxChartWindow:       200,
		MaxParetoTop:         50,
		MaxRankingCandidates: 100,
		MaxAlertLimit:        256,
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	lotsHandler       *LotsHandler
	suppliersHandler  *SuppliersHandler
	chartHandler      *ControlChartHandler
	scorecardHandler  *ScorecardHandler
	failuresHandler   *FailuresHandler
	apqpHandler       *APQPHandler
	alertsHandler     *AlertsHandler
	calculatorHandler *CalculatorHandler
	dashboardHandler  *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, limits Limits) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		lotsHandler:       NewLotsHandler(deps),
		suppliersHandler:  NewSuppliersHandler(deps),
		chartHandler:      NewControlChartHandler(deps, limits.MaxChartWindow),
		scorecardHandler:  NewScorecardHandler(deps),
		failuresHandler:   NewFailuresHandler(deps, limits.MaxParetoTop),
		apqpHandler:       NewAPQPHandler(deps),
		alertsHandler:     NewAlertsHandler(deps, limits.MaxAlertLimit),
		calculatorHandler: NewCalculatorHandler(deps, limits.MaxRankingCandidates),
		dashboardHandler:  newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/lots", MetricsMiddleware(s.lotsHandler.HandlePostLot, "lots"))
	mux.HandleFunc("/lots/", MetricsMiddleware(s.lotsHandler.HandleGetLot, "lot_lookup"))
	mux.HandleFunc("/suppliers", MetricsMiddleware(s.suppliersHandler.HandleSuppliers, "suppliers"))
	mux.HandleFunc("/suppliers/", MetricsMiddleware(s.routeSupplierSubtree, "supplier"))
	mux.HandleFunc("/scorecard", MetricsMiddleware(s.scorecardHandler.HandleGetScorecard, "scorecard"))
	mux.HandleFunc("/summary", MetricsMiddleware(s.scorecardHandler.HandleGetSummary, "summary"))
	mux.HandleFunc("/failures", MetricsMiddleware(s.failuresHandler.HandleFailures, "failures"))
	mux.HandleFunc("/pareto/failure-modes", MetricsMiddleware(s.failuresHandler.HandleGetPareto, "pareto"))
	mux.HandleFunc("/apqp", MetricsMiddleware(s.apqpHandler.HandlePostMilestone, "apqp"))
	mux.HandleFunc("/apqp/board", MetricsMiddleware(s.apqpHandler.HandleGetBoard, "apqp_board"))
	mux.HandleFunc("/alerts", MetricsMiddleware(s.alertsHandler.HandleGetAlerts, "alerts"))
	mux.HandleFunc("/spc/control-limits", MetricsMiddleware(s.calculatorHandler.HandleControlLimits, "spc_control_limits"))
	mux.HandleFunc("/capability", MetricsMiddleware(s.calculatorHandler.HandleCapability, "capability"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.calculatorHandler.HandleRankings, "rankings"))
}

// routeSupplierSubtree splits /suppliers/{id} from
// /suppliers/{id}/control-chart; ServeMux patterns alone cannot tell the
// two apart.
func (s *Server) routeSupplierSubtree(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/control-chart") {
		s.chartHandler.HandleGetChart(w, r)
		return
	}
	s.suppliersHandler.HandleSupplierSubtree(w, r)
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates sentinel kinds from the domain and store
// layers into HTTP statuses with a stable error code.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quality.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrNoData):
		writeError(w, http.StatusConflict, "no_data", err)
	case errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

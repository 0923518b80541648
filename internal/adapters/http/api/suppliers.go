// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kuiperworks/kerf/internal/domain/model"
)

// SupplierDependencies defines the interface for the supplier registry.
type SupplierDependencies interface {
	PutSupplier(ctx context.Context, supplier model.Supplier) error
	Supplier(ctx context.Context, id string) (model.Supplier, error)
	Suppliers(ctx context.Context) ([]model.Supplier, error)
}

// supplierRequest mirrors the OpenAPI schema for POST /suppliers.
type supplierRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Location    string `json:"location,omitempty"`
	HealthScore int    `json:"health_score"`
	CertStatus  string `json:"cert_status,omitempty"`
}

// Health scores share the 0-100 scale with ranking sub-scores.
const maxHealthScore = 100

func (r supplierRequest) validate() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return errors.New("missing id")
	case strings.TrimSpace(r.Name) == "":
		return errors.New("missing name")
	case r.Type != model.SupplierFoundry && r.Type != model.SupplierOSAT:
		return errors.New("type must be foundry or osat")
	case r.HealthScore < 0 || r.HealthScore > maxHealthScore:
		return errors.New("health_score outside [0, 100]")
	}
	return nil
}

// supplierResponse is the read shape for a supplier.
type supplierResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Location    string `json:"location,omitempty"`
	HealthScore int    `json:"health_score"`
	CertStatus  string `json:"cert_status,omitempty"`
}

func toSupplierResponse(s model.Supplier) supplierResponse {
	return supplierResponse{
		ID:          s.ID,
		Name:        s.Name,
		Type:        s.Type,
		Location:    s.Location,
		HealthScore: s.HealthScore,
		CertStatus:  s.CertStatus,
	}
}

// SuppliersHandler handles supplier registry requests.
type SuppliersHandler struct {
	deps SupplierDependencies
}

// NewSuppliersHandler creates a new suppliers handler.
func NewSuppliersHandler(deps SupplierDependencies) *SuppliersHandler {
	return &SuppliersHandler{deps: deps}
}

// HandleSuppliers handles GET /suppliers and POST /suppliers requests.
func (h *SuppliersHandler) HandleSuppliers(w http.ResponseWriter, r *http.Request) {
	const op = "api.suppliers"
	switch r.Method {
	case http.MethodGet:
		suppliers, err := h.deps.Suppliers(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]supplierResponse, len(suppliers))
		for i, s := range suppliers {
			out[i] = toSupplierResponse(s)
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req supplierRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
			return
		}
		supplier := model.Supplier{
			ID:          req.ID,
			Name:        req.Name,
			Type:        req.Type,
			Location:    req.Location,
			HealthScore: req.HealthScore,
			CertStatus:  req.CertStatus,
		}
		if err := h.deps.PutSupplier(r.Context(), supplier); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSupplierResponse(supplier))
	default:
		http.NotFound(w, r)
	}
}

// HandleSupplierSubtree handles GET /suppliers/{id} and dispatches
// GET /suppliers/{id}/control-chart to the chart handler.
func (h *SuppliersHandler) HandleSupplierSubtree(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_supplier"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/suppliers/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest))
		return
	}
	if strings.Contains(rest, "/") {
		// Nested resources are dispatched before this handler; anything
		// that lands here is an unknown subpath.
		http.NotFound(w, r)
		return
	}
	supplier, err := h.deps.Supplier(r.Context(), rest)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSupplierResponse(supplier))
}

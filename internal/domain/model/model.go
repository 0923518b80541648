// Package model contains domain models passed between layers.
package model

import "time"

// LotReport is an inspected lot submitted by a supplier feed.
type LotReport struct {
	ReportID       string // unique id for idempotency
	SupplierID     string // reporting supplier identifier
	LotID          string // manufacturing lot identifier
	PartNumber     string
	InspectionDate time.Time
	LotSize        int     // units inspected
	DefectCount    int     // defective units found
	Yield          float64 // fraction good, derived as 1-p when the feed omits it
	Flagged        bool    // outside control limits when evaluated
}

// Proportion returns the fraction defective, zero for an empty lot.
func (r LotReport) Proportion() float64 {
	if r.LotSize <= 0 {
		return 0
	}
	return float64(r.DefectCount) / float64(r.LotSize)
}

// DPPM returns the defect rate in defects per million parts.
func (r LotReport) DPPM() float64 {
	return r.Proportion() * 1e6
}

// Supplier is a vendor tracked by the quality program. Upserted whole.
type Supplier struct {
	ID          string
	Name        string
	Type        string // SupplierFoundry | SupplierOSAT
	Location    string
	HealthScore int    // composite 0-100
	CertStatus  string // e.g. "AS9100D", "in-progress"
}

// Supplier types.
const (
	SupplierFoundry = "foundry"
	SupplierOSAT    = "osat"
)

// FailureRecord tracks a reported quality issue.
type FailureRecord struct {
	ID         string
	PartNumber string
	SupplierID string
	Mode       string // failure mode, e.g. "wire bond lift"
	ReportedAt time.Time
	Status     string // FailureOpen | FailureAnalysis | FailureClosed
}

// Failure record lifecycle states.
const (
	FailureOpen     = "open"
	FailureAnalysis = "analysis"
	FailureClosed   = "closed"
)

// MilestoneCard tracks one part's APQP milestone and its PPAP checklist.
type MilestoneCard struct {
	PartNumber string
	Phase      string // one of the APQP phases below
	Status     string // MilestoneOnTrack | MilestoneAtRisk | MilestoneApproved
	Owner      string
	PPAP       map[string]string // checklist element -> element status
}

// APQP phase names in program order.
const (
	PhasePlanning      = "planning"
	PhaseProductDesign = "product-design"
	PhaseProcessDesign = "process-design"
	PhaseValidation    = "validation"
	PhaseProduction    = "production"
)

// Phases lists the APQP phases in program order.
func Phases() []string {
	return []string{PhasePlanning, PhaseProductDesign, PhaseProcessDesign, PhaseValidation, PhaseProduction}
}

// Milestone states.
const (
	MilestoneOnTrack  = "on-track"
	MilestoneAtRisk   = "at-risk"
	MilestoneApproved = "approved"
)

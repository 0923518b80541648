// Package repository defines the supplier quality store interface and errors.
package repository

import (
	"context"

	"github.com/kuiperworks/kerf/internal/domain/model"
)

// Store provides read/write access to the supplier quality state.
type Store interface {
	// PutSupplier inserts or replaces a supplier.
	PutSupplier(ctx context.Context, supplier model.Supplier) error

	// Supplier returns a supplier by ID.
	// Returns ErrNotFound if the supplier is unknown.
	Supplier(ctx context.Context, id string) (model.Supplier, error)

	// Suppliers returns all registered suppliers ordered by ID.
	Suppliers(ctx context.Context) ([]model.Supplier, error)

	// SupplierCount returns the number of registered suppliers.
	SupplierCount(ctx context.Context) int

	// AppendLot records an inspected lot for its supplier, trimming the
	// supplier's history beyond the configured retention.
	AppendLot(ctx context.Context, report model.LotReport) error

	// LotsBySupplier returns up to window most recent lot reports for the
	// supplier in arrival order. window == 0 means all retained reports.
	// Returns ErrNotFound for an unknown supplier, ErrNoData when the
	// supplier has no reports yet, and ErrInvalidLimit for a negative window.
	LotsBySupplier(ctx context.Context, supplierID string, window int) ([]model.LotReport, error)

	// Lot returns the most recent report for a lot ID.
	// Returns ErrNotFound if the lot is unknown.
	Lot(ctx context.Context, lotID string) (model.LotReport, error)

	// SetLotFlag records the control evaluation outcome for a stored lot.
	// Returns ErrNotFound if the lot is unknown.
	SetLotFlag(ctx context.Context, lotID string, flagged bool) error

	// LotCount returns the number of retained lot reports across suppliers.
	LotCount(ctx context.Context) int

	// AppendFailure records a failure record, replacing any record with
	// the same ID.
	AppendFailure(ctx context.Context, failure model.FailureRecord) error

	// Failures returns failure records newest first. A non-empty status
	// restricts the listing to that lifecycle status.
	Failures(ctx context.Context, status string) ([]model.FailureRecord, error)

	// OpenFailureCount returns the number of records not yet closed.
	OpenFailureCount(ctx context.Context) int

	// PutMilestone inserts or replaces the milestone card for a part number.
	PutMilestone(ctx context.Context, card model.MilestoneCard) error

	// Milestones returns all milestone cards ordered by part number.
	Milestones(ctx context.Context) ([]model.MilestoneCard, error)

	// MilestoneCount returns the number of milestone cards.
	MilestoneCount(ctx context.Context) int
}

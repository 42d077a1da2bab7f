// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"milklog/internal/model"
)

// RecordRepository provides owner-scoped access to milk records.
type RecordRepository interface {
	// Create inserts a new record and returns its id.
	Create(ctx context.Context, r *model.MilkRecord) (int64, error)

	// CreateBatch inserts records atomically (bulk add, CSV import).
	CreateBatch(ctx context.Context, recs []model.MilkRecord) error

	// Recent returns the newest non-deleted records, newest first.
	Recent(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.MilkRecord, error)

	// Update applies an inline edit to a non-deleted record.
	Update(ctx context.Context, ownerID uuid.UUID, id int64, upd model.RecordUpdate) error

	// SetDeleted flips the soft-delete tombstone (delete or restore).
	SetDeleted(ctx context.Context, ownerID uuid.UUID, id int64, deleted bool) error

	// DistinctDates returns distinct non-deleted record dates, newest first,
	// limited to limit.
	DistinctDates(ctx context.Context, ownerID uuid.UUID, limit int) ([]string, error)

	// SumByCowDateSession returns summed litres grouped by (cow, date, session)
	// for records falling on the given dates.
	SumByCowDateSession(ctx context.Context, ownerID uuid.UUID, dates []string) ([]model.PivotSum, error)

	// AllForExport returns every non-deleted record for the owner.
	AllForExport(ctx context.Context, ownerID uuid.UUID) ([]model.MilkRecord, error)

	// ClaimLegacy assigns ownerless rows to the given owner and reports how
	// many rows were claimed.
	ClaimLegacy(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

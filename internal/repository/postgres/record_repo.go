package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"milklog/internal/errs"
	"milklog/internal/model"
)

// RecordRepo implements RecordRepository using PostgreSQL.
type RecordRepo struct{ db *DB }

// NewRecordRepo constructs a milk record repository.
func NewRecordRepo(db *DB) *RecordRepo { return &RecordRepo{db: db} }

const recordColumns = `id, owner_id, cow_tag, litres, record_date, session, note, tags, price_per_litre, deleted, created_at, updated_at`

// Create inserts a new record and returns its id.
func (r *RecordRepo) Create(ctx context.Context, rec *model.MilkRecord) (int64, error) {
	const q = `
INSERT INTO milk_records (owner_id, cow_tag, litres, record_date, session, note, tags, price_per_litre)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id`
	var id int64
	err := r.db.Pool.QueryRow(ctx, q,
		rec.OwnerID, rec.CowTag, rec.Litres, rec.RecordDate, string(rec.Session),
		rec.Note, rec.Tags, rec.PricePerLitre,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CreateBatch inserts records in one transaction; any failure rolls back all.
func (r *RecordRepo) CreateBatch(ctx context.Context, recs []model.MilkRecord) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const ins = `
INSERT INTO milk_records (owner_id, cow_tag, litres, record_date, session, note, tags, price_per_litre)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	for i := range recs {
		rec := &recs[i]
		if _, err = tx.Exec(ctx, ins,
			rec.OwnerID, rec.CowTag, rec.Litres, rec.RecordDate, string(rec.Session),
			rec.Note, rec.Tags, rec.PricePerLitre,
		); err != nil {
			return fmt.Errorf("record[%d]: %w", i, err)
		}
	}
	return nil
}

// Recent returns the newest non-deleted records, newest first.
func (r *RecordRepo) Recent(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.MilkRecord, error) {
	q := `
SELECT ` + recordColumns + `
FROM milk_records
WHERE owner_id=$1 AND deleted=false
ORDER BY id DESC
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Update applies an inline edit to a non-deleted record.
func (r *RecordRepo) Update(ctx context.Context, ownerID uuid.UUID, id int64, upd model.RecordUpdate) error {
	const q = `
UPDATE milk_records
SET litres=$3, session=$4, note=$5, tags=$6, price_per_litre=$7, updated_at=now()
WHERE owner_id=$1 AND id=$2 AND deleted=false`
	tag, err := r.db.Pool.Exec(ctx, q,
		ownerID, id, upd.Litres, string(upd.Session), upd.Note, upd.Tags, upd.PricePerLitre,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetDeleted flips the soft-delete tombstone.
func (r *RecordRepo) SetDeleted(ctx context.Context, ownerID uuid.UUID, id int64, deleted bool) error {
	const q = `
UPDATE milk_records SET deleted=$3, updated_at=now()
WHERE owner_id=$1 AND id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, ownerID, id, deleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DistinctDates returns distinct non-deleted record dates, newest first.
func (r *RecordRepo) DistinctDates(ctx context.Context, ownerID uuid.UUID, limit int) ([]string, error) {
	const q = `
SELECT DISTINCT record_date
FROM milk_records
WHERE owner_id=$1 AND deleted=false
ORDER BY record_date DESC
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d time.Time
		if err = rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d.Format(model.DateLayout))
	}
	return out, rows.Err()
}

// SumByCowDateSession returns summed litres grouped by (cow, date, session).
func (r *RecordRepo) SumByCowDateSession(ctx context.Context, ownerID uuid.UUID, dates []string) ([]model.PivotSum, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	clause, dateArgs := InClause(2, dates)
	q := fmt.Sprintf(`
SELECT cow_tag, record_date, session, SUM(litres)
FROM milk_records
WHERE owner_id=$1 AND deleted=false AND record_date IN (%s)
GROUP BY cow_tag, record_date, session`, clause)

	args := append([]any{ownerID}, dateArgs...)
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PivotSum
	for rows.Next() {
		var (
			tag     string
			date    time.Time
			session string
			litres  float64
		)
		if err = rows.Scan(&tag, &date, &session, &litres); err != nil {
			return nil, err
		}
		out = append(out, model.PivotSum{
			CowTag:  tag,
			Date:    date.Format(model.DateLayout),
			Session: model.Session(session),
			Litres:  litres,
		})
	}
	return out, rows.Err()
}

// AllForExport returns every non-deleted record for the owner, oldest first.
func (r *RecordRepo) AllForExport(ctx context.Context, ownerID uuid.UUID) ([]model.MilkRecord, error) {
	q := `
SELECT ` + recordColumns + `
FROM milk_records
WHERE owner_id=$1 AND deleted=false
ORDER BY id ASC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ClaimLegacy assigns ownerless rows to the given owner.
func (r *RecordRepo) ClaimLegacy(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	const q = `UPDATE milk_records SET owner_id=$1 WHERE owner_id IS NULL`
	tag, err := r.db.Pool.Exec(ctx, q, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRecords(rows pgx.Rows) ([]model.MilkRecord, error) {
	var out []model.MilkRecord
	for rows.Next() {
		var (
			rec     model.MilkRecord
			owner   *uuid.UUID
			date    time.Time
			session string
		)
		if err := rows.Scan(
			&rec.ID, &owner, &rec.CowTag, &rec.Litres, &date, &session,
			&rec.Note, &rec.Tags, &rec.PricePerLitre, &rec.Deleted,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if owner != nil {
			rec.OwnerID = *owner
		}
		rec.RecordDate = date.Format(model.DateLayout)
		rec.Session = model.Session(session)
		out = append(out, rec)
	}
	return out, rows.Err()
}

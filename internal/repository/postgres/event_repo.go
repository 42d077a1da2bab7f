package postgres

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"milklog/internal/model"
)

// EventRepo implements EventRepository using PostgreSQL. Events are
// append-only: there are no update or delete statements here.
type EventRepo struct{ db *DB }

// NewEventRepo constructs an event repository.
func NewEventRepo(db *DB) *EventRepo { return &EventRepo{db: db} }

// AddHealth appends a health event.
func (r *EventRepo) AddHealth(ctx context.Context, e *model.HealthEvent) (int64, error) {
	const q = `
INSERT INTO health_events (owner_id, cow_tag, event_date, event_type, withdrawal_until, details)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id`
	var id int64
	err := r.db.Pool.QueryRow(ctx, q,
		e.OwnerID, e.CowTag, e.EventDate, e.EventType, e.WithdrawalUntil, e.Details,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListHealth returns the owner's health events, newest event date first.
func (r *EventRepo) ListHealth(ctx context.Context, ownerID uuid.UUID) ([]model.HealthEvent, error) {
	const q = `
SELECT id, owner_id, cow_tag, event_date, event_type, withdrawal_until, details, created_at
FROM health_events
WHERE owner_id=$1
ORDER BY event_date DESC, id DESC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHealthEvents(rows)
}

// ActiveWithdrawals returns health events whose withdrawal period covers today.
func (r *EventRepo) ActiveWithdrawals(ctx context.Context, ownerID uuid.UUID, today string) ([]model.HealthEvent, error) {
	const q = `
SELECT id, owner_id, cow_tag, event_date, event_type, withdrawal_until, details, created_at
FROM health_events
WHERE owner_id=$1 AND withdrawal_until IS NOT NULL AND withdrawal_until >= $2
ORDER BY withdrawal_until ASC, id ASC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHealthEvents(rows)
}

// AddBreeding appends a breeding event.
func (r *EventRepo) AddBreeding(ctx context.Context, e *model.BreedingEvent) (int64, error) {
	const q = `
INSERT INTO breeding_events (owner_id, cow_tag, event_date, event_type, sire, protocol, details)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id`
	var id int64
	err := r.db.Pool.QueryRow(ctx, q,
		e.OwnerID, e.CowTag, e.EventDate, e.EventType, e.Sire, e.Protocol, e.Details,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListBreeding returns the owner's breeding events, newest event date first.
func (r *EventRepo) ListBreeding(ctx context.Context, ownerID uuid.UUID) ([]model.BreedingEvent, error) {
	const q = `
SELECT id, owner_id, cow_tag, event_date, event_type, sire, protocol, details, created_at
FROM breeding_events
WHERE owner_id=$1
ORDER BY event_date DESC, id DESC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BreedingEvent
	for rows.Next() {
		var (
			e     model.BreedingEvent
			owner *uuid.UUID
			date  time.Time
		)
		if err = rows.Scan(
			&e.ID, &owner, &e.CowTag, &date, &e.EventType,
			&e.Sire, &e.Protocol, &e.Details, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if owner != nil {
			e.OwnerID = *owner
		}
		e.EventDate = date.Format(model.DateLayout)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClaimLegacy assigns ownerless rows of both event tables to the owner.
func (r *EventRepo) ClaimLegacy(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var claimed int64
	for _, q := range []string{
		`UPDATE health_events SET owner_id=$1 WHERE owner_id IS NULL`,
		`UPDATE breeding_events SET owner_id=$1 WHERE owner_id IS NULL`,
	} {
		tag, err := r.db.Pool.Exec(ctx, q, ownerID)
		if err != nil {
			return claimed, err
		}
		claimed += tag.RowsAffected()
	}
	return claimed, nil
}

func scanHealthEvents(rows pgx.Rows) ([]model.HealthEvent, error) {
	var out []model.HealthEvent
	for rows.Next() {
		var (
			e          model.HealthEvent
			owner      *uuid.UUID
			date       time.Time
			withdrawal *time.Time
		)
		if err := rows.Scan(
			&e.ID, &owner, &e.CowTag, &date, &e.EventType,
			&withdrawal, &e.Details, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if owner != nil {
			e.OwnerID = *owner
		}
		e.EventDate = date.Format(model.DateLayout)
		e.WithdrawalUntil = formatDate(withdrawal)
		out = append(out, e)
	}
	return out, rows.Err()
}

package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"milklog/internal/model"
)

// EventRepository provides append-only access to health and breeding events.
type EventRepository interface {
	// AddHealth appends a health event and returns its id.
	AddHealth(ctx context.Context, e *model.HealthEvent) (int64, error)

	// ListHealth returns the owner's health events, newest event date first.
	ListHealth(ctx context.Context, ownerID uuid.UUID) ([]model.HealthEvent, error)

	// ActiveWithdrawals returns health events whose withdrawal period covers
	// today (withdrawal_until >= today).
	ActiveWithdrawals(ctx context.Context, ownerID uuid.UUID, today string) ([]model.HealthEvent, error)

	// AddBreeding appends a breeding event and returns its id.
	AddBreeding(ctx context.Context, e *model.BreedingEvent) (int64, error)

	// ListBreeding returns the owner's breeding events, newest event date first.
	ListBreeding(ctx context.Context, ownerID uuid.UUID) ([]model.BreedingEvent, error)

	// ClaimLegacy assigns ownerless rows of both event tables to the owner.
	ClaimLegacy(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"milklog/internal/errs"
	"milklog/internal/model"
	"milklog/internal/repository"
)

// EventService manages the append-only health and breeding logs.
type EventService interface {
	// AddHealth appends a health event and returns its id.
	AddHealth(ctx context.Context, ownerID uuid.UUID, e model.HealthEvent) (int64, error)
	// ListHealth returns the owner's health events, newest first.
	ListHealth(ctx context.Context, ownerID uuid.UUID) ([]model.HealthEvent, error)
	// AddBreeding appends a breeding event and returns its id.
	AddBreeding(ctx context.Context, ownerID uuid.UUID, e model.BreedingEvent) (int64, error)
	// ListBreeding returns the owner's breeding events, newest first.
	ListBreeding(ctx context.Context, ownerID uuid.UUID) ([]model.BreedingEvent, error)
	// Alerts returns health events whose milk-withdrawal period is still
	// running today.
	Alerts(ctx context.Context, ownerID uuid.UUID) ([]model.HealthEvent, error)
}

type EventServiceImpl struct {
	repo repository.EventRepository
	now  func() time.Time
}

// NewEventService constructs EventService.
func NewEventService(repo repository.EventRepository) *EventServiceImpl {
	return &EventServiceImpl{repo: repo, now: time.Now}
}

func validateEventCommon(cowTag, eventDate, eventType string) error {
	if strings.TrimSpace(cowTag) == "" {
		return fmt.Errorf("%w: empty cow tag", errs.ErrValidation)
	}
	if _, err := time.Parse(model.DateLayout, eventDate); err != nil {
		return fmt.Errorf("%w: bad date %q", errs.ErrValidation, eventDate)
	}
	if strings.TrimSpace(eventType) == "" {
		return fmt.Errorf("%w: empty event type", errs.ErrValidation)
	}
	return nil
}

// AddHealth validates and appends a health event.
func (s *EventServiceImpl) AddHealth(ctx context.Context, ownerID uuid.UUID, e model.HealthEvent) (int64, error) {
	if ownerID == uuid.Nil {
		return 0, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	if err := validateEventCommon(e.CowTag, e.EventDate, e.EventType); err != nil {
		return 0, err
	}
	if e.WithdrawalUntil != nil {
		if _, err := time.Parse(model.DateLayout, *e.WithdrawalUntil); err != nil {
			return 0, fmt.Errorf("%w: bad withdrawal date %q", errs.ErrValidation, *e.WithdrawalUntil)
		}
	}
	e.OwnerID = ownerID
	e.CowTag = strings.TrimSpace(e.CowTag)
	return s.repo.AddHealth(ctx, &e)
}

// ListHealth returns the owner's health log.
func (s *EventServiceImpl) ListHealth(ctx context.Context, ownerID uuid.UUID) ([]model.HealthEvent, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	return s.repo.ListHealth(ctx, ownerID)
}

// AddBreeding validates and appends a breeding event.
func (s *EventServiceImpl) AddBreeding(ctx context.Context, ownerID uuid.UUID, e model.BreedingEvent) (int64, error) {
	if ownerID == uuid.Nil {
		return 0, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	if err := validateEventCommon(e.CowTag, e.EventDate, e.EventType); err != nil {
		return 0, err
	}
	e.OwnerID = ownerID
	e.CowTag = strings.TrimSpace(e.CowTag)
	return s.repo.AddBreeding(ctx, &e)
}

// ListBreeding returns the owner's breeding log.
func (s *EventServiceImpl) ListBreeding(ctx context.Context, ownerID uuid.UUID) ([]model.BreedingEvent, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	return s.repo.ListBreeding(ctx, ownerID)
}

// Alerts returns events whose withdrawal_until covers today.
func (s *EventServiceImpl) Alerts(ctx context.Context, ownerID uuid.UUID) ([]model.HealthEvent, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	today := s.now().Format(model.DateLayout)
	return s.repo.ActiveWithdrawals(ctx, ownerID, today)
}

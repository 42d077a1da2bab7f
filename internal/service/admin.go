package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"milklog/internal/errs"
	"milklog/internal/repository"
)

// AdminService covers maintenance operations available to tenant admins.
type AdminService interface {
	// ClaimLegacy assigns every ownerless row (records, cows, events) to the
	// given owner and reports how many rows were claimed per kind.
	ClaimLegacy(ctx context.Context, ownerID uuid.UUID) (ClaimResult, error)
}

// ClaimResult counts rows adopted by a legacy claim.
type ClaimResult struct {
	Records int64 `json:"records"`
	Cows    int64 `json:"cows"`
	Events  int64 `json:"events"`
}

type AdminServiceImpl struct {
	records repository.RecordRepository
	cows    repository.CowRepository
	events  repository.EventRepository
}

// NewAdminService constructs AdminService.
func NewAdminService(records repository.RecordRepository, cows repository.CowRepository, events repository.EventRepository) *AdminServiceImpl {
	return &AdminServiceImpl{records: records, cows: cows, events: events}
}

// ClaimLegacy walks the three row kinds in order; a failure midway returns
// the error with whatever was already claimed still committed (the operation
// is idempotent, rerunning finishes the job).
func (s *AdminServiceImpl) ClaimLegacy(ctx context.Context, ownerID uuid.UUID) (ClaimResult, error) {
	if ownerID == uuid.Nil {
		return ClaimResult{}, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	var res ClaimResult
	var err error
	if res.Records, err = s.records.ClaimLegacy(ctx, ownerID); err != nil {
		return res, err
	}
	if res.Cows, err = s.cows.ClaimLegacy(ctx, ownerID); err != nil {
		return res, err
	}
	if res.Events, err = s.events.ClaimLegacy(ctx, ownerID); err != nil {
		return res, err
	}
	return res, nil
}

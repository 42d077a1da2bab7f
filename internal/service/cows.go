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

// CowService manages the cow registry.
type CowService interface {
	// Upsert inserts the cow or refreshes its descriptive fields when the
	// (owner, tag) pair already exists.
	Upsert(ctx context.Context, ownerID uuid.UUID, c model.Cow) error
	// List returns the owner's cows ordered by tag.
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Cow, error)
}

type CowServiceImpl struct {
	repo repository.CowRepository
}

// NewCowService constructs CowService.
func NewCowService(repo repository.CowRepository) *CowServiceImpl {
	return &CowServiceImpl{repo: repo}
}

// Upsert validates the tag and optional dates, then delegates to the
// conflict-aware insert.
func (s *CowServiceImpl) Upsert(ctx context.Context, ownerID uuid.UUID, c model.Cow) error {
	if ownerID == uuid.Nil {
		return fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	c.Tag = strings.TrimSpace(c.Tag)
	if c.Tag == "" {
		return fmt.Errorf("%w: empty tag", errs.ErrValidation)
	}
	if c.Parity != nil && *c.Parity < 0 {
		return fmt.Errorf("%w: parity must be >= 0", errs.ErrValidation)
	}
	for _, d := range []*string{c.DOB, c.LatestCalving} {
		if d == nil {
			continue
		}
		if _, err := time.Parse(model.DateLayout, *d); err != nil {
			return fmt.Errorf("%w: bad date %q", errs.ErrValidation, *d)
		}
	}
	c.OwnerID = ownerID
	return s.repo.Upsert(ctx, &c)
}

// List returns the owner's cows.
func (s *CowServiceImpl) List(ctx context.Context, ownerID uuid.UUID) ([]model.Cow, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	return s.repo.List(ctx, ownerID)
}

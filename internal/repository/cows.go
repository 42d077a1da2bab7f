package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"milklog/internal/model"
)

// CowRepository provides access to the cow registry.
type CowRepository interface {
	// Upsert inserts the cow or, on a (owner, tag) conflict, updates the
	// descriptive fields.
	Upsert(ctx context.Context, c *model.Cow) error

	// List returns the owner's cows ordered by tag.
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Cow, error)

	// ClaimLegacy assigns ownerless rows to the given owner.
	ClaimLegacy(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

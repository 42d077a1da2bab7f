package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"milklog/internal/model"
)

// UserRepository provides access to tenants and their user accounts.
type UserRepository interface {
	// CreateTenant inserts a new tenant.
	CreateTenant(ctx context.Context, t *model.Tenant) error

	// GetTenantBySlug loads a tenant by its unique slug.
	GetTenantBySlug(ctx context.Context, slug string) (*model.Tenant, error)

	// CreateUser inserts a new user.
	CreateUser(ctx context.Context, u *model.User) error

	// GetByEmail loads a user by email within a tenant.
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*model.User, error)

	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// CountInTenant returns how many users a tenant has.
	CountInTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// ListInTenant returns a tenant's users ordered by creation time.
	ListInTenant(ctx context.Context, tenantID uuid.UUID) ([]model.User, error)
}

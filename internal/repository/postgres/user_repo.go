package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"milklog/internal/errs"
	"milklog/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// CreateTenant inserts a new tenant.
func (r *UserRepo) CreateTenant(ctx context.Context, t *model.Tenant) error {
	const q = `INSERT INTO tenants (id, slug, name) VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, t.ID, t.Slug, t.Name)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetTenantBySlug loads a tenant by its unique slug.
func (r *UserRepo) GetTenantBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	const q = `SELECT id, slug, name, created_at FROM tenants WHERE slug=$1`
	var t model.Tenant
	err := r.db.Pool.QueryRow(ctx, q, slug).Scan(&t.ID, &t.Slug, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// CreateUser inserts a new user row.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, tenant_id, email, pwd_hash, salt_auth, external_subject, role)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.db.Pool.Exec(ctx, q,
		u.ID, u.TenantID, u.Email, u.PwdHash, u.SaltAuth, u.ExternalSubject, string(u.Role),
	)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

const userColumns = `id, tenant_id, email, pwd_hash, salt_auth, external_subject, role, created_at`

// GetByEmail loads a user by email within a tenant.
func (r *UserRepo) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE tenant_id=$1 AND email=$2`
	return r.scanUser(r.db.Pool.QueryRow(ctx, q, tenantID, email))
}

// GetByID loads a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// CountInTenant returns how many users a tenant has.
func (r *UserRepo) CountInTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	const q = `SELECT COUNT(*) FROM users WHERE tenant_id=$1`
	var n int64
	if err := r.db.Pool.QueryRow(ctx, q, tenantID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListInTenant returns a tenant's users ordered by creation time.
func (r *UserRepo) ListInTenant(ctx context.Context, tenantID uuid.UUID) ([]model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE tenant_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var (
			u    model.User
			role string
		)
		if err = rows.Scan(
			&u.ID, &u.TenantID, &u.Email, &u.PwdHash, &u.SaltAuth,
			&u.ExternalSubject, &role, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		u.Role = model.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := row.Scan(
		&u.ID, &u.TenantID, &u.Email, &u.PwdHash, &u.SaltAuth,
		&u.ExternalSubject, &role, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

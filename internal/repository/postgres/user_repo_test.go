package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"milklog/internal/errs"
	"milklog/internal/model"
)

func TestUserRepo_CreateTenant_Conflict(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	tenant := &model.Tenant{ID: uuid.Must(uuid.NewV4()), Slug: "dairy-one", Name: "Dairy One"}
	mock.ExpectExec(`INSERT INTO tenants`).
		WithArgs(tenant.ID, tenant.Slug, tenant.Name).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := r.CreateTenant(context.Background(), tenant)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestUserRepo_GetTenantBySlug_OKAndNotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	ts := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, slug, name, created_at FROM tenants WHERE slug=\$1`).
		WithArgs("dairy-one").
		WillReturnRows(pgxmock.NewRows([]string{"id", "slug", "name", "created_at"}).
			AddRow(id, "dairy-one", "Dairy One", ts))
	tenant, err := r.GetTenantBySlug(ctx, "dairy-one")
	require.NoError(t, err)
	require.Equal(t, id, tenant.ID)

	mock.ExpectQuery(`SELECT id, slug, name, created_at FROM tenants WHERE slug=\$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetTenantBySlug(ctx, "nope")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_CreateUser_EmailTaken(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	u := &model.User{
		ID:       uuid.Must(uuid.NewV4()),
		TenantID: uuid.Must(uuid.NewV4()),
		Email:    "admin@example.com",
		Role:     model.RoleAdmin,
	}
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.TenantID, u.Email, u.PwdHash, u.SaltAuth, u.ExternalSubject, "admin").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	require.ErrorIs(t, r.CreateUser(context.Background(), u), errs.ErrAlreadyExists)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	tenantID := uuid.Must(uuid.NewV4())
	userID := uuid.Must(uuid.NewV4())
	ts := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE tenant_id=\$1 AND email=\$2`).
		WithArgs(tenantID, "admin@example.com").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "tenant_id", "email", "pwd_hash", "salt_auth", "external_subject", "role", "created_at",
		}).AddRow(userID, tenantID, "admin@example.com", []byte("h"), []byte("s"), "", "admin", ts))

	u, err := r.GetByEmail(context.Background(), tenantID, "admin@example.com")
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, u.Role)
	require.Equal(t, userID, u.ID)
}

func TestUserRepo_CountInTenant(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	tenantID := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE tenant_id=\$1`).
		WithArgs(tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

	n, err := r.CountInTenant(context.Background(), tenantID)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

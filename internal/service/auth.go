// Package service contains application services for authentication, records,
// cows, events and reporting.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "milklog/internal/crypto"
	"milklog/internal/errs"
	"milklog/internal/limiter"
	"milklog/internal/model"
	"milklog/internal/repository"
)

// AuthService defines account bootstrap and authentication operations.
type AuthService interface {
	// Register creates a user, creating the tenant first when the slug is new.
	// The first user of a tenant becomes its admin.
	Register(ctx context.Context, tenantSlug, tenantName, email, password string) (userID string, err error)
	// Login applies rate-limiting and authenticates by tenant slug + email.
	Login(ctx context.Context, tenantSlug, email, password, ip string) (model.Tokens, model.User, error)
	// LoginExternal authenticates a user whose identity was verified upstream
	// (OAuth); subject must match the stored external subject.
	LoginExternal(ctx context.Context, tenantSlug, email, subject string) (model.Tokens, model.User, error)
	// Users lists a tenant's accounts (admin surface).
	Users(ctx context.Context, tenantID uuid.UUID) ([]model.User, error)
}

// Claims is the token payload: registered claims plus tenant and role.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tid"`
	Role     string `json:"role"`
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim}
}

// Register creates the tenant on first use of a slug and adds the user. The
// role is admin when the tenant has no users yet, otherwise plain user.
func (s *AuthServiceImpl) Register(ctx context.Context, tenantSlug, tenantName, email, password string) (string, error) {
	tenantSlug = strings.TrimSpace(strings.ToLower(tenantSlug))
	email = strings.TrimSpace(strings.ToLower(email))
	if tenantSlug == "" || email == "" || len(password) < 8 {
		return "", fmt.Errorf("%w: slug/email required, password >= 8 chars", errs.ErrValidation)
	}

	tenant, err := s.users.GetTenantBySlug(ctx, tenantSlug)
	if errors.Is(err, errs.ErrNotFound) {
		tid, uerr := uuid.NewV4()
		if uerr != nil {
			return "", uerr
		}
		tenant = &model.Tenant{ID: tid, Slug: tenantSlug, Name: tenantName}
		if cerr := s.users.CreateTenant(ctx, tenant); cerr != nil {
			return "", cerr
		}
	} else if err != nil {
		return "", err
	}

	count, err := s.users.CountInTenant(ctx, tenant.ID)
	if err != nil {
		return "", err
	}
	role := model.RoleUser
	if count == 0 {
		role = model.RoleAdmin
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	saltAuth, err := pkgcrypto.RandBytes(16)
	if err != nil {
		return "", err
	}
	u := &model.User{
		ID:       uid,
		TenantID: tenant.ID,
		Email:    email,
		PwdHash:  pkgcrypto.HashPassword([]byte(password), saltAuth),
		SaltAuth: saltAuth,
		Role:     role,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return "", err
	}
	return uid.String(), nil
}

// Login authenticates with rate limiting keyed by (tenant/email, ip).
func (s *AuthServiceImpl) Login(ctx context.Context, tenantSlug, email, password, ip string) (model.Tokens, model.User, error) {
	tenantSlug = strings.TrimSpace(strings.ToLower(tenantSlug))
	email = strings.TrimSpace(strings.ToLower(email))
	loginKey := tenantSlug + "/" + email
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, loginKey, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.lookup(ctx, tenantSlug, email)
	if err != nil || len(u.PwdHash) == 0 || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, loginKey, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// hide whether the tenant or account exists
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, loginKey, ipHash)

	tokens, err := s.issueAccessToken(u)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return tokens, *u, nil
}

// LoginExternal matches a pre-verified identity subject; no limiter because
// the upstream provider already gates attempts.
func (s *AuthServiceImpl) LoginExternal(ctx context.Context, tenantSlug, email, subject string) (model.Tokens, model.User, error) {
	if subject == "" {
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}
	u, err := s.lookup(ctx, strings.ToLower(tenantSlug), strings.ToLower(email))
	if err != nil || u.ExternalSubject == "" || u.ExternalSubject != subject {
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}
	tokens, err := s.issueAccessToken(u)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return tokens, *u, nil
}

// Users lists the tenant's accounts ordered by creation time.
func (s *AuthServiceImpl) Users(ctx context.Context, tenantID uuid.UUID) ([]model.User, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty tenant id", errs.ErrValidation)
	}
	return s.users.ListInTenant(ctx, tenantID)
}

// ParseToken validates a signed token and returns its claims.
func (s *AuthServiceImpl) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.ErrUnauthorized
		}
		return s.signKey, nil
	})
	if err != nil || !tok.Valid {
		return nil, errs.ErrUnauthorized
	}
	return claims, nil
}

func (s *AuthServiceImpl) lookup(ctx context.Context, tenantSlug, email string) (*model.User, error) {
	tenant, err := s.users.GetTenantBySlug(ctx, tenantSlug)
	if err != nil {
		return nil, err
	}
	return s.users.GetByEmail(ctx, tenant.ID, email)
}

// issueAccessToken creates a signed HS256 JWT carrying user, tenant and role.
func (s *AuthServiceImpl) issueAccessToken(u *model.User) (model.Tokens, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		TenantID: u.TenantID.String(),
		Role:     string(u.Role),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}

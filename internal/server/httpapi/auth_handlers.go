package httpapi

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"milklog/internal/errs"
)

type registerRequest struct {
	TenantSlug string `json:"tenant_slug"`
	TenantName string `json:"tenant_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type loginRequest struct {
	TenantSlug string `json:"tenant_slug"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: bad request body", errs.ErrValidation)
	}
	id, err := s.auth.Register(c.Context(), req.TenantSlug, req.TenantName, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user_id": id})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: bad request body", errs.ErrValidation)
	}
	tokens, user, err := s.auth.Login(c.Context(), req.TenantSlug, req.Email, req.Password, c.IP())
	if err != nil {
		return err
	}
	return c.JSON(loginResponse{
		AccessToken: tokens.AccessToken,
		ExpiresAt:   tokens.ExpiresAt,
		UserID:      user.ID.String(),
		Role:        string(user.Role),
	})
}

type externalLoginRequest struct {
	TenantSlug string `json:"tenant_slug"`
	Email      string `json:"email"`
	Subject    string `json:"subject"`
}

// handleLoginExternal exchanges an upstream-verified identity subject for an
// access token. The OAuth dance itself happens in front of this server.
func (s *Server) handleLoginExternal(c *fiber.Ctx) error {
	var req externalLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: bad request body", errs.ErrValidation)
	}
	tokens, user, err := s.auth.LoginExternal(c.Context(), req.TenantSlug, req.Email, req.Subject)
	if err != nil {
		return err
	}
	return c.JSON(loginResponse{
		AccessToken: tokens.AccessToken,
		ExpiresAt:   tokens.ExpiresAt,
		UserID:      user.ID.String(),
		Role:        string(user.Role),
	})
}

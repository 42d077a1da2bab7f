package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"milklog/internal/errs"
	"milklog/internal/model"
)

// Locals keys set by the auth middleware.
const (
	ctxUserID   = "userID"
	ctxTenantID = "tenantID"
	ctxRole     = "role"
)

// errorHandler maps service sentinels to HTTP statuses. Unexpected errors are
// logged and masked as 500.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	status := 0
	switch {
	case errors.As(err, &fe):
		status = fe.Code
	case errors.Is(err, errs.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, errs.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, errs.ErrRateLimited):
		status = fiber.StatusTooManyRequests
	case errors.Is(err, errs.ErrAlreadyExists):
		status = fiber.StatusConflict
	}
	if status == 0 {
		s.log.Error("unhandled error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) recoverMiddleware(c *fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic recovered",
				zap.String("path", c.Path()),
				zap.Any("panic", r))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Next()
}

func (s *Server) loggingMiddleware(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Info("http",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("took", time.Since(start)))
	return err
}

// authMiddleware validates the bearer token and stores identity in Locals.
func (s *Server) authMiddleware(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return fmt.Errorf("%w: missing authorization header", errs.ErrUnauthorized)
	}
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return fmt.Errorf("%w: want 'Bearer <token>'", errs.ErrUnauthorized)
	}
	claims, err := s.tokens.ParseToken(tokenStr)
	if err != nil {
		return err
	}
	userID, err := uuid.FromString(claims.Subject)
	if err != nil {
		return errs.ErrUnauthorized
	}
	tenantID, err := uuid.FromString(claims.TenantID)
	if err != nil {
		return errs.ErrUnauthorized
	}
	c.Locals(ctxUserID, userID)
	c.Locals(ctxTenantID, tenantID)
	c.Locals(ctxRole, model.Role(claims.Role))
	return c.Next()
}

func (s *Server) requireAdmin(c *fiber.Ctx) error {
	role, _ := c.Locals(ctxRole).(model.Role)
	if role != model.RoleAdmin {
		return fmt.Errorf("%w: admin role required", errs.ErrForbidden)
	}
	return c.Next()
}

func ownerID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(ctxUserID).(uuid.UUID)
	return id
}

func tenantID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(ctxTenantID).(uuid.UUID)
	return id
}

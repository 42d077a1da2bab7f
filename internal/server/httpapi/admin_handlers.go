package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleClaimLegacy(c *fiber.Ctx) error {
	res, err := s.admin.ClaimLegacy(c.Context(), ownerID(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	External  bool   `json:"external"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) handleListUsers(c *fiber.Ctx) error {
	users, err := s.auth.Users(c.Context(), tenantID(c))
	if err != nil {
		return err
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			ID:        u.ID.String(),
			Email:     u.Email,
			Role:      string(u.Role),
			External:  u.ExternalSubject != "",
			CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(out)
}

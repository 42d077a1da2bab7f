package httpapi

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"milklog/internal/errs"
	"milklog/internal/model"
)

type cowRequest struct {
	Tag           string  `json:"tag"`
	Name          string  `json:"name"`
	Breed         string  `json:"breed"`
	Parity        *int    `json:"parity"`
	DOB           *string `json:"dob"`
	LatestCalving *string `json:"latest_calving"`
	GroupName     string  `json:"group_name"`
}

type cowResponse struct {
	ID            int64   `json:"id"`
	Tag           string  `json:"tag"`
	Name          string  `json:"name,omitempty"`
	Breed         string  `json:"breed,omitempty"`
	Parity        *int    `json:"parity,omitempty"`
	DOB           *string `json:"dob,omitempty"`
	LatestCalving *string `json:"latest_calving,omitempty"`
	GroupName     string  `json:"group_name,omitempty"`
}

func (s *Server) handleUpsertCow(c *fiber.Ctx) error {
	var req cowRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: bad request body", errs.ErrValidation)
	}
	err := s.cows.Upsert(c.Context(), ownerID(c), model.Cow{
		Tag:           req.Tag,
		Name:          req.Name,
		Breed:         req.Breed,
		Parity:        req.Parity,
		DOB:           req.DOB,
		LatestCalving: req.LatestCalving,
		GroupName:     req.GroupName,
	})
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListCows(c *fiber.Ctx) error {
	cows, err := s.cows.List(c.Context(), ownerID(c))
	if err != nil {
		return err
	}
	out := make([]cowResponse, 0, len(cows))
	for _, cw := range cows {
		out = append(out, cowResponse{
			ID:            cw.ID,
			Tag:           cw.Tag,
			Name:          cw.Name,
			Breed:         cw.Breed,
			Parity:        cw.Parity,
			DOB:           cw.DOB,
			LatestCalving: cw.LatestCalving,
			GroupName:     cw.GroupName,
		})
	}
	return c.JSON(out)
}

type healthEventRequest struct {
	CowTag          string  `json:"cow_tag"`
	EventDate       string  `json:"event_date"`
	EventType       string  `json:"event_type"`
	WithdrawalUntil *string `json:"withdrawal_until"`
	Details         string  `json:"details"`
}

type healthEventResponse struct {
	ID              int64   `json:"id"`
	CowTag          string  `json:"cow_tag"`
	EventDate       string  `json:"event_date"`
	EventType       string  `json:"event_type"`
	WithdrawalUntil *string `json:"withdrawal_until,omitempty"`
	Details         string  `json:"details,omitempty"`
}

func toHealthEventResponse(e model.HealthEvent) healthEventResponse {
	return healthEventResponse{
		ID:              e.ID,
		CowTag:          e.CowTag,
		EventDate:       e.EventDate,
		EventType:       e.EventType,
		WithdrawalUntil: e.WithdrawalUntil,
		Details:         e.Details,
	}
}

func (s *Server) handleAddHealthEvent(c *fiber.Ctx) error {
	var req healthEventRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: bad request body", errs.ErrValidation)
	}
	id, err := s.events.AddHealth(c.Context(), ownerID(c), model.HealthEvent{
		CowTag:          req.CowTag,
		EventDate:       req.EventDate,
		EventType:       req.EventType,
		WithdrawalUntil: req.WithdrawalUntil,
		Details:         req.Details,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) handleListHealthEvents(c *fiber.Ctx) error {
	events, err := s.events.ListHealth(c.Context(), ownerID(c))
	if err != nil {
		return err
	}
	out := make([]healthEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toHealthEventResponse(e))
	}
	return c.JSON(out)
}

type breedingEventRequest struct {
	CowTag    string `json:"cow_tag"`
	EventDate string `json:"event_date"`
	EventType string `json:"event_type"`
	Sire      string `json:"sire"`
	Protocol  string `json:"protocol"`
	Details   string `json:"details"`
}

type breedingEventResponse struct {
	ID        int64  `json:"id"`
	CowTag    string `json:"cow_tag"`
	EventDate string `json:"event_date"`
	EventType string `json:"event_type"`
	Sire      string `json:"sire,omitempty"`
	Protocol  string `json:"protocol,omitempty"`
	Details   string `json:"details,omitempty"`
}

func (s *Server) handleAddBreedingEvent(c *fiber.Ctx) error {
	var req breedingEventRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: bad request body", errs.ErrValidation)
	}
	id, err := s.events.AddBreeding(c.Context(), ownerID(c), model.BreedingEvent{
		CowTag:    req.CowTag,
		EventDate: req.EventDate,
		EventType: req.EventType,
		Sire:      req.Sire,
		Protocol:  req.Protocol,
		Details:   req.Details,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) handleListBreedingEvents(c *fiber.Ctx) error {
	events, err := s.events.ListBreeding(c.Context(), ownerID(c))
	if err != nil {
		return err
	}
	out := make([]breedingEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, breedingEventResponse{
			ID:        e.ID,
			CowTag:    e.CowTag,
			EventDate: e.EventDate,
			EventType: e.EventType,
			Sire:      e.Sire,
			Protocol:  e.Protocol,
			Details:   e.Details,
		})
	}
	return c.JSON(out)
}

// handleAlerts lists health events with a milk-withdrawal period still running.
func (s *Server) handleAlerts(c *fiber.Ctx) error {
	events, err := s.events.Alerts(c.Context(), ownerID(c))
	if err != nil {
		return err
	}
	out := make([]healthEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toHealthEventResponse(e))
	}
	return c.JSON(out)
}

package httpapi

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"milklog/internal/errs"
	"milklog/internal/export"
	"milklog/internal/model"
	"milklog/internal/service"
)

type recordRequest struct {
	CowTag        string   `json:"cow_tag"`
	Litres        float64  `json:"litres"`
	RecordDate    string   `json:"record_date"`
	Session       string   `json:"session"`
	Note          string   `json:"note"`
	Tags          string   `json:"tags"`
	PricePerLitre *float64 `json:"price_per_litre"`
}

type recordResponse struct {
	ID            int64    `json:"id"`
	CowTag        string   `json:"cow_tag"`
	Litres        float64  `json:"litres"`
	RecordDate    string   `json:"record_date"`
	Session       string   `json:"session"`
	Note          string   `json:"note,omitempty"`
	Tags          string   `json:"tags,omitempty"`
	PricePerLitre *float64 `json:"price_per_litre,omitempty"`
	Gain          *float64 `json:"gain,omitempty"`
	CreatedAt     string   `json:"created_at"`
}

func toRecordResponse(r model.MilkRecord) recordResponse {
	resp := recordResponse{
		ID:            r.ID,
		CowTag:        r.CowTag,
		Litres:        r.Litres,
		RecordDate:    r.RecordDate,
		Session:       string(r.Session),
		Note:          r.Note,
		Tags:          r.Tags,
		PricePerLitre: r.PricePerLitre,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.PricePerLitre != nil {
		gain := r.Litres * *r.PricePerLitre
		resp.Gain = &gain
	}
	return resp
}

func (s *Server) handleAddRecord(c *fiber.Ctx) error {
	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: bad request body", errs.ErrValidation)
	}
	id, err := s.records.Add(c.Context(), ownerID(c), model.MilkRecord{
		CowTag:        req.CowTag,
		Litres:        req.Litres,
		RecordDate:    req.RecordDate,
		Session:       model.Session(req.Session),
		Note:          req.Note,
		Tags:          req.Tags,
		PricePerLitre: req.PricePerLitre,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) handleRecentRecords(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	recs, err := s.records.Recent(c.Context(), ownerID(c), limit)
	if err != nil {
		return err
	}
	out := make([]recordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, toRecordResponse(r))
	}
	return c.JSON(out)
}

func recordIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad record id", errs.ErrValidation)
	}
	return id, nil
}

func (s *Server) handleUpdateRecord(c *fiber.Ctx) error {
	id, err := recordIDParam(c)
	if err != nil {
		return err
	}
	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: bad request body", errs.ErrValidation)
	}
	return s.records.Update(c.Context(), ownerID(c), id, model.RecordUpdate{
		Litres:        req.Litres,
		Session:       model.Session(req.Session),
		Note:          req.Note,
		Tags:          req.Tags,
		PricePerLitre: req.PricePerLitre,
	})
}

func (s *Server) handleDeleteRecord(c *fiber.Ctx) error {
	id, err := recordIDParam(c)
	if err != nil {
		return err
	}
	return s.records.Delete(c.Context(), ownerID(c), id)
}

func (s *Server) handleRestoreRecord(c *fiber.Ctx) error {
	id, err := recordIDParam(c)
	if err != nil {
		return err
	}
	return s.records.Restore(c.Context(), ownerID(c), id)
}

type bulkAddRequest struct {
	RecordDate string `json:"record_date"`
	Session    string `json:"session"`
	Entries    []struct {
		CowTag string  `json:"cow_tag"`
		Litres float64 `json:"litres"`
	} `json:"entries"`
}

func (s *Server) handleBulkAdd(c *fiber.Ctx) error {
	var req bulkAddRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: bad request body", errs.ErrValidation)
	}
	entries := make([]service.BulkEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, service.BulkEntry{CowTag: e.CowTag, Litres: e.Litres})
	}
	n, err := s.records.BulkAdd(c.Context(), ownerID(c), req.RecordDate, model.Session(req.Session), entries)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"inserted": n})
}

// handleImportCSV accepts the CSV either as a multipart "file" field or as the
// raw request body.
func (s *Server) handleImportCSV(c *fiber.Ctx) error {
	if fh, err := c.FormFile("file"); err == nil {
		f, oerr := fh.Open()
		if oerr != nil {
			return fmt.Errorf("%w: unreadable upload", errs.ErrValidation)
		}
		defer f.Close()
		res, ierr := s.records.ImportCSV(c.Context(), ownerID(c), f)
		if ierr != nil {
			return ierr
		}
		return c.JSON(res)
	}
	res, err := s.records.ImportCSV(c.Context(), ownerID(c), bytes.NewReader(c.Body()))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

type pivotResponse struct {
	Dates []string         `json:"dates"`
	Rows  []model.PivotRow `json:"rows"`
}

func (s *Server) handlePivot(c *fiber.Ctx) error {
	window := c.QueryInt("window", 0)
	dates, rows, err := s.reports.Pivot(c.Context(), ownerID(c), window)
	if err != nil {
		return err
	}
	return c.JSON(pivotResponse{Dates: dates, Rows: rows})
}

func (s *Server) handleExportCSV(c *fiber.Ctx) error {
	recs, err := s.records.Export(c.Context(), ownerID(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="milk_records.csv"`)
	return export.WriteCSV(c.Response().BodyWriter(), recs)
}

func (s *Server) handleExportXLSX(c *fiber.Ctx) error {
	recs, err := s.records.Export(c.Context(), ownerID(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="milk_records.xlsx"`)
	return export.WriteXLSX(c.Response().BodyWriter(), recs)
}

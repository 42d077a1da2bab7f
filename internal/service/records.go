package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"milklog/internal/errs"
	"milklog/internal/model"
	"milklog/internal/repository"
)

// RecordService defines operations over milk records.
type RecordService interface {
	// Add validates and inserts a single record, returning its id.
	Add(ctx context.Context, ownerID uuid.UUID, r model.MilkRecord) (int64, error)
	// BulkAdd inserts one record per (cow, litres) entry for a shared date and
	// session, atomically.
	BulkAdd(ctx context.Context, ownerID uuid.UUID, date string, session model.Session, entries []BulkEntry) (int, error)
	// ImportCSV parses CSV rows, rejecting bad lines individually and
	// inserting the good ones atomically.
	ImportCSV(ctx context.Context, ownerID uuid.UUID, src io.Reader) (ImportResult, error)
	// Recent returns the newest non-deleted records, newest first.
	Recent(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.MilkRecord, error)
	// Update applies an inline edit to a record.
	Update(ctx context.Context, ownerID uuid.UUID, id int64, upd model.RecordUpdate) error
	// Delete soft-deletes a record; Restore reverts it.
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error
	Restore(ctx context.Context, ownerID uuid.UUID, id int64) error
	// Export returns every non-deleted record for the owner, oldest first.
	Export(ctx context.Context, ownerID uuid.UUID) ([]model.MilkRecord, error)
}

// BulkEntry is one cow's yield within a bulk add.
type BulkEntry struct {
	CowTag string
	Litres float64
}

// ImportResult reports the outcome of a CSV import.
type ImportResult struct {
	Inserted int      `json:"inserted"`
	Rejected []string `json:"rejected,omitempty"`
}

type RecordServiceImpl struct {
	repo repository.RecordRepository
}

// NewRecordService constructs RecordService.
func NewRecordService(repo repository.RecordRepository) *RecordServiceImpl {
	return &RecordServiceImpl{repo: repo}
}

// validateRecord enforces the write-path rules shared by every insert and
// edit: non-empty cow tag, litres >= 0, parseable date, known session.
func validateRecord(cowTag string, litres float64, date string, session model.Session) error {
	if strings.TrimSpace(cowTag) == "" {
		return fmt.Errorf("%w: empty cow tag", errs.ErrValidation)
	}
	if litres < 0 {
		return fmt.Errorf("%w: litres must be >= 0", errs.ErrValidation)
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return fmt.Errorf("%w: bad date %q", errs.ErrValidation, date)
	}
	if !session.Valid() {
		return fmt.Errorf("%w: bad session %q", errs.ErrValidation, session)
	}
	return nil
}

// Add validates and inserts a single record.
func (s *RecordServiceImpl) Add(ctx context.Context, ownerID uuid.UUID, r model.MilkRecord) (int64, error) {
	if ownerID == uuid.Nil {
		return 0, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	if err := validateRecord(r.CowTag, r.Litres, r.RecordDate, r.Session); err != nil {
		return 0, err
	}
	if r.PricePerLitre != nil && *r.PricePerLitre < 0 {
		return 0, fmt.Errorf("%w: price must be >= 0", errs.ErrValidation)
	}
	r.OwnerID = ownerID
	r.CowTag = strings.TrimSpace(r.CowTag)
	return s.repo.Create(ctx, &r)
}

// BulkAdd validates every entry up front, then inserts atomically.
func (s *RecordServiceImpl) BulkAdd(ctx context.Context, ownerID uuid.UUID, date string, session model.Session, entries []BulkEntry) (int, error) {
	if ownerID == uuid.Nil {
		return 0, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: no entries", errs.ErrValidation)
	}
	recs := make([]model.MilkRecord, 0, len(entries))
	for i, e := range entries {
		if err := validateRecord(e.CowTag, e.Litres, date, session); err != nil {
			return 0, fmt.Errorf("entry[%d]: %w", i, err)
		}
		recs = append(recs, model.MilkRecord{
			OwnerID:    ownerID,
			CowTag:     strings.TrimSpace(e.CowTag),
			Litres:     e.Litres,
			RecordDate: date,
			Session:    session,
		})
	}
	if err := s.repo.CreateBatch(ctx, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// csvColumns is the accepted import layout; columns past session are optional.
var csvColumns = []string{"cow_tag", "litres", "record_date", "session", "note", "tags", "price_per_litre"}

// ImportCSV reads rows of cow_tag,litres,record_date,session[,note,tags,price].
// A header row is detected and skipped. Bad lines are collected with their
// line numbers; the valid remainder is inserted in one transaction.
func (s *RecordServiceImpl) ImportCSV(ctx context.Context, ownerID uuid.UUID, src io.Reader) (ImportResult, error) {
	if ownerID == uuid.Nil {
		return ImportResult{}, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	rd := csv.NewReader(src)
	rd.FieldsPerRecord = -1
	rd.TrimLeadingSpace = true

	var res ImportResult
	var recs []model.MilkRecord
	line := 0
	for {
		row, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ImportResult{}, fmt.Errorf("%w: %v", errs.ErrValidation, err)
		}
		line++
		if line == 1 && isHeaderRow(row) {
			continue
		}
		rec, rerr := parseCSVRow(row)
		if rerr != nil {
			res.Rejected = append(res.Rejected, fmt.Sprintf("line %d: %v", line, rerr))
			continue
		}
		rec.OwnerID = ownerID
		recs = append(recs, rec)
	}
	if len(recs) > 0 {
		if err := s.repo.CreateBatch(ctx, recs); err != nil {
			return ImportResult{}, err
		}
	}
	res.Inserted = len(recs)
	return res, nil
}

func isHeaderRow(row []string) bool {
	if len(row) < 2 {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(row[0]), csvColumns[0]) {
		return true
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
	return err != nil
}

func parseCSVRow(row []string) (model.MilkRecord, error) {
	if len(row) < 4 {
		return model.MilkRecord{}, fmt.Errorf("want at least 4 columns, got %d", len(row))
	}
	litres, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
	if err != nil {
		return model.MilkRecord{}, fmt.Errorf("bad litres %q", row[1])
	}
	rec := model.MilkRecord{
		CowTag:     strings.TrimSpace(row[0]),
		Litres:     litres,
		RecordDate: strings.TrimSpace(row[2]),
		Session:    model.Session(strings.ToUpper(strings.TrimSpace(row[3]))),
	}
	if len(row) > 4 {
		rec.Note = strings.TrimSpace(row[4])
	}
	if len(row) > 5 {
		rec.Tags = strings.TrimSpace(row[5])
	}
	if len(row) > 6 && strings.TrimSpace(row[6]) != "" {
		price, perr := strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
		if perr != nil || price < 0 {
			return model.MilkRecord{}, fmt.Errorf("bad price %q", row[6])
		}
		rec.PricePerLitre = &price
	}
	if err := validateRecord(rec.CowTag, rec.Litres, rec.RecordDate, rec.Session); err != nil {
		return model.MilkRecord{}, err
	}
	return rec, nil
}

// Recent returns the newest records, capped at 500 rows.
func (s *RecordServiceImpl) Recent(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.MilkRecord, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.Recent(ctx, ownerID, limit)
}

// Update applies an inline edit after re-running the write-path validation.
func (s *RecordServiceImpl) Update(ctx context.Context, ownerID uuid.UUID, id int64, upd model.RecordUpdate) error {
	if ownerID == uuid.Nil || id <= 0 {
		return fmt.Errorf("%w: empty owner/id", errs.ErrValidation)
	}
	if upd.Litres < 0 {
		return fmt.Errorf("%w: litres must be >= 0", errs.ErrValidation)
	}
	if !upd.Session.Valid() {
		return fmt.Errorf("%w: bad session %q", errs.ErrValidation, upd.Session)
	}
	if upd.PricePerLitre != nil && *upd.PricePerLitre < 0 {
		return fmt.Errorf("%w: price must be >= 0", errs.ErrValidation)
	}
	return s.repo.Update(ctx, ownerID, id, upd)
}

// Delete sets the soft-delete tombstone.
func (s *RecordServiceImpl) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	if ownerID == uuid.Nil || id <= 0 {
		return fmt.Errorf("%w: empty owner/id", errs.ErrValidation)
	}
	return s.repo.SetDeleted(ctx, ownerID, id, true)
}

// Restore clears the soft-delete tombstone.
func (s *RecordServiceImpl) Restore(ctx context.Context, ownerID uuid.UUID, id int64) error {
	if ownerID == uuid.Nil || id <= 0 {
		return fmt.Errorf("%w: empty owner/id", errs.ErrValidation)
	}
	return s.repo.SetDeleted(ctx, ownerID, id, false)
}

// Export returns the owner's full non-deleted history.
func (s *RecordServiceImpl) Export(ctx context.Context, ownerID uuid.UUID) ([]model.MilkRecord, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	return s.repo.AllForExport(ctx, ownerID)
}

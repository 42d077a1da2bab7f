package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/gofrs/uuid/v5"

	"milklog/internal/errs"
	"milklog/internal/model"
	"milklog/internal/repository"
)

// Pivot window bounds.
const (
	minWindow = 1
	maxWindow = 90
)

// ReportService builds the per-cow milking pivot.
type ReportService interface {
	// Pivot returns the last windowSize record dates (ascending) and one dense
	// row per cow with a cell for every (date, session) column.
	Pivot(ctx context.Context, ownerID uuid.UUID, windowSize int) (dates []string, rows []model.PivotRow, err error)
}

type ReportServiceImpl struct {
	repo          repository.RecordRepository
	defaultWindow int
}

// NewReportService constructs ReportService. defaultWindow is used when the
// caller passes windowSize <= 0.
func NewReportService(repo repository.RecordRepository, defaultWindow int) *ReportServiceImpl {
	if defaultWindow < minWindow || defaultWindow > maxWindow {
		defaultWindow = 7
	}
	return &ReportServiceImpl{repo: repo, defaultWindow: defaultWindow}
}

// Pivot aggregates litres into a cow x (date, session) grid. Out-of-range
// windows are clamped, never rejected. An owner with no records gets empty
// slices and no error.
func (s *ReportServiceImpl) Pivot(ctx context.Context, ownerID uuid.UUID, windowSize int) ([]string, []model.PivotRow, error) {
	if ownerID == uuid.Nil {
		return nil, nil, fmt.Errorf("%w: empty owner", errs.ErrValidation)
	}
	if windowSize <= 0 {
		windowSize = s.defaultWindow
	}
	if windowSize < minWindow {
		windowSize = minWindow
	}
	if windowSize > maxWindow {
		windowSize = maxWindow
	}

	dates, err := s.repo.DistinctDates(ctx, ownerID, windowSize)
	if err != nil {
		return nil, nil, err
	}
	if len(dates) == 0 {
		return []string{}, []model.PivotRow{}, nil
	}
	// newest-first from the query; the grid reads oldest to newest
	reverse(dates)

	sums, err := s.repo.SumByCowDateSession(ctx, ownerID, dates)
	if err != nil {
		return nil, nil, err
	}

	type cell struct {
		date    string
		session model.Session
	}
	byCow := make(map[string]map[cell]float64)
	for _, sum := range sums {
		m := byCow[sum.CowTag]
		if m == nil {
			m = make(map[cell]float64)
			byCow[sum.CowTag] = m
		}
		m[cell{sum.Date, sum.Session}] += sum.Litres
	}

	tags := make([]string, 0, len(byCow))
	for tag := range byCow {
		tags = append(tags, tag)
	}
	sortCowTags(tags)

	rows := make([]model.PivotRow, 0, len(tags))
	for _, tag := range tags {
		cells := make([]float64, 0, len(dates)*len(model.Sessions))
		total := 0.0
		for _, d := range dates {
			for _, sess := range model.Sessions {
				v := round2(byCow[tag][cell{d, sess}])
				cells = append(cells, v)
				total += v
			}
		}
		rows = append(rows, model.PivotRow{CowTag: tag, Cells: cells, Total: round2(total)})
	}
	return dates, rows, nil
}

// sortCowTags orders numeric tags ascending before lexical ones.
func sortCowTags(tags []string) {
	sort.Slice(tags, func(i, j int) bool {
		ni, iErr := strconv.Atoi(tags[i])
		nj, jErr := strconv.Atoi(tags[j])
		switch {
		case iErr == nil && jErr == nil:
			return ni < nj
		case iErr == nil:
			return true
		case jErr == nil:
			return false
		default:
			return tags[i] < tags[j]
		}
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

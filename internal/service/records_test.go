package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"milklog/internal/errs"
	"milklog/internal/model"
)

func TestRecords_Add_Validation(t *testing.T) {
	t.Parallel()
	owner := uuid.Must(uuid.NewV4())
	repo := &fakeRecords{}
	s := NewRecordService(repo)

	base := model.MilkRecord{CowTag: "12", Litres: 4.5, RecordDate: "2025-05-01", Session: model.SessionAM}

	_, err := s.Add(context.Background(), uuid.Nil, base)
	require.ErrorIs(t, err, errs.ErrValidation)

	bad := base
	bad.Litres = -0.1
	_, err = s.Add(context.Background(), owner, bad)
	require.ErrorIs(t, err, errs.ErrValidation)

	bad = base
	bad.RecordDate = "01/05/2025"
	_, err = s.Add(context.Background(), owner, bad)
	require.ErrorIs(t, err, errs.ErrValidation)

	bad = base
	bad.Session = "NOON"
	_, err = s.Add(context.Background(), owner, bad)
	require.ErrorIs(t, err, errs.ErrValidation)

	bad = base
	bad.CowTag = "  "
	_, err = s.Add(context.Background(), owner, bad)
	require.ErrorIs(t, err, errs.ErrValidation)

	neg := -1.0
	bad = base
	bad.PricePerLitre = &neg
	_, err = s.Add(context.Background(), owner, bad)
	require.ErrorIs(t, err, errs.ErrValidation)

	id, err := s.Add(context.Background(), owner, base)
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	require.Equal(t, owner, repo.recs[0].OwnerID)

	// zero litres is a legal dry-off entry
	zero := base
	zero.Litres = 0
	_, err = s.Add(context.Background(), owner, zero)
	require.NoError(t, err)
}

func TestRecords_BulkAdd(t *testing.T) {
	t.Parallel()
	owner := uuid.Must(uuid.NewV4())
	repo := &fakeRecords{}
	s := NewRecordService(repo)

	_, err := s.BulkAdd(context.Background(), owner, "2025-05-01", model.SessionAM, nil)
	require.ErrorIs(t, err, errs.ErrValidation)

	// one bad entry rejects the whole batch, nothing inserted
	_, err = s.BulkAdd(context.Background(), owner, "2025-05-01", model.SessionAM, []BulkEntry{
		{CowTag: "1", Litres: 5},
		{CowTag: "2", Litres: -1},
	})
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Empty(t, repo.recs)

	n, err := s.BulkAdd(context.Background(), owner, "2025-05-01", model.SessionPM, []BulkEntry{
		{CowTag: "1", Litres: 5},
		{CowTag: "2", Litres: 6.5},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, repo.recs, 2)
	require.Equal(t, model.SessionPM, repo.recs[1].Session)
}

func TestRecords_ImportCSV(t *testing.T) {
	t.Parallel()
	owner := uuid.Must(uuid.NewV4())
	repo := &fakeRecords{}
	s := NewRecordService(repo)

	src := strings.NewReader(strings.Join([]string{
		"cow_tag,litres,record_date,session,note,tags,price_per_litre",
		"12,5.5,2025-05-01,am,morning,fresh,0.52",
		"12,-1,2025-05-01,PM",
		"13,4.0,bad-date,AM",
		"13,4.25,2025-05-01,PM,,,",
		"14,oops,2025-05-01,AM",
	}, "\n"))

	res, err := s.ImportCSV(context.Background(), owner, src)
	require.NoError(t, err)
	require.Equal(t, 2, res.Inserted)
	require.Len(t, res.Rejected, 3)
	require.Contains(t, res.Rejected[0], "line 3")
	require.Contains(t, res.Rejected[1], "line 4")
	require.Contains(t, res.Rejected[2], "line 6")

	require.Len(t, repo.recs, 2)
	require.Equal(t, model.SessionAM, repo.recs[0].Session)
	require.NotNil(t, repo.recs[0].PricePerLitre)
	require.Equal(t, 0.52, *repo.recs[0].PricePerLitre)
	require.Nil(t, repo.recs[1].PricePerLitre)
}

func TestRecords_ImportCSV_NoHeader(t *testing.T) {
	t.Parallel()
	owner := uuid.Must(uuid.NewV4())
	repo := &fakeRecords{}
	s := NewRecordService(repo)

	res, err := s.ImportCSV(context.Background(), owner, strings.NewReader("7,3.5,2025-05-02,AM\n"))
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)
	require.Empty(t, res.Rejected)
}

func TestRecords_UpdateDeleteRestore(t *testing.T) {
	t.Parallel()
	owner := uuid.Must(uuid.NewV4())
	repo := &fakeRecords{}
	s := NewRecordService(repo)

	id, err := s.Add(context.Background(), owner, model.MilkRecord{
		CowTag: "5", Litres: 4, RecordDate: "2025-05-01", Session: model.SessionAM,
	})
	require.NoError(t, err)

	err = s.Update(context.Background(), owner, id, model.RecordUpdate{Litres: -1, Session: model.SessionAM})
	require.ErrorIs(t, err, errs.ErrValidation)

	err = s.Update(context.Background(), owner, id, model.RecordUpdate{Litres: 6, Session: model.SessionPM, Note: "edited"})
	require.NoError(t, err)
	require.Equal(t, 6.0, repo.recs[0].Litres)

	err = s.Update(context.Background(), owner, 999, model.RecordUpdate{Litres: 1, Session: model.SessionAM})
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, s.Delete(context.Background(), owner, id))
	require.True(t, repo.recs[0].Deleted)

	// soft-deleted rows are not editable
	err = s.Update(context.Background(), owner, id, model.RecordUpdate{Litres: 1, Session: model.SessionAM})
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, s.Restore(context.Background(), owner, id))
	require.False(t, repo.recs[0].Deleted)

	require.ErrorIs(t, s.Delete(context.Background(), owner, 999), errs.ErrNotFound)
}

func TestRecords_RecentAndExport(t *testing.T) {
	t.Parallel()
	owner := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())
	repo := &fakeRecords{}
	s := NewRecordService(repo)

	for i, cow := range []string{"1", "2", "3"} {
		_, err := s.Add(context.Background(), owner, model.MilkRecord{
			CowTag: cow, Litres: float64(i + 1), RecordDate: "2025-05-01", Session: model.SessionAM,
		})
		require.NoError(t, err)
	}
	_, err := s.Add(context.Background(), other, model.MilkRecord{
		CowTag: "9", Litres: 1, RecordDate: "2025-05-01", Session: model.SessionAM,
	})
	require.NoError(t, err)

	recent, err := s.Recent(context.Background(), owner, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "3", recent[0].CowTag)

	exp, err := s.Export(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, exp, 3)
	require.Equal(t, "1", exp[0].CowTag)
}

func TestRecords_RepoErrorsPropagate(t *testing.T) {
	t.Parallel()
	owner := uuid.Must(uuid.NewV4())
	repo := &fakeRecords{createErr: errors.New("insert failed"), batchErr: errors.New("tx failed")}
	s := NewRecordService(repo)

	_, err := s.Add(context.Background(), owner, model.MilkRecord{
		CowTag: "1", Litres: 1, RecordDate: "2025-05-01", Session: model.SessionAM,
	})
	require.Error(t, err)

	_, err = s.BulkAdd(context.Background(), owner, "2025-05-01", model.SessionAM, []BulkEntry{{CowTag: "1", Litres: 1}})
	require.Error(t, err)

	_, err = s.ImportCSV(context.Background(), owner, strings.NewReader("1,2.0,2025-05-01,AM\n"))
	require.Error(t, err)
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"milklog/internal/errs"
	"milklog/internal/model"
)

func TestAdmin_ClaimLegacy(t *testing.T) {
	t.Parallel()
	owner := uuid.Must(uuid.NewV4())

	records := &fakeRecords{recs: []model.MilkRecord{
		{ID: 1, CowTag: "1", RecordDate: "2020-01-01", Session: model.SessionAM},
		{ID: 2, OwnerID: owner, CowTag: "2", RecordDate: "2020-01-01", Session: model.SessionAM},
	}}
	cows := &fakeCows{cows: []model.Cow{{ID: 1, Tag: "1"}}}
	events := &fakeEvents{
		health:   []model.HealthEvent{{ID: 1, CowTag: "1", EventDate: "2020-01-01", EventType: "checkup"}},
		breeding: []model.BreedingEvent{{ID: 1, CowTag: "1", EventDate: "2020-01-01", EventType: "AI"}},
	}

	s := NewAdminService(records, cows, events)

	_, err := s.ClaimLegacy(context.Background(), uuid.Nil)
	require.ErrorIs(t, err, errs.ErrValidation)

	res, err := s.ClaimLegacy(context.Background(), owner)
	require.NoError(t, err)
	require.Equal(t, ClaimResult{Records: 1, Cows: 1, Events: 2}, res)
	require.Equal(t, owner, records.recs[0].OwnerID)

	// idempotent: nothing left to claim
	res, err = s.ClaimLegacy(context.Background(), owner)
	require.NoError(t, err)
	require.Equal(t, ClaimResult{}, res)
}

func TestAdmin_ClaimLegacy_ErrorStopsEarly(t *testing.T) {
	t.Parallel()
	records := &fakeRecords{queryErr: errors.New("db down")}
	s := NewAdminService(records, &fakeCows{}, &fakeEvents{})

	_, err := s.ClaimLegacy(context.Background(), uuid.Must(uuid.NewV4()))
	require.Error(t, err)
}

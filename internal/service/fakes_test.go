package service

import (
	"context"
	"sort"
	"time"

	"github.com/gofrs/uuid/v5"

	"milklog/internal/errs"
	"milklog/internal/limiter"
	"milklog/internal/model"
	"milklog/internal/repository"
)

/************ fake record repository ************/

type fakeRecords struct {
	recs   []model.MilkRecord
	nextID int64

	createErr error
	batchErr  error
	queryErr  error
}

var _ repository.RecordRepository = (*fakeRecords)(nil)

func (f *fakeRecords) Create(_ context.Context, r *model.MilkRecord) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	r.ID = f.nextID
	f.recs = append(f.recs, *r)
	return r.ID, nil
}

func (f *fakeRecords) CreateBatch(_ context.Context, recs []model.MilkRecord) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	for i := range recs {
		f.nextID++
		recs[i].ID = f.nextID
		f.recs = append(f.recs, recs[i])
	}
	return nil
}

func (f *fakeRecords) Recent(_ context.Context, ownerID uuid.UUID, limit int) ([]model.MilkRecord, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []model.MilkRecord
	for _, r := range f.recs {
		if r.OwnerID == ownerID && !r.Deleted {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRecords) Update(_ context.Context, ownerID uuid.UUID, id int64, upd model.RecordUpdate) error {
	for i := range f.recs {
		r := &f.recs[i]
		if r.ID == id && r.OwnerID == ownerID && !r.Deleted {
			r.Litres = upd.Litres
			r.Session = upd.Session
			r.Note = upd.Note
			r.Tags = upd.Tags
			r.PricePerLitre = upd.PricePerLitre
			return nil
		}
	}
	return errs.ErrNotFound
}

func (f *fakeRecords) SetDeleted(_ context.Context, ownerID uuid.UUID, id int64, deleted bool) error {
	for i := range f.recs {
		if f.recs[i].ID == id && f.recs[i].OwnerID == ownerID {
			f.recs[i].Deleted = deleted
			return nil
		}
	}
	return errs.ErrNotFound
}

func (f *fakeRecords) DistinctDates(_ context.Context, ownerID uuid.UUID, limit int) ([]string, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	seen := map[string]bool{}
	for _, r := range f.recs {
		if r.OwnerID == ownerID && !r.Deleted {
			seen[r.RecordDate] = true
		}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if len(dates) > limit {
		dates = dates[:limit]
	}
	return dates, nil
}

func (f *fakeRecords) SumByCowDateSession(_ context.Context, ownerID uuid.UUID, dates []string) ([]model.PivotSum, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	inSet := map[string]bool{}
	for _, d := range dates {
		inSet[d] = true
	}
	type key struct {
		cow, date string
		sess      model.Session
	}
	sums := map[key]float64{}
	for _, r := range f.recs {
		if r.OwnerID == ownerID && !r.Deleted && inSet[r.RecordDate] {
			sums[key{r.CowTag, r.RecordDate, r.Session}] += r.Litres
		}
	}
	out := make([]model.PivotSum, 0, len(sums))
	for k, v := range sums {
		out = append(out, model.PivotSum{CowTag: k.cow, Date: k.date, Session: k.sess, Litres: v})
	}
	return out, nil
}

func (f *fakeRecords) AllForExport(_ context.Context, ownerID uuid.UUID) ([]model.MilkRecord, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []model.MilkRecord
	for _, r := range f.recs {
		if r.OwnerID == ownerID && !r.Deleted {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRecords) ClaimLegacy(_ context.Context, ownerID uuid.UUID) (int64, error) {
	if f.queryErr != nil {
		return 0, f.queryErr
	}
	var n int64
	for i := range f.recs {
		if f.recs[i].OwnerID == uuid.Nil {
			f.recs[i].OwnerID = ownerID
			n++
		}
	}
	return n, nil
}

/************ fake cow repository ************/

type fakeCows struct {
	cows []model.Cow

	upsertErr error
	queryErr  error
}

var _ repository.CowRepository = (*fakeCows)(nil)

func (f *fakeCows) Upsert(_ context.Context, c *model.Cow) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for i := range f.cows {
		if f.cows[i].OwnerID == c.OwnerID && f.cows[i].Tag == c.Tag {
			id := f.cows[i].ID
			f.cows[i] = *c
			f.cows[i].ID = id
			return nil
		}
	}
	c.ID = int64(len(f.cows) + 1)
	f.cows = append(f.cows, *c)
	return nil
}

func (f *fakeCows) List(_ context.Context, ownerID uuid.UUID) ([]model.Cow, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []model.Cow
	for _, c := range f.cows {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out, nil
}

func (f *fakeCows) ClaimLegacy(_ context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	for i := range f.cows {
		if f.cows[i].OwnerID == uuid.Nil {
			f.cows[i].OwnerID = ownerID
			n++
		}
	}
	return n, nil
}

/************ fake event repository ************/

type fakeEvents struct {
	health   []model.HealthEvent
	breeding []model.BreedingEvent

	addErr   error
	queryErr error
}

var _ repository.EventRepository = (*fakeEvents)(nil)

func (f *fakeEvents) AddHealth(_ context.Context, e *model.HealthEvent) (int64, error) {
	if f.addErr != nil {
		return 0, f.addErr
	}
	e.ID = int64(len(f.health) + 1)
	f.health = append(f.health, *e)
	return e.ID, nil
}

func (f *fakeEvents) ListHealth(_ context.Context, ownerID uuid.UUID) ([]model.HealthEvent, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []model.HealthEvent
	for _, e := range f.health {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) ActiveWithdrawals(_ context.Context, ownerID uuid.UUID, today string) ([]model.HealthEvent, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []model.HealthEvent
	for _, e := range f.health {
		if e.OwnerID == ownerID && e.WithdrawalUntil != nil && *e.WithdrawalUntil >= today {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) AddBreeding(_ context.Context, e *model.BreedingEvent) (int64, error) {
	if f.addErr != nil {
		return 0, f.addErr
	}
	e.ID = int64(len(f.breeding) + 1)
	f.breeding = append(f.breeding, *e)
	return e.ID, nil
}

func (f *fakeEvents) ListBreeding(_ context.Context, ownerID uuid.UUID) ([]model.BreedingEvent, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []model.BreedingEvent
	for _, e := range f.breeding {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) ClaimLegacy(_ context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	for i := range f.health {
		if f.health[i].OwnerID == uuid.Nil {
			f.health[i].OwnerID = ownerID
			n++
		}
	}
	for i := range f.breeding {
		if f.breeding[i].OwnerID == uuid.Nil {
			f.breeding[i].OwnerID = ownerID
			n++
		}
	}
	return n, nil
}

/************ fake user repository ************/

type fakeUsers struct {
	tenants map[string]*model.Tenant
	users   []*model.User

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers {
	return &fakeUsers{tenants: map[string]*model.Tenant{}}
}

func (f *fakeUsers) CreateTenant(_ context.Context, t *model.Tenant) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.tenants[t.Slug]; ok {
		return errs.ErrAlreadyExists
	}
	cpy := *t
	f.tenants[t.Slug] = &cpy
	return nil
}

func (f *fakeUsers) GetTenantBySlug(_ context.Context, slug string) (*model.Tenant, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	t, ok := f.tenants[slug]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, ex := range f.users {
		if ex.TenantID == u.TenantID && ex.Email == u.Email {
			return errs.ErrAlreadyExists
		}
	}
	cpy := *u
	f.users = append(f.users, &cpy)
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, tenantID uuid.UUID, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.TenantID == tenantID && u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) CountInTenant(_ context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	for _, u := range f.users {
		if u.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) ListInTenant(_ context.Context, tenantID uuid.UUID) ([]model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	var out []model.User
	for _, u := range f.users {
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	return out, nil
}

/************ fake limiter ************/

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}

func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}

func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

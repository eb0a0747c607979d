package catalog_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/canteen-go/internal/clock"
	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository"
	"github.com/kirinyoku/canteen-go/internal/repository/memory"
	"github.com/kirinyoku/canteen-go/internal/service/catalog"
)

var errInjected = errors.New("injected ticket failure")

// flakyStore fails ticket updates for the ids in failOn and counts updates.
type flakyStore struct {
	repository.Store

	mu      sync.Mutex
	failOn  map[int64]bool
	updates int
}

func (s *flakyStore) Tickets() repository.TicketRepository {
	return &flakyTickets{TicketRepository: s.Store.Tickets(), s: s}
}

type flakyTickets struct {
	repository.TicketRepository
	s *flakyStore
}

func (t *flakyTickets) Update(ctx context.Context, id int64, patch domain.TicketPatch) error {
	t.s.mu.Lock()
	t.s.updates++
	fail := t.s.failOn[id]
	t.s.mu.Unlock()

	if fail {
		return errInjected
	}
	return t.TicketRepository.Update(ctx, id, patch)
}

type fakeAlerts struct {
	events []domain.CascadeFailedEvent
}

func (a *fakeAlerts) PublishCascadeFailed(_ context.Context, ev domain.CascadeFailedEvent) error {
	a.events = append(a.events, ev)
	return nil
}

type fakeChanges struct {
	changes []domain.CatalogChange
}

func (c *fakeChanges) PublishCatalogChanged(_ context.Context, ch domain.CatalogChange) error {
	c.changes = append(c.changes, ch)
	return nil
}

type fakeCache struct {
	venues      []domain.Venue
	loads       int
	invalidated int
}

func (c *fakeCache) Venues(ctx context.Context, load func(context.Context) ([]domain.Venue, error)) ([]domain.Venue, error) {
	if c.venues != nil {
		return c.venues, nil
	}
	c.loads++
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.venues = v
	return v, nil
}

func (c *fakeCache) InvalidateVenues(context.Context) error {
	c.invalidated++
	c.venues = nil
	return nil
}

type fixture struct {
	svc     *catalog.Service
	store   *flakyStore
	alerts  *fakeAlerts
	changes *fakeChanges
	cache   *fakeCache
}

var now = time.Date(2024, 5, 6, 11, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := &flakyStore{Store: memory.NewStore(), failOn: map[int64]bool{}}
	f := &fixture{
		store:   store,
		alerts:  &fakeAlerts{},
		changes: &fakeChanges{},
		cache:   &fakeCache{},
	}
	f.svc = catalog.New(catalog.Deps{
		Store:   store,
		Cache:   f.cache,
		Changes: f.changes,
		Alerts:  f.alerts,
		Clock:   clock.NewFixed(now),
	})

	require.NoError(t, store.Employees().Create(context.Background(), domain.Employee{
		ID:       1,
		Login:    "jdoe",
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Role:     domain.RoleEmployee,
	}))

	return f
}

func (f *fixture) addVenue(t *testing.T, name string) domain.Venue {
	t.Helper()
	v, err := f.svc.AddVenue(context.Background(), name)
	require.NoError(t, err)
	return *v
}

func (f *fixture) addTicket(t *testing.T, venue string) domain.Ticket {
	t.Helper()
	tk, err := f.store.Store.Tickets().Create(context.Background(), domain.Ticket{
		EmployeeID: 1,
		HolderName: "Jane Doe",
		PartySize:  1,
		TicketType: domain.TicketSubsidized,
		OfferKind:  domain.OfferSelfService,
		VenueName:  venue,
		CreatedAt:  now,
	})
	require.NoError(t, err)
	return *tk
}

func (f *fixture) ticket(t *testing.T, id int64) domain.Ticket {
	t.Helper()
	tk, err := f.store.Tickets().Get(context.Background(), id)
	require.NoError(t, err)
	return *tk
}

func TestAddVenue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.AddVenue(ctx, "  Cafeteria  ")
	require.NoError(t, err)
	assert.Equal(t, "Cafeteria", v.Name)
	assert.NotZero(t, v.ID)

	nfc, err := f.svc.AddVenue(ctx, "Cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9", nfc.Name)

	_, err = f.svc.AddVenue(ctx, "Caf\u00e9")
	assert.ErrorIs(t, err, catalog.ErrDuplicateName, "composed and decomposed forms are the same name")

	lower, err := f.svc.AddVenue(ctx, "cafeteria")
	require.NoError(t, err, "names are case-sensitive")
	assert.Equal(t, "cafeteria", lower.Name)

	assert.Len(t, f.changes.changes, 3)
	assert.Equal(t, 3, f.cache.invalidated)
	assert.Equal(t, domain.VenueAdded, f.changes.changes[0].Kind)
	assert.Equal(t, now.Unix(), f.changes.changes[0].TsUnix)
}

func TestAddVenue_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddVenue(ctx, "   ")
	assert.ErrorIs(t, err, catalog.ErrEmptyName)

	_, err = f.svc.AddVenue(ctx, strings.Repeat("x", catalog.MaxNameLength+1))
	assert.ErrorIs(t, err, catalog.ErrNameTooLong)

	venues, err := f.store.Venues().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, venues)
	assert.Empty(t, f.changes.changes)
}

func TestAddVenue_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addVenue(t, "Cafeteria")

	_, err := f.svc.AddVenue(ctx, "Cafeteria ")
	require.ErrorIs(t, err, catalog.ErrDuplicateName)

	venues, err := f.store.Venues().List(ctx)
	require.NoError(t, err)
	assert.Len(t, venues, 1)
	assert.Len(t, f.changes.changes, 1)
}

func TestRenameVenue_CentralCafeteria(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cafeteria := f.addVenue(t, "Cafeteria")
	f.addVenue(t, "Snack Bar")
	t1 := f.addTicket(t, "Cafeteria")

	res, err := f.svc.RenameVenue(ctx, cafeteria.ID, "Central Cafeteria")
	require.NoError(t, err)

	assert.Equal(t, domain.Venue{ID: cafeteria.ID, Name: "Central Cafeteria"}, res.Venue)
	assert.Equal(t, "Cafeteria", res.OldName)
	assert.Equal(t, 1, res.TicketsUpdated)
	assert.Equal(t, 0, res.TicketsFailed)
	assert.False(t, res.Partial())

	assert.Equal(t, "Central Cafeteria", f.ticket(t, t1.ID).VenueName)
	assert.Empty(t, f.alerts.events)
}

func TestRenameVenue_Propagation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addVenue(t, "A")
	f.addVenue(t, "Other")
	t1 := f.addTicket(t, "A")
	t2 := f.addTicket(t, "A")
	t3 := f.addTicket(t, "Other")
	t4 := f.addTicket(t, "")

	res, err := f.svc.RenameVenue(ctx, a.ID, "B")
	require.NoError(t, err)
	assert.Equal(t, 2, res.TicketsUpdated)

	assert.Equal(t, "B", f.ticket(t, t1.ID).VenueName)
	assert.Equal(t, "B", f.ticket(t, t2.ID).VenueName)
	assert.Equal(t, "Other", f.ticket(t, t3.ID).VenueName)
	assert.Equal(t, "", f.ticket(t, t4.ID).VenueName)

	left, err := f.svc.ListTicketsByVenue(ctx, "A")
	require.NoError(t, err)
	assert.Empty(t, left)

	last := f.changes.changes[len(f.changes.changes)-1]
	assert.Equal(t, domain.VenueRenamed, last.Kind)
	assert.Equal(t, "A", last.OldName)
	assert.Equal(t, "B", last.Name)
}

func TestRenameVenue_DuplicateLeavesEverythingUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	x := f.addVenue(t, "X")
	y := f.addVenue(t, "Y")
	tx := f.addTicket(t, "X")

	_, err := f.svc.RenameVenue(ctx, x.ID, "Y")
	require.ErrorIs(t, err, catalog.ErrDuplicateName)

	gotX, err := f.svc.GetVenue(ctx, x.ID)
	require.NoError(t, err)
	assert.Equal(t, "X", gotX.Name)

	gotY, err := f.svc.GetVenue(ctx, y.ID)
	require.NoError(t, err)
	assert.Equal(t, "Y", gotY.Name)

	assert.Equal(t, "X", f.ticket(t, tx.ID).VenueName)
	assert.Zero(t, f.store.updates)
}

func TestRenameVenue_SameNameIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := f.addVenue(t, "Cafeteria")
	tk := f.addTicket(t, "Cafeteria")
	published := len(f.changes.changes)

	res, err := f.svc.RenameVenue(ctx, v.ID, " Cafeteria")
	require.NoError(t, err)
	assert.Equal(t, v, res.Venue)
	assert.Zero(t, res.TicketsUpdated)

	assert.Zero(t, f.store.updates)
	assert.Equal(t, "Cafeteria", f.ticket(t, tk.ID).VenueName)
	assert.Len(t, f.changes.changes, published)
}

func TestRenameVenue_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := f.addVenue(t, "Cafeteria")

	_, err := f.svc.RenameVenue(ctx, 999, "Anything")
	assert.ErrorIs(t, err, catalog.ErrVenueNotFound)

	_, err = f.svc.RenameVenue(ctx, v.ID, "")
	assert.ErrorIs(t, err, catalog.ErrEmptyName)

	// Malformed input is rejected before the id is looked up.
	_, err = f.svc.RenameVenue(ctx, 999, "   ")
	assert.ErrorIs(t, err, catalog.ErrEmptyName)
	assert.NotErrorIs(t, err, catalog.ErrVenueNotFound)
}

func TestRenameVenue_PartialCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := f.addVenue(t, "Cafeteria")
	t1 := f.addTicket(t, "Cafeteria")
	t2 := f.addTicket(t, "Cafeteria")
	t3 := f.addTicket(t, "Cafeteria")
	f.store.failOn[t2.ID] = true

	res, err := f.svc.RenameVenue(ctx, v.ID, "Central Cafeteria")
	require.NoError(t, err, "a partial cascade is not an error")

	assert.Equal(t, "Central Cafeteria", res.Venue.Name)
	assert.Equal(t, 2, res.TicketsUpdated)
	assert.Equal(t, 1, res.TicketsFailed)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, t2.ID, res.Failures[0].TicketID)
	assert.Contains(t, res.Failures[0].Error, errInjected.Error())

	assert.Equal(t, "Central Cafeteria", f.ticket(t, t1.ID).VenueName)
	assert.Equal(t, "Cafeteria", f.ticket(t, t2.ID).VenueName)
	assert.Equal(t, "Central Cafeteria", f.ticket(t, t3.ID).VenueName)

	require.Len(t, f.alerts.events, 1)
	ev := f.alerts.events[0]
	assert.Equal(t, domain.CascadeRename, ev.Operation)
	assert.Equal(t, "Cafeteria", ev.OldName)
	assert.Equal(t, now, ev.OccurredAt)

	// The leftover ticket now names a venue that does not exist; repair clears it.
	f.store.failOn[t2.ID] = false
	rep, err := f.svc.Repair(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Cleared)
	assert.Equal(t, "", f.ticket(t, t2.ID).VenueName)
}

func TestVenueUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := f.addVenue(t, "Cafeteria")
	f.addTicket(t, "Cafeteria")
	f.addTicket(t, "Cafeteria")
	f.addTicket(t, "")

	usage, err := f.svc.VenueUsage(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v, usage.Venue)
	assert.Equal(t, 2, usage.ReferencingTickets)

	_, err = f.svc.VenueUsage(ctx, 42)
	assert.ErrorIs(t, err, catalog.ErrVenueNotFound)
}

func TestDeleteVenue_BlockPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := f.addVenue(t, "Cafeteria")
	t1 := f.addTicket(t, "Cafeteria")
	t2 := f.addTicket(t, "Cafeteria")

	_, err := f.svc.DeleteVenue(ctx, v.ID, domain.DeletePolicyBlock)
	require.ErrorIs(t, err, catalog.ErrVenueInUse)

	var inUse *catalog.VenueInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, 2, inUse.Count)
	assert.Equal(t, v.ID, inUse.VenueID)

	got, err := f.svc.GetVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v, *got)
	assert.Equal(t, "Cafeteria", f.ticket(t, t1.ID).VenueName)
	assert.Equal(t, "Cafeteria", f.ticket(t, t2.ID).VenueName)
	assert.Zero(t, f.store.updates)
}

func TestDeleteVenue_BlockPolicyUnreferenced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := f.addVenue(t, "Snack Bar")
	f.addTicket(t, "")

	res, err := f.svc.DeleteVenue(ctx, v.ID, domain.DeletePolicyBlock)
	require.NoError(t, err)
	assert.Equal(t, "Snack Bar", res.VenueName)
	assert.Zero(t, res.ReferencingTickets)

	_, err = f.svc.GetVenue(ctx, v.ID)
	assert.ErrorIs(t, err, catalog.ErrVenueNotFound)

	last := f.changes.changes[len(f.changes.changes)-1]
	assert.Equal(t, domain.VenueDeleted, last.Kind)
}

func TestDeleteVenue_ClearPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := f.addVenue(t, "Cafeteria")
	f.addVenue(t, "Snack Bar")
	t1 := f.addTicket(t, "Cafeteria")
	t2 := f.addTicket(t, "Cafeteria")
	t3 := f.addTicket(t, "Snack Bar")

	res, err := f.svc.DeleteVenue(ctx, v.ID, domain.DeletePolicyClear)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ReferencingTickets)
	assert.Equal(t, 2, res.TicketsCleared)
	assert.Zero(t, res.TicketsFailed)

	_, err = f.svc.GetVenue(ctx, v.ID)
	assert.ErrorIs(t, err, catalog.ErrVenueNotFound)

	assert.Equal(t, "", f.ticket(t, t1.ID).VenueName)
	assert.Equal(t, "", f.ticket(t, t2.ID).VenueName)
	assert.Equal(t, "Snack Bar", f.ticket(t, t3.ID).VenueName)
}

func TestDeleteVenue_ClearPolicyPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := f.addVenue(t, "Cafeteria")
	t1 := f.addTicket(t, "Cafeteria")
	t2 := f.addTicket(t, "Cafeteria")
	f.store.failOn[t1.ID] = true

	res, err := f.svc.DeleteVenue(ctx, v.ID, domain.DeletePolicyClear)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TicketsCleared)
	assert.Equal(t, 1, res.TicketsFailed)
	assert.True(t, res.Partial())

	assert.Equal(t, "Cafeteria", f.ticket(t, t1.ID).VenueName)
	assert.Equal(t, "", f.ticket(t, t2.ID).VenueName)

	require.Len(t, f.alerts.events, 1)
	assert.Equal(t, domain.CascadeDelete, f.alerts.events[0].Operation)
}

func TestDeleteVenue_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addTicket(t, "Cafeteria")

	_, err := f.svc.DeleteVenue(ctx, 7, domain.DeletePolicyClear)
	assert.ErrorIs(t, err, catalog.ErrVenueNotFound)

	_, err = f.svc.DeleteVenue(ctx, 7, domain.DeletePolicyBlock)
	assert.ErrorIs(t, err, catalog.ErrVenueNotFound)

	_, err = f.svc.DeleteVenue(ctx, 7, domain.DeletePolicy("cascade"))
	assert.ErrorIs(t, err, catalog.ErrInvalidPolicy)

	assert.Zero(t, f.store.updates)
}

func TestRepair_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := f.addVenue(t, "Cafeteria")
	f.addVenue(t, "Snack Bar")
	t1 := f.addTicket(t, "Cafeteria")
	t2 := f.addTicket(t, "Snack Bar")
	t3 := f.addTicket(t, "Gone")

	// A crash between the catalog delete and the cascade leaves t1 orphaned.
	require.NoError(t, f.store.Venues().Delete(ctx, v.ID))

	first, err := f.svc.Repair(ctx)
	require.NoError(t, err)
	assert.Equal(t, &domain.RepairReport{Orphaned: 2, Cleared: 2}, first)

	assert.Equal(t, "", f.ticket(t, t1.ID).VenueName)
	assert.Equal(t, "Snack Bar", f.ticket(t, t2.ID).VenueName)
	assert.Equal(t, "", f.ticket(t, t3.ID).VenueName)

	updates := f.store.updates
	second, err := f.svc.Repair(ctx)
	require.NoError(t, err)
	assert.Equal(t, &domain.RepairReport{}, second)
	assert.Equal(t, updates, f.store.updates)
}

func TestListVenues_UsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addVenue(t, "Cafeteria")

	first, err := f.svc.ListVenues(ctx)
	require.NoError(t, err)
	second, err := f.svc.ListVenues(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.cache.loads)

	f.addVenue(t, "Snack Bar")
	third, err := f.svc.ListVenues(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, f.cache.loads)
	assert.Equal(t, 2, f.cache.invalidated)
}

func TestUniqueness_AcrossSequences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addVenue(t, "A")
	b := f.addVenue(t, "B")

	_, _ = f.svc.RenameVenue(ctx, a.ID, "B")
	_, _ = f.svc.RenameVenue(ctx, b.ID, "C")
	_, _ = f.svc.AddVenue(ctx, "C")
	_, _ = f.svc.RenameVenue(ctx, a.ID, "C")
	_, _ = f.svc.AddVenue(ctx, "A")

	venues, err := f.svc.ListVenues(ctx)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, v := range venues {
		assert.False(t, seen[v.Name], "duplicate venue name %q", v.Name)
		seen[v.Name] = true
	}
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context) (func(), error) {
	return nil, catalog.ErrLockNotAcquired
}

func TestLockFailureAbortsBeforeStoreAccess(t *testing.T) {
	store := memory.NewStore()
	svc := catalog.New(catalog.Deps{Store: store, Locker: failingLocker{}})

	_, err := svc.AddVenue(context.Background(), "Cafeteria")
	require.ErrorIs(t, err, catalog.ErrLockNotAcquired)

	venues, err := store.Venues().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, venues)
}

func TestLocalLocker_RespectsContext(t *testing.T) {
	l := catalog.NewLocalLocker()

	unlock, err := l.Lock(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock2, err := l.Lock(context.Background())
	require.NoError(t, err)
	unlock2()
}

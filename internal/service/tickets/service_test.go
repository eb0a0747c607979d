package tickets_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/canteen-go/internal/clock"
	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository/memory"
	"github.com/kirinyoku/canteen-go/internal/service/catalog"
	"github.com/kirinyoku/canteen-go/internal/service/tickets"
)

var now = time.Date(2024, 2, 12, 9, 15, 0, 0, time.UTC)

func setup(t *testing.T) (*tickets.Service, *memory.Store) {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	for _, e := range []domain.Employee{
		{ID: 10, Login: "alice", Email: "alice@example.com", Role: domain.RoleEmployee},
		{ID: 20, Login: "bob", Email: "bob@example.com", Role: domain.RoleEmployee},
	} {
		require.NoError(t, store.Employees().Create(ctx, e))
	}
	_, err := store.Venues().Create(ctx, "Cafeteria")
	require.NoError(t, err)

	return tickets.New(store, catalog.NewLocalLocker(), clock.NewFixed(now), nil), store
}

func validInput() tickets.Input {
	return tickets.Input{
		EmployeeID: 10,
		HolderName: " Alice Martin ",
		PartySize:  2,
		TicketType: domain.TicketSubsidized,
		OfferKind:  domain.OfferSandwich,
		VenueName:  "Cafeteria",
	}
}

func TestCreate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tk, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	assert.NotZero(t, tk.ID)
	assert.Equal(t, "Alice Martin", tk.HolderName)
	assert.Equal(t, "Cafeteria", tk.VenueName)
	assert.Equal(t, now, tk.CreatedAt)

	got, err := svc.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, tk, got)
}

func TestCreate_WithoutVenue(t *testing.T) {
	svc, _ := setup(t)

	in := validInput()
	in.VenueName = "  "
	tk, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "", tk.VenueName)
}

func TestCreate_Rejects(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(in *tickets.Input)
		want   error
	}{
		{"empty holder", func(in *tickets.Input) { in.HolderName = " " }, tickets.ErrInvalidTicket},
		{"party too small", func(in *tickets.Input) { in.PartySize = 0 }, tickets.ErrInvalidTicket},
		{"party too large", func(in *tickets.Input) { in.PartySize = 11 }, tickets.ErrInvalidTicket},
		{"bad type", func(in *tickets.Input) { in.TicketType = "free" }, tickets.ErrInvalidTicket},
		{"bad offer", func(in *tickets.Input) { in.OfferKind = "buffet" }, tickets.ErrInvalidTicket},
		{"no employee", func(in *tickets.Input) { in.EmployeeID = 0 }, tickets.ErrInvalidTicket},
		{"unknown venue", func(in *tickets.Input) { in.VenueName = "Snack Bar" }, tickets.ErrUnknownVenue},
		{"venue differs by case", func(in *tickets.Input) { in.VenueName = "cafeteria" }, tickets.ErrUnknownVenue},
		{"unknown employee", func(in *tickets.Input) { in.EmployeeID = 99 }, tickets.ErrEmployeeNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Create(ctx, in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	all, err := store.Tickets().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdate_Partial(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tk, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	size := 4
	got, err := svc.Update(ctx, tk.ID, domain.TicketPatch{PartySize: &size})
	require.NoError(t, err)
	assert.Equal(t, 4, got.PartySize)
	assert.Equal(t, "Cafeteria", got.VenueName)
	assert.Equal(t, tk.HolderName, got.HolderName)

	none := ""
	got, err = svc.Update(ctx, tk.ID, domain.TicketPatch{VenueName: &none})
	require.NoError(t, err)
	assert.Equal(t, "", got.VenueName)
	assert.Equal(t, 4, got.PartySize)

	unknown := "Rooftop"
	_, err = svc.Update(ctx, tk.ID, domain.TicketPatch{VenueName: &unknown})
	assert.ErrorIs(t, err, tickets.ErrUnknownVenue)

	_, err = svc.Update(ctx, tk.ID, domain.TicketPatch{})
	assert.ErrorIs(t, err, tickets.ErrEmptyPatch)

	_, err = svc.Update(ctx, 404, domain.TicketPatch{PartySize: &size})
	assert.ErrorIs(t, err, tickets.ErrTicketNotFound)
}

func TestOwnTickets(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	in := validInput()
	in.EmployeeID = 20
	mine, err := svc.CreateOwn(ctx, 10, in)
	require.NoError(t, err)
	assert.Equal(t, int64(10), mine.EmployeeID)

	size := 3
	_, err = svc.UpdateOwn(ctx, 20, mine.ID, domain.TicketPatch{PartySize: &size})
	assert.ErrorIs(t, err, tickets.ErrForbidden)

	err = svc.DeleteOwn(ctx, 20, mine.ID)
	assert.ErrorIs(t, err, tickets.ErrForbidden)

	updated, err := svc.UpdateOwn(ctx, 10, mine.ID, domain.TicketPatch{PartySize: &size})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.PartySize)

	list, err := svc.ListByEmployee(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteOwn(ctx, 10, mine.ID))
	_, err = svc.Get(ctx, mine.ID)
	assert.ErrorIs(t, err, tickets.ErrTicketNotFound)

	err = svc.DeleteOwn(ctx, 10, mine.ID)
	assert.ErrorIs(t, err, tickets.ErrTicketNotFound)
}

func TestCreate_WaitsForCatalogLock(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Employees().Create(ctx, domain.Employee{ID: 10, Login: "alice", Email: "a@example.com", Role: domain.RoleEmployee}))
	_, err := store.Venues().Create(ctx, "Cafeteria")
	require.NoError(t, err)

	locker := catalog.NewLocalLocker()
	svc := tickets.New(store, locker, clock.NewFixed(now), nil)

	unlock, err := locker.Lock(ctx)
	require.NoError(t, err)

	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = svc.Create(blocked, validInput())
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	in := validInput()
	in.VenueName = ""
	_, err = svc.Create(blocked, in)
	assert.NoError(t, err, "tickets without a venue do not take the lock")

	unlock()
	_, err = svc.Create(ctx, validInput())
	assert.NoError(t, err)
}

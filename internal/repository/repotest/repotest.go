// Package repotest holds the behaviour every repository.Store backend must
// share. Backends call Run from their own tests.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository"
)

// Factory returns an empty, migrated store.
type Factory func(t *testing.T) repository.Store

var now = time.Date(2024, 5, 6, 11, 30, 0, 0, time.UTC)

func Run(t *testing.T, newStore Factory) {
	t.Run("Venues", func(t *testing.T) { testVenues(t, newStore(t)) })
	t.Run("Tickets", func(t *testing.T) { testTickets(t, newStore(t)) })
	t.Run("Orphaned", func(t *testing.T) { testOrphaned(t, newStore(t)) })
	t.Run("Employees", func(t *testing.T) { testEmployees(t, newStore(t)) })
	t.Run("DeleteEmployeeCascades", func(t *testing.T) { testDeleteEmployeeCascades(t, newStore(t)) })
	t.Run("RunTxRollsBack", func(t *testing.T) { testRunTxRollsBack(t, newStore(t)) })
	t.Run("RunTxNested", func(t *testing.T) { testRunTxNested(t, newStore(t)) })
}

func employee(id int64, login string) domain.Employee {
	return domain.Employee{
		ID:           id,
		Login:        login,
		FullName:     "Employee " + login,
		Email:        login + "@example.com",
		PasswordHash: "$2a$04$hash",
		Role:         domain.RoleEmployee,
		CreatedAt:    now,
	}
}

func ticket(employeeID int64, venue string) domain.Ticket {
	return domain.Ticket{
		EmployeeID: employeeID,
		HolderName: "Holder",
		PartySize:  2,
		TicketType: domain.TicketSubsidized,
		OfferKind:  domain.OfferSelfService,
		VenueName:  venue,
		CreatedAt:  now,
	}
}

func testVenues(t *testing.T, s repository.Store) {
	ctx := context.Background()
	venues := s.Venues()

	caf, err := venues.Create(ctx, "Cafeteria")
	require.NoError(t, err)
	assert.Positive(t, caf.ID)
	assert.Equal(t, "Cafeteria", caf.Name)

	grill, err := venues.Create(ctx, "Rooftop Grill")
	require.NoError(t, err)
	assert.Greater(t, grill.ID, caf.ID)

	_, err = venues.Create(ctx, "Cafeteria")
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, err := venues.GetByName(ctx, "Cafeteria")
	require.NoError(t, err)
	assert.Equal(t, caf.ID, got.ID)

	_, err = venues.GetByName(ctx, "cafeteria")
	assert.ErrorIs(t, err, repository.ErrNotFound, "names match case-sensitively")

	renamed, err := venues.Rename(ctx, caf.ID, "Central Cafeteria")
	require.NoError(t, err)
	assert.Equal(t, domain.Venue{ID: caf.ID, Name: "Central Cafeteria"}, *renamed)

	_, err = venues.Rename(ctx, caf.ID, "Rooftop Grill")
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = venues.Rename(ctx, 999, "Nowhere")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := venues.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Venue{
		{ID: caf.ID, Name: "Central Cafeteria"},
		{ID: grill.ID, Name: "Rooftop Grill"},
	}, list)

	require.NoError(t, venues.Delete(ctx, caf.ID))
	_, err = venues.Get(ctx, caf.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, venues.Delete(ctx, caf.ID), repository.ErrNotFound)

	again, err := venues.Create(ctx, "Central Cafeteria")
	require.NoError(t, err)
	assert.NotEqual(t, caf.ID, again.ID, "ids are not reused")
}

func testTickets(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Employees().Create(ctx, employee(1, "ann")))
	tickets := s.Tickets()

	_, err := tickets.Create(ctx, ticket(42, ""))
	assert.ErrorIs(t, err, repository.ErrForeignKey)

	a, err := tickets.Create(ctx, ticket(1, "Cafeteria"))
	require.NoError(t, err)
	b, err := tickets.Create(ctx, ticket(1, "cafeteria"))
	require.NoError(t, err)
	c, err := tickets.Create(ctx, ticket(1, ""))
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)

	got, err := tickets.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cafeteria", got.VenueName)
	assert.WithinDuration(t, now, got.CreatedAt, time.Second)

	byVenue, err := tickets.ListByVenueName(ctx, "Cafeteria")
	require.NoError(t, err)
	require.Len(t, byVenue, 1)
	assert.Equal(t, a.ID, byVenue[0].ID)

	n, err := tickets.CountByVenueName(ctx, "Cafeteria")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = tickets.CountByVenueName(ctx, "Nowhere")
	require.NoError(t, err)
	assert.Zero(t, n)

	size := 5
	require.NoError(t, tickets.Update(ctx, a.ID, domain.TicketPatch{PartySize: &size}))
	got, err = tickets.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.PartySize)
	assert.Equal(t, "Holder", got.HolderName, "unset fields are kept")
	assert.Equal(t, "Cafeteria", got.VenueName)

	none := ""
	require.NoError(t, tickets.Update(ctx, a.ID, domain.TicketPatch{VenueName: &none}))
	got, err = tickets.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.VenueName)

	assert.ErrorIs(t, tickets.Update(ctx, 999, domain.TicketPatch{PartySize: &size}), repository.ErrNotFound)

	mine, err := tickets.ListByEmployee(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	require.NoError(t, tickets.Delete(ctx, c.ID))
	_, err = tickets.Get(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, tickets.Delete(ctx, c.ID), repository.ErrNotFound)

	all, err := tickets.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testOrphaned(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Employees().Create(ctx, employee(1, "ann")))

	_, err := s.Venues().Create(ctx, "Cafeteria")
	require.NoError(t, err)

	_, err = s.Tickets().Create(ctx, ticket(1, "Cafeteria"))
	require.NoError(t, err)
	_, err = s.Tickets().Create(ctx, ticket(1, ""))
	require.NoError(t, err)
	ghost, err := s.Tickets().Create(ctx, ticket(1, "Old Canteen"))
	require.NoError(t, err)

	orphaned, err := s.Tickets().ListOrphaned(ctx)
	require.NoError(t, err)
	require.Len(t, orphaned, 1)
	assert.Equal(t, ghost.ID, orphaned[0].ID)
}

func testEmployees(t *testing.T, s repository.Store) {
	ctx := context.Background()
	emps := s.Employees()

	require.NoError(t, emps.Create(ctx, employee(1, "ann")))
	require.NoError(t, emps.Create(ctx, employee(2, "bob")))

	assert.ErrorIs(t, emps.Create(ctx, employee(1, "other")), repository.ErrConflict)

	dupLogin := employee(3, "ann")
	dupLogin.Email = "unique@example.com"
	assert.ErrorIs(t, emps.Create(ctx, dupLogin), repository.ErrConflict)

	got, err := emps.GetByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.ID)

	got, err = emps.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ID)
	assert.Equal(t, "$2a$04$hash", got.PasswordHash)

	_, err = emps.Get(ctx, 9)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	name := "Ann Other"
	role := domain.RoleAdmin
	require.NoError(t, emps.Update(ctx, 1, domain.EmployeePatch{FullName: &name, Role: &role}))
	got, err = emps.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ann Other", got.FullName)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, "ann", got.Login)

	taken := "bob@example.com"
	assert.ErrorIs(t, emps.Update(ctx, 1, domain.EmployeePatch{Email: &taken}), repository.ErrConflict)
	assert.ErrorIs(t, emps.Update(ctx, 9, domain.EmployeePatch{FullName: &name}), repository.ErrNotFound)

	list, err := emps.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.EqualValues(t, 1, list[0].ID)
}

func testDeleteEmployeeCascades(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Employees().Create(ctx, employee(1, "ann")))
	require.NoError(t, s.Employees().Create(ctx, employee(2, "bob")))

	_, err := s.Tickets().Create(ctx, ticket(1, ""))
	require.NoError(t, err)
	kept, err := s.Tickets().Create(ctx, ticket(2, ""))
	require.NoError(t, err)

	require.NoError(t, s.Employees().Delete(ctx, 1))
	assert.ErrorIs(t, s.Employees().Delete(ctx, 1), repository.ErrNotFound)

	all, err := s.Tickets().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.ID, all[0].ID)
}

func testRunTxRollsBack(t *testing.T, s repository.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Venues().Create(ctx, "Cafeteria"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Venues().GetByName(ctx, "Cafeteria")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = s.RunTx(ctx, func(ctx context.Context, tx repository.Store) error {
		_, err := tx.Venues().Create(ctx, "Cafeteria")
		return err
	})
	require.NoError(t, err)

	_, err = s.Venues().GetByName(ctx, "Cafeteria")
	assert.NoError(t, err)
}

func testRunTxNested(t *testing.T, s repository.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Venues().Create(ctx, "Cafeteria"); err != nil {
			return err
		}
		return tx.RunTx(ctx, func(ctx context.Context, inner repository.Store) error {
			if _, err := inner.Venues().GetByName(ctx, "Cafeteria"); err != nil {
				return err
			}
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Venues().GetByName(ctx, "Cafeteria")
	assert.ErrorIs(t, err, repository.ErrNotFound, "inner failure rolls back the outer transaction")
}

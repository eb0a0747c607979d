package employees_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kirinyoku/canteen-go/internal/auth"
	"github.com/kirinyoku/canteen-go/internal/clock"
	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository/memory"
	"github.com/kirinyoku/canteen-go/internal/service/employees"
)

var now = time.Date(2024, 9, 1, 7, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*employees.Service, *memory.Store, *auth.Issuer) {
	t.Helper()

	c := clock.NewFixed(now)
	store := memory.NewStore()
	issuer := auth.NewIssuer("test-secret", time.Hour, c)
	svc := employees.New(store, issuer, c, nil, employees.Config{BcryptCost: bcrypt.MinCost})

	return svc, store, issuer
}

func alice() employees.RegisterInput {
	return employees.RegisterInput{
		ID:       1001,
		Login:    "alice",
		FullName: "Alice Martin",
		Email:    "Alice@Example.com",
		Address:  "1 Main St",
		Password: "pass1234",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, issuer := setup(t)
	ctx := context.Background()

	e, err := svc.Register(ctx, alice())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, e.Role)
	assert.Equal(t, "alice@example.com", e.Email)
	assert.Equal(t, now, e.CreatedAt)
	assert.NotEqual(t, "pass1234", e.PasswordHash)

	for _, id := range []string{"alice", "ALICE@example.com"} {
		sess, err := svc.Login(ctx, id, "pass1234")
		require.NoError(t, err, id)
		assert.Equal(t, e.ID, sess.Employee.ID)

		claims, err := issuer.Parse(sess.Token.Token)
		require.NoError(t, err)
		assert.Equal(t, e.ID, claims.EmployeeID)
		assert.Equal(t, domain.RoleEmployee, claims.Role)
	}

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, employees.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "pass1234")
	assert.ErrorIs(t, err, employees.ErrInvalidCredentials)
}

func TestRegister_Rejects(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, alice())
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(in *employees.RegisterInput)
		want   error
	}{
		{"duplicate id", func(in *employees.RegisterInput) {
			in.Login, in.Email = "alice2", "alice2@example.com"
		}, employees.ErrEmployeeExists},
		{"duplicate email", func(in *employees.RegisterInput) {
			in.ID, in.Login = 1002, "alice2"
		}, employees.ErrEmailTaken},
		{"duplicate login", func(in *employees.RegisterInput) {
			in.ID, in.Email = 1002, "alice2@example.com"
		}, employees.ErrLoginTaken},
		{"short login", func(in *employees.RegisterInput) { in.ID, in.Login = 1003, "al" }, employees.ErrInvalidEmployee},
		{"bad email", func(in *employees.RegisterInput) { in.ID, in.Email = 1003, "not-an-email" }, employees.ErrInvalidEmployee},
		{"short password", func(in *employees.RegisterInput) { in.ID, in.Password = 1003, "abc" }, employees.ErrInvalidEmployee},
		{"bad role", func(in *employees.RegisterInput) { in.ID, in.Role = 1003, "root" }, employees.ErrInvalidEmployee},
		{"no id", func(in *employees.RegisterInput) { in.ID = 0 }, employees.ErrInvalidEmployee},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := alice()
			tc.mutate(&in)
			_, err := svc.Register(ctx, in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpdate(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, alice())
	require.NoError(t, err)

	bob := alice()
	bob.ID, bob.Login, bob.Email = 2002, "bob", "bob@example.com"
	_, err = svc.Register(ctx, bob)
	require.NoError(t, err)

	addr := "2 Side St"
	pw := "newpass"
	admin := domain.RoleAdmin
	got, err := svc.Update(ctx, 1001, employees.UpdateInput{Address: &addr, Password: &pw, Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, "2 Side St", got.Address)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, "alice", got.Login)

	_, err = svc.Login(ctx, "alice", "newpass")
	require.NoError(t, err)

	taken := "bob@example.com"
	_, err = svc.Update(ctx, 1001, employees.UpdateInput{Email: &taken})
	assert.ErrorIs(t, err, employees.ErrEmailTaken)

	same := "alice@example.com"
	_, err = svc.Update(ctx, 1001, employees.UpdateInput{Email: &same})
	assert.NoError(t, err, "keeping the own email is not a conflict")

	_, err = svc.Update(ctx, 9, employees.UpdateInput{Address: &addr})
	assert.ErrorIs(t, err, employees.ErrEmployeeNotFound)
}

func TestDelete_RemovesTickets(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, alice())
	require.NoError(t, err)

	_, err = store.Tickets().Create(ctx, domain.Ticket{
		EmployeeID: 1001,
		HolderName: "Alice Martin",
		PartySize:  1,
		TicketType: domain.TicketSubsidized,
		OfferKind:  domain.OfferSelfService,
		CreatedAt:  now,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1001))

	left, err := store.Tickets().ListByEmployee(ctx, 1001)
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.ErrorIs(t, svc.Delete(ctx, 1001), employees.ErrEmployeeNotFound)
}

package postgresrepo_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/canteen-go/internal/postgres"
	"github.com/kirinyoku/canteen-go/internal/repository"
	postgresrepo "github.com/kirinyoku/canteen-go/internal/repository/postgres"
	"github.com/kirinyoku/canteen-go/internal/repository/repotest"
	"github.com/kirinyoku/canteen-go/migrations"
)

// TestStore runs against the database in TEST_DATABASE_URL and truncates
// its tables.
func TestStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := postgres.New(ctx, postgres.Config{DSN: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.ApplyPostgres(ctx, pool))

	repotest.Run(t, func(t *testing.T) repository.Store {
		_, err := pool.Exec(ctx, `TRUNCATE tickets, venues, employees RESTART IDENTITY CASCADE`)
		require.NoError(t, err)

		return postgresrepo.NewStore(pool)
	})
}

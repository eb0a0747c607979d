package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/canteen-go/internal/sqlite"
)

func TestMigrationNamesAreOrdered(t *testing.T) {
	for _, dir := range []string{"postgres", "sqlite"} {
		names, err := migrationNames(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"0001_init.sql", "0002_tickets.sql"}, names, dir)
	}
}

func TestApplySQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()

	db, err := sqlite.New(ctx, sqlite.Config{Path: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, ApplySQLite(ctx, db))
	require.NoError(t, ApplySQLite(ctx, db))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 2, n)

	for _, table := range []string{"employees", "venues", "tickets"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		assert.NoError(t, err, table)
	}
}

package sqliterepo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/canteen-go/internal/repository"
	"github.com/kirinyoku/canteen-go/internal/repository/repotest"
	sqliterepo "github.com/kirinyoku/canteen-go/internal/repository/sqlite"
	"github.com/kirinyoku/canteen-go/internal/sqlite"
	"github.com/kirinyoku/canteen-go/migrations"
)

func TestStore(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store {
		ctx := context.Background()

		db, err := sqlite.New(ctx, sqlite.Config{Path: filepath.Join(t.TempDir(), "canteen.db")})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		require.NoError(t, migrations.ApplySQLite(ctx, db))

		return sqliterepo.NewStore(db)
	})
}

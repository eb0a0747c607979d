package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/canteen-go/internal/domain"
)

func sqliteEnv(t *testing.T) {
	t.Helper()

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "canteen.db"))
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("RABBITMQ_URL", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, "--format", "yaml", "repair")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestSeedIsRepeatable(t *testing.T) {
	sqliteEnv(t)

	file := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
venues:
  - Cafeteria
  - "  Rooftop Grill  "
employees:
  - id: 1
    login: admin
    full_name: Ada Admin
    email: admin@example.com
    password: secret
    role: admin
  - id: 2
    login: bob
    full_name: Bob Baker
    email: bob@example.com
    password: secret
`), 0o600))

	out, err := run(t, "--format", "json", "seed", "--file", file)
	require.NoError(t, err)

	var first SeedResult
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Equal(t, SeedResult{VenuesCreated: 2, EmployeesCreated: 2}, first)

	out, err = run(t, "--format", "json", "seed", "--file", file)
	require.NoError(t, err)

	var second SeedResult
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	assert.Equal(t, SeedResult{VenuesSkipped: 2, EmployeesSkipped: 2}, second)

	out, err = run(t, "--format", "json", "venues", "list")
	require.NoError(t, err)

	var venues []domain.Venue
	require.NoError(t, json.Unmarshal([]byte(out), &venues))
	require.Len(t, venues, 2)
	assert.Equal(t, "Rooftop Grill", venues[1].Name)
}

func TestSeedMissingFile(t *testing.T) {
	sqliteEnv(t)

	_, err := run(t, "seed", "--file", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read seed file")
}

func TestVenuesLifecycle(t *testing.T) {
	sqliteEnv(t)

	out, err := run(t, "venues", "add", "Cafeteria")
	require.NoError(t, err)
	assert.Contains(t, out, `added venue 1 "Cafeteria"`)

	_, err = run(t, "venues", "add", "Cafeteria")
	require.Error(t, err)

	out, err = run(t, "--format", "json", "venues", "rename", "1", "Central Cafeteria")
	require.NoError(t, err)

	var res domain.RenameResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Cafeteria", res.OldName)
	assert.Equal(t, "Central Cafeteria", res.Venue.Name)
	assert.Zero(t, res.TicketsUpdated)

	_, err = run(t, "venues", "delete", "1", "--policy", "sideways")
	require.Error(t, err)

	out, err = run(t, "venues", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `deleted "Central Cafeteria" (block)`)

	_, err = run(t, "venues", "delete", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid id")
}

func TestRepairOnCleanCatalog(t *testing.T) {
	sqliteEnv(t)

	out, err := run(t, "repair")
	require.NoError(t, err)
	assert.Equal(t, "orphaned=0 cleared=0 failed=0\n", out)
}

func TestMigrate(t *testing.T) {
	sqliteEnv(t)

	for i := 0; i < 2; i++ {
		out, err := run(t, "migrate")
		require.NoError(t, err)
		assert.Equal(t, "migrations applied (sqlite)\n", out)
	}
}

func TestMigrateMemoryDriver(t *testing.T) {
	sqliteEnv(t)
	t.Setenv("DB_DRIVER", "memory")

	_, err := run(t, "migrate")
	require.Error(t, err)
}

func TestPrintAlert(t *testing.T) {
	ev := domain.CascadeFailedEvent{
		Operation:  domain.CascadeRepair,
		Failures:   []domain.CascadeFailure{{TicketID: 3, Error: "timeout"}},
		OccurredAt: time.Date(2024, 5, 6, 11, 30, 0, 0, time.UTC),
	}

	var text bytes.Buffer
	require.NoError(t, printAlert(&RootOptions{Format: "text"}, &text)(context.Background(), ev))
	assert.Contains(t, text.String(), "cascade repair incomplete")

	var js bytes.Buffer
	require.NoError(t, printAlert(&RootOptions{Format: "json"}, &js)(context.Background(), ev))

	var got domain.CascadeFailedEvent
	require.NoError(t, json.Unmarshal(js.Bytes(), &got))
	assert.Equal(t, ev, got)
}

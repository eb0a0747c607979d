package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrationFiles embed.FS

const advisoryLockID int64 = 802345671

// execer hides the pgx / database/sql differences from apply.
type execer interface {
	exec(ctx context.Context, query string, args ...any) error
	exists(ctx context.Context, name string) (bool, error)
}

// ApplyPostgres runs the embedded Postgres migrations in filename order under
// an advisory lock.
func ApplyPostgres(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockID); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, advisoryLockID)
	}()

	if _, err := conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	name TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	return apply(ctx, "postgres", pgxExecer{conn: conn})
}

// ApplySQLite runs the embedded SQLite migrations in filename order. SQLite
// has a single writer, so no extra lock is taken.
func ApplySQLite(ctx context.Context, db *sql.DB) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	name TEXT PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	return apply(ctx, "sqlite", sqlExecer{conn: conn})
}

func apply(ctx context.Context, dir string, ex execer) error {
	names, err := migrationNames(dir)
	if err != nil {
		return err
	}

	for _, name := range names {
		applied, err := ex.exists(ctx, name)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied {
			continue
		}

		sqlBytes, err := migrationFiles.ReadFile(path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		stmt := strings.TrimSpace(string(sqlBytes))
		if stmt == "" {
			continue
		}
		if err := ex.exec(ctx, stmt); err != nil {
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
		if err := ex.exec(ctx, recordStmt(dir), name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

func migrationNames(dir string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	return names, nil
}

func recordStmt(dir string) string {
	if dir == "postgres" {
		return `INSERT INTO schema_migrations (name) VALUES ($1)`
	}
	return `INSERT INTO schema_migrations (name) VALUES (?)`
}

type pgxExecer struct {
	conn *pgxpool.Conn
}

func (e pgxExecer) exec(ctx context.Context, query string, args ...any) error {
	_, err := e.conn.Exec(ctx, query, args...)
	return err
}

func (e pgxExecer) exists(ctx context.Context, name string) (bool, error) {
	var applied bool
	err := e.conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name).Scan(&applied)
	return applied, err
}

type sqlExecer struct {
	conn *sql.Conn
}

func (e sqlExecer) exec(ctx context.Context, query string, args ...any) error {
	_, err := e.conn.ExecContext(ctx, query, args...)
	return err
}

func (e sqlExecer) exists(ctx context.Context, name string) (bool, error) {
	var applied bool
	err := e.conn.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = ?)`, name).Scan(&applied)
	return applied, err
}

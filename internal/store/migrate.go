package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite"
)

// migrator is the per-backend half of a migration run. apply must execute
// the script and record its version atomically.
type migrator interface {
	ensureTable(ctx context.Context) error
	applied(ctx context.Context) (map[string]bool, error)
	apply(ctx context.Context, version, script string) error
}

// RunMigrations applies pending Postgres migrations in filename order and
// returns the versions it applied. There are no down migrations; fix
// forward only.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	return runMigrations(ctx, dialectPostgres, &pgMigrator{pool: pool})
}

func migrateSQLite(ctx context.Context, db *sql.DB) ([]string, error) {
	return runMigrations(ctx, dialectSQLite, &sqliteMigrator{db: db})
}

func runMigrations(ctx context.Context, dialect string, m migrator) ([]string, error) {
	versions, err := migrationVersions(migrationsFS, dialect)
	if err != nil {
		return nil, err
	}

	if err := m.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("creating schema_migrations table: %w", err)
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing applied migrations: %w", err)
	}

	var applied []string
	for _, version := range versions {
		if done[version] {
			continue
		}

		script, err := fs.ReadFile(migrationsFS, path.Join("migrations", dialect, version))
		if err != nil {
			return applied, fmt.Errorf("reading migration %s: %w", version, err)
		}
		if err := m.apply(ctx, version, string(script)); err != nil {
			return applied, fmt.Errorf("applying migration %s: %w", version, err)
		}
		applied = append(applied, version)
	}

	return applied, nil
}

// migrationVersions lists the .sql files of a dialect. Lexicographic order
// is version order.
func migrationVersions(fsys fs.FS, dialect string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, path.Join("migrations", dialect))
	if err != nil {
		return nil, fmt.Errorf("reading %s migrations: %w", dialect, err)
	}

	var versions []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		versions = append(versions, entry.Name())
	}
	slices.Sort(versions)
	return versions, nil
}

type pgMigrator struct {
	pool *pgxpool.Pool
}

func (m *pgMigrator) ensureTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (m *pgMigrator) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := m.pool.Query(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	return done, rows.Err()
}

func (m *pgMigrator) apply(ctx context.Context, version, script string) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, script); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type sqliteMigrator struct {
	db *sql.DB
}

func (m *sqliteMigrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

func (m *sqliteMigrator) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	return done, rows.Err()
}

func (m *sqliteMigrator) apply(ctx context.Context, version, script string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

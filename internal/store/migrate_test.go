package store

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationVersions(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"migrations/sqlite/002_add_store.sql":   {Data: []byte("--")},
		"migrations/sqlite/001_seen_items.sql":  {Data: []byte("--")},
		"migrations/sqlite/README.md":           {Data: []byte("notes")},
		"migrations/sqlite/archive/000_old.sql": {Data: []byte("--")},
	}

	got, err := migrationVersions(fsys, dialectSQLite)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_seen_items.sql", "002_add_store.sql"}, got)

	_, err = migrationVersions(fsys, dialectPostgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading postgres migrations")
}

func TestEmbeddedMigrations_DialectsInStep(t *testing.T) {
	t.Parallel()

	pg, err := migrationVersions(migrationsFS, dialectPostgres)
	require.NoError(t, err)
	lite, err := migrationVersions(migrationsFS, dialectSQLite)
	require.NoError(t, err)

	assert.NotEmpty(t, pg)
	assert.Equal(t, pg, lite, "every schema change needs a script for both backends")
}

func TestMigrateSQLite_AppliesOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newSQLite(t, filepath.Join(t.TempDir(), "seen.db"))

	// NewSQLiteStore already migrated; a second run has nothing to do.
	applied, err := migrateSQLite(ctx, s.db)
	require.NoError(t, err)
	assert.Empty(t, applied)

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT count(*) FROM schema_migrations").Scan(&count))
	want, err := migrationVersions(migrationsFS, dialectSQLite)
	require.NoError(t, err)
	assert.Equal(t, len(want), count)
}

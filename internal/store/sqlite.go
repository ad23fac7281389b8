package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// SQLiteStore implements SeenStore on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies
// pending migrations.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating seen store: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load implements SeenStore.Load.
func (s *SQLiteStore) Load(ctx context.Context) (domain.SeenSet, error) {
	rows, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	seen := domain.NewSeenSet()
	for i := range rows {
		seen.Add(rows[i].ID, rows[i].SeenAt)
	}
	return seen, nil
}

// Record implements SeenStore.Record in a single transaction.
func (s *SQLiteStore) Record(ctx context.Context, matches []domain.Match, at time.Time) error {
	fresh := entries(matches, domain.NewSeenSet(), at)
	if len(fresh) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, sqliteInsertSeen)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range fresh {
		e := &fresh[i]
		if _, err := stmt.ExecContext(ctx, e.ID, e.Title, e.Price, e.URL, formatTime(e.SeenAt)); err != nil {
			return fmt.Errorf("inserting seen item %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seen items: %w", err)
	}
	return nil
}

// Entries implements SeenStore.Entries.
func (s *SQLiteStore) Entries(ctx context.Context) ([]domain.SeenEntry, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectSeen)
	if err != nil {
		return nil, fmt.Errorf("querying seen items: %w", err)
	}
	defer rows.Close()

	var out []domain.SeenEntry
	for rows.Next() {
		var (
			e      domain.SeenEntry
			seenAt string
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Price, &e.URL, &seenAt); err != nil {
			return nil, fmt.Errorf("scanning seen item: %w", err)
		}
		e.SeenAt, err = time.Parse(time.RFC3339Nano, seenAt)
		if err != nil {
			return nil, fmt.Errorf("parsing seen_at of %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating seen items: %w", err)
	}
	return out, nil
}

// Reset implements SeenStore.Reset.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteResetSeen); err != nil {
		return fmt.Errorf("resetting seen items: %w", err)
	}
	return nil
}

// Ping implements SeenStore.Ping.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements SeenStore.Close.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

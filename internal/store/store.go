// Package store persists the notification history: the ids of items that
// were already reported. All business logic depends on the SeenStore
// interface, never on concrete implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// SeenStore defines the notification history operations.
type SeenStore interface {
	// Load returns every recorded id. A missing backing file or table is
	// created empty.
	Load(ctx context.Context) (domain.SeenSet, error)
	// Record persists the ids of matches. Ids already present are skipped.
	Record(ctx context.Context, matches []domain.Match, at time.Time) error
	// Entries returns the full history ordered by the time it was recorded.
	Entries(ctx context.Context) ([]domain.SeenEntry, error)
	// Reset forgets every recorded id.
	Reset(ctx context.Context) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

const (
	sqlitePrefix = "sqlite://"
	filePrefix   = "file://"
)

// Open selects a backend from dsn:
//   - postgres:// or postgresql:// opens a PostgresStore and applies migrations
//   - sqlite://<path> opens a SQLiteStore
//   - anything else (optionally file://) is a CSV file path
func Open(ctx context.Context, dsn string) (SeenStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("seen store location is required")
	}

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		s, err := NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if _, err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrating seen store: %w", err)
		}
		return s, nil
	case strings.HasPrefix(dsn, sqlitePrefix):
		return NewSQLiteStore(ctx, strings.TrimPrefix(dsn, sqlitePrefix))
	default:
		return NewFileStore(strings.TrimPrefix(dsn, filePrefix)), nil
	}
}

// entries converts matches into history rows, skipping ids already in seen
// and repeated ids within matches.
func entries(matches []domain.Match, seen domain.SeenSet, at time.Time) []domain.SeenEntry {
	fresh := seen.FilterNew(matches)
	out := make([]domain.SeenEntry, 0, len(fresh))
	for i := range fresh {
		out = append(out, domain.EntryFromMatch(&fresh[i], at))
	}
	return out
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

const defaultPoolSize = 4

// PostgresStore implements SeenStore using pgxpool (connection-pooled PostgreSQL).
//
// PostgresStore methods require live Postgres and are covered by the
// integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations and returns their versions.
func (s *PostgresStore) Migrate(ctx context.Context) ([]string, error) {
	return RunMigrations(ctx, s.pool)
}

// Load implements SeenStore.Load.
func (s *PostgresStore) Load(ctx context.Context) (domain.SeenSet, error) {
	rows, err := s.pool.Query(ctx, querySelectSeenIDs)
	if err != nil {
		return nil, fmt.Errorf("querying seen ids: %w", err)
	}
	defer rows.Close()

	seen := domain.NewSeenSet()
	for rows.Next() {
		var (
			id     string
			seenAt time.Time
		)
		if err := rows.Scan(&id, &seenAt); err != nil {
			return nil, fmt.Errorf("scanning seen id: %w", err)
		}
		seen.Add(id, seenAt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating seen ids: %w", err)
	}
	return seen, nil
}

// Record implements SeenStore.Record. All inserts go out in one batch.
func (s *PostgresStore) Record(ctx context.Context, matches []domain.Match, at time.Time) error {
	fresh := entries(matches, domain.NewSeenSet(), at)
	if len(fresh) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range fresh {
		e := &fresh[i]
		batch.Queue(queryInsertSeen, pgx.NamedArgs{
			"item_id": e.ID,
			"title":   e.Title,
			"price":   e.Price,
			"url":     e.URL,
			"seen_at": e.SeenAt,
		})
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("recording seen items: %w", err)
	}
	return nil
}

// Entries implements SeenStore.Entries.
func (s *PostgresStore) Entries(ctx context.Context) ([]domain.SeenEntry, error) {
	rows, err := s.pool.Query(ctx, querySelectSeen)
	if err != nil {
		return nil, fmt.Errorf("querying seen items: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.SeenEntry])
	if err != nil {
		return nil, fmt.Errorf("collecting seen items: %w", err)
	}
	return out, nil
}

// Reset implements SeenStore.Reset.
func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, queryResetSeen); err != nil {
		return fmt.Errorf("resetting seen items: %w", err)
	}
	return nil
}

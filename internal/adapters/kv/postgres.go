package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecolens/ecolens/pkg/metrics"
)

// bootstrapSchema creates the single table backing the store. Values are
// opaque JSON documents; the engine never queries inside them.
const bootstrapSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
    key        TEXT PRIMARY KEY,
    value      BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// PostgresStore implements Store on a postgres table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and bootstraps the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	if _, err := pool.Exec(ctx, bootstrapSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap kv schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	defer observe("get", time.Now())

	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordKVError("get")
		return nil, false, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	defer observe("set", time.Now())

	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		metrics.RecordKVError("set")
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) GetByPrefix(ctx context.Context, prefix string) ([]Pair, error) {
	defer observe("get_by_prefix", time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT key, value FROM kv_entries
		WHERE key LIKE $1 ORDER BY key`,
		escapeLike(prefix)+"%")
	if err != nil {
		metrics.RecordKVError("get_by_prefix")
		return nil, fmt.Errorf("postgres scan %s: %w", prefix, err)
	}
	defer rows.Close()

	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			metrics.RecordKVError("get_by_prefix")
			return nil, fmt.Errorf("postgres scan row: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordKVError("get_by_prefix")
		return nil, fmt.Errorf("postgres scan %s: %w", prefix, err)
	}
	return pairs, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// escapeLike neutralizes LIKE wildcards so a prefix is matched literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

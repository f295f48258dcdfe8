package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
	ttl  time.Duration
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, ttl time.Duration) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, ttl: ttl}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS cache (
	key       TEXT PRIMARY KEY,
	data      TEXT NOT NULL,
	timestamp DOUBLE PRECISION NOT NULL
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (map[string]Entry, error) {
	cutoff := unixSeconds(time.Now()) - s.ttl.Seconds()

	rows, err := s.pool.Query(ctx,
		`SELECT key, data, timestamp FROM cache WHERE timestamp > $1`,
		cutoff,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load cache")
	}
	defer rows.Close()

	entries := make(map[string]Entry)
	for rows.Next() {
		var (
			key  string
			blob string
			ts   float64
		)
		if err := rows.Scan(&key, &blob, &ts); err != nil {
			return nil, eris.Wrap(err, "postgres: scan cache row")
		}
		var data []string
		if err := json.Unmarshal([]byte(blob), &data); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal cache entry %s", key)
		}
		entries[key] = Entry{Data: data, Timestamp: fromUnixSeconds(ts)}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate cache rows")
	}
	return entries, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, data []string) error {
	blob, err := json.Marshal(data)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal cache entry %s", key)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO cache (key, data, timestamp) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET data = $2, timestamp = $3`,
		key, string(blob), unixSeconds(time.Now()),
	)
	return eris.Wrapf(err, "postgres: put cache entry %s", key)
}

func (s *PostgresStore) PurgeExpired(ctx context.Context) (int, error) {
	cutoff := unixSeconds(time.Now()) - s.ttl.Seconds()

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM cache WHERE timestamp <= $1`,
		cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: purge expired")
	}
	return int(tag.RowsAffected()), nil
}

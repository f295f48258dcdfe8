package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, ttl: ttl}, nil
}

// The timestamp column holds Unix seconds as a float so existing cache.db
// files from earlier releases stay readable.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS cache (
	key       TEXT PRIMARY KEY,
	data      TEXT NOT NULL,
	timestamp REAL NOT NULL
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (map[string]Entry, error) {
	cutoff := unixSeconds(time.Now()) - s.ttl.Seconds()

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, data, timestamp FROM cache WHERE timestamp > ?`,
		cutoff,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load cache")
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
			return nil, eris.Wrap(err, "sqlite: scan cache row")
		}
		var data []string
		if err := json.Unmarshal([]byte(blob), &data); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal cache entry %s", key)
		}
		entries[key] = Entry{Data: data, Timestamp: fromUnixSeconds(ts)}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate cache rows")
	}
	return entries, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, data []string) error {
	blob, err := json.Marshal(data)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal cache entry %s", key)
	}

	_, err = s.db.ExecContext(ctx,
		`REPLACE INTO cache (key, data, timestamp) VALUES (?, ?, ?)`,
		key, string(blob), unixSeconds(time.Now()),
	)
	return eris.Wrapf(err, "sqlite: put cache entry %s", key)
}

func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int, error) {
	cutoff := unixSeconds(time.Now()) - s.ttl.Seconds()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache WHERE timestamp <= ?`,
		cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge expired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge rows affected")
	}
	return int(n), nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000.0
}

func fromUnixSeconds(ts float64) time.Time {
	return time.UnixMilli(int64(ts * 1000.0)).UTC()
}

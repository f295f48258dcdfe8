package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T, ttl time.Duration) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock, ttl: ttl}, mock
}

func TestPostgresMigrate(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgres(t, 24*time.Hour)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS cache").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPut(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgres(t, 24*time.Hour)

	mock.ExpectExec("INSERT INTO cache").
		WithArgs("abc123", `["Tinta Azul: fosca"]`, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Put(context.Background(), "abc123", []string{"Tinta Azul: fosca"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoad(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgres(t, 24*time.Hour)

	ts := unixSeconds(time.Now())
	mock.ExpectQuery("SELECT key, data, timestamp FROM cache").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"key", "data", "timestamp"}).
			AddRow("abc123", `["a","b"]`, ts).
			AddRow("def456", `["c"]`, ts))

	entries, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"a", "b"}, entries["abc123"].Data)
	assert.Equal(t, []string{"c"}, entries["def456"].Data)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadQueryError(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgres(t, 24*time.Hour)

	mock.ExpectQuery("SELECT key, data, timestamp FROM cache").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load cache")
}

func TestPostgresLoadBadBlob(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgres(t, 24*time.Hour)

	mock.ExpectQuery("SELECT key, data, timestamp FROM cache").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"key", "data", "timestamp"}).
			AddRow("abc123", `not json`, unixSeconds(time.Now())))

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abc123")
}

func TestPostgresPurgeExpired(t *testing.T) {
	t.Parallel()
	s, mock := newMockPostgres(t, 24*time.Hour)

	mock.ExpectExec("DELETE FROM cache").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/ledger-atlas/pkg/store/duckdb"
)

func setupCacheStore(t *testing.T) *cacheStore {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)

	s, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return s.(*cacheStore)
}

func TestCacheStore_GetPut(t *testing.T) {
	s := setupCacheStore(t)
	ctx := context.Background()
	ttl := time.Hour

	t.Run("miss on absent key", func(t *testing.T) {
		_, ok, err := s.Get(ctx, "kpis:missing", ttl)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("round trip", func(t *testing.T) {
		payload := json.RawMessage(`{"total_amount":650,"count":4}`)
		require.NoError(t, s.Put(ctx, "metrics:abc", payload))

		got, ok, err := s.Get(ctx, "metrics:abc", ttl)
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, string(payload), string(got))
	})

	t.Run("put overwrites the previous payload", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "metrics:abc", json.RawMessage(`{"count":1}`)))
		require.NoError(t, s.Put(ctx, "metrics:abc", json.RawMessage(`{"count":2}`)))

		got, ok, err := s.Get(ctx, "metrics:abc", ttl)
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, `{"count":2}`, string(got))
	})
}

func TestCacheStore_TTL(t *testing.T) {
	s := setupCacheStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	require.NoError(t, s.Put(ctx, "trends:xyz", json.RawMessage(`{"slope":1.5}`)))

	t.Run("fresh entry hits", func(t *testing.T) {
		s.now = func() time.Time { return base.Add(30 * time.Minute) }

		_, ok, err := s.Get(ctx, "trends:xyz", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("stale entry misses", func(t *testing.T) {
		s.now = func() time.Time { return base.Add(time.Hour) }

		_, ok, err := s.Get(ctx, "trends:xyz", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rewrite refreshes expiry", func(t *testing.T) {
		s.now = func() time.Time { return base.Add(2 * time.Hour) }
		require.NoError(t, s.Put(ctx, "trends:xyz", json.RawMessage(`{"slope":2}`)))

		s.now = func() time.Time { return base.Add(2*time.Hour + 30*time.Minute) }

		got, ok, err := s.Get(ctx, "trends:xyz", time.Hour)
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, `{"slope":2}`, string(got))
	})
}

func TestCacheStore_ReadFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewStore(db)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT cache_key, payload, computed_at FROM analytics_cache").
		WillReturnError(errors.New("io error"))

	_, ok, err := s.Get(context.Background(), "kpis:abc", time.Hour)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheStore_WriteFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewStore(db)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO analytics_cache").
		WillReturnError(errors.New("disk full"))

	err = s.Put(context.Background(), "kpis:abc", json.RawMessage(`{}`))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStore_NilDB(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

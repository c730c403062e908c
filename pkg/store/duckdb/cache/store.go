package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/de-tools/ledger-atlas/pkg/models/store"
)

// Store persists computed analysis payloads keyed by cache key. Expiry
// is logical: Get compares computed_at against the TTL at read time and
// treats stale rows as misses without deleting them.
type Store interface {
	Get(ctx context.Context, key string, ttl time.Duration) (json.RawMessage, bool, error)
	Put(ctx context.Context, key string, payload json.RawMessage) error
}

type cacheStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &cacheStore{db: db, now: time.Now}, nil
}

func (c *cacheStore) Get(ctx context.Context, key string, ttl time.Duration) (json.RawMessage, bool, error) {
	query := `SELECT cache_key, payload, computed_at FROM analytics_cache WHERE cache_key = ?`

	var entry store.CacheEntry
	err := c.db.QueryRowContext(ctx, query, key).Scan(&entry.Key, &entry.Payload, &entry.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	if c.now().Sub(entry.ComputedAt) >= ttl {
		return nil, false, nil
	}
	return entry.Payload, true, nil
}

func (c *cacheStore) Put(ctx context.Context, key string, payload json.RawMessage) error {
	query := `
		INSERT INTO analytics_cache (cache_key, payload, computed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = excluded.payload,
			computed_at = excluded.computed_at`

	if _, err := c.db.ExecContext(ctx, query, key, []byte(payload), c.now()); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

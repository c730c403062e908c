package store

import (
	"encoding/json"
	"time"
)

// CacheEntry is the row shape of the analytics_cache table.
// Entries are upserted on recompute; expiry is decided at read time
// against ComputedAt, stale rows are never physically deleted.
type CacheEntry struct {
	Key        string
	Payload    json.RawMessage
	ComputedAt time.Time
}

package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// ComputeKey derives a deterministic cache key from a query name and its
// parameters. Parameters are canonicalized first, so two semantically
// identical parameter sets hash the same regardless of key insertion
// order in any map they contain.
func ComputeKey(queryName string, params any) (string, error) {
	canonical, err := canonicalize(params)
	if err != nil {
		return "", fmt.Errorf("canonicalize params for %q: %w", queryName, err)
	}
	digest := sha256.Sum256(canonical)
	return fmt.Sprintf("%s:%x", queryName, digest), nil
}

// canonicalize round-trips params through generic JSON. encoding/json
// emits map keys in sorted order, which normalizes nested maps at every
// level.
func canonicalize(params any) ([]byte, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// Package cache stores model analyses keyed by the dossier they were
// produced from, so re-running a command does not pay for the same call twice.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Entry is a cached analysis result.
type Entry struct {
	Analysis string    `json:"analysis"`
	Summary  string    `json:"summary"`
	StoredAt time.Time `json:"storedAt"`
}

// Cache is implemented by every backend.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, e Entry) error
	Close() error
}

// Key derives the cache key for a dossier sent to a model.
func Key(model, dossier string) string {
	sum := sha256.Sum256([]byte(model + "\n" + dossier))
	return hex.EncodeToString(sum[:])
}

// Open picks a backend from the URL scheme: redis:// or rediss:// for
// Redis, bolt://<path> for a local bbolt file. An empty URL disables
// caching and returns a nil Cache.
func Open(ctx context.Context, rawURL string, ttl time.Duration) (Cache, error) {
	switch {
	case rawURL == "":
		return nil, nil
	case strings.HasPrefix(rawURL, "redis://"), strings.HasPrefix(rawURL, "rediss://"):
		c, err := NewRedisCache(ctx, rawURL, ttl)
		if err != nil {
			return nil, err
		}
		return c, nil
	case strings.HasPrefix(rawURL, "bolt://"):
		c, err := NewBoltCache(strings.TrimPrefix(rawURL, "bolt://"), ttl)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache URL %q (want redis:// or bolt://)", rawURL)
	}
}

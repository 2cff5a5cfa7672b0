package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const boltBucket = "analyses"

// BoltCache keeps entries in a local bbolt file. Expired entries are
// treated as misses and overwritten on the next Put.
type BoltCache struct {
	db    *bolt.DB
	ttl   time.Duration
	clock func() time.Time
}

func NewBoltCache(path string, ttl time.Duration) (*BoltCache, error) {
	if path == "" {
		return nil, errors.New("cache path is required")
	}

	cleaned := filepath.Clean(path)
	if dir := filepath.Dir(cleaned); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := bolt.Open(cleaned, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}
	return &BoltCache{db: db, ttl: ttl, clock: time.Now}, nil
}

func (c *BoltCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	var raw []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if v := tx.Bucket([]byte(boltBucket)).Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if raw == nil {
		return Entry{}, false, nil
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if c.ttl > 0 && c.clock().Sub(e.StoredAt) > c.ttl {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (c *BoltCache) Put(ctx context.Context, key string, e Entry) error {
	if e.StoredAt.IsZero() {
		e.StoredAt = c.clock().UTC()
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return tx.Bucket([]byte(boltBucket)).Put([]byte(key), raw)
	})
}

func (c *BoltCache) Close() error {
	return c.db.Close()
}

// Package calculations provides a small content-addressed cache for
// expensive intermediate results, backed by SQLite.
package calculations

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTTL is how long cached results stay valid.
const DefaultTTL = 24 * time.Hour

// Cache stores JSON-serialized calculation results keyed by content hash.
// A nil *Cache is valid and disables caching.
type Cache struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCache creates a cache on the given database connection and ensures
// its schema exists.
func NewCache(db *sql.DB, log zerolog.Logger) (*Cache, error) {
	c := &Cache{
		db:  db,
		log: log.With().Str("component", "calc_cache").Logger(),
	}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS calc_cache (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize calc_cache schema: %w", err)
	}
	return nil
}

// Get looks up a cached value no older than maxAge and unmarshals it into
// dest. Returns false on a miss (including expired entries).
func (c *Cache) Get(key string, maxAge time.Duration, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}

	var value string
	var createdAt int64
	err := c.db.QueryRow(
		`SELECT value, created_at FROM calc_cache WHERE key = ?`, key,
	).Scan(&value, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache lookup failed for %s: %w", key, err)
	}

	if time.Since(time.Unix(createdAt, 0)) > maxAge {
		c.log.Debug().Str("key", key).Msg("Cache entry expired")
		return false, nil
	}

	if err := json.Unmarshal([]byte(value), dest); err != nil {
		// A corrupt entry is treated as a miss so it gets rewritten.
		c.log.Warn().Err(err).Str("key", key).Msg("Discarding unreadable cache entry")
		return false, nil
	}
	return true, nil
}

// Set stores a value under key, replacing any previous entry.
func (c *Cache) Set(key string, value any) error {
	if c == nil {
		return nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO calc_cache (key, value, created_at) VALUES (?, ?, ?)`,
		key, string(encoded), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store cache value for %s: %w", key, err)
	}
	return nil
}

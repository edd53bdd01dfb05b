// ABOUTME: SQLite-based cache implementation for persistent caching
// ABOUTME: File-backed entries and leases that survive restarts and can be shared by local processes

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"linkparse-api/core/interfaces"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	expiry INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_expiry ON cache(expiry);
CREATE TABLE IF NOT EXISTS leases (
	key TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	expiry INTEGER NOT NULL
);
`

// noExpiry marks entries stored with a zero TTL
const noExpiry = int64(1) << 62

// Client implements interfaces.LeaseCache using SQLite
type Client struct {
	db       *sql.DB
	filePath string
	owner    string
	logger   interfaces.Logger

	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// Option configures a Client
type Option func(*Client)

// WithLogger logs suspicious keys and cleanup failures
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCleanupInterval sets how often expired rows are purged
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.cleanupInterval = d
		}
	}
}

// NewSQLiteCache opens (and if needed creates) the cache database at filePath
func NewSQLiteCache(filePath string, opts ...Option) (*Client, error) {
	if filePath == "" {
		filePath = "linkparse.db"
	}

	db, err := sql.Open("sqlite3", dsn(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	client := &Client{
		db:              db,
		filePath:        filePath,
		owner:           uuid.NewString(),
		logger:          interfaces.NopLogger{},
		cleanupInterval: 5 * time.Minute,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(client)
	}

	go client.cleanupRoutine()

	return client, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_journal_mode=WAL"
}

// Get retrieves a value from the cache
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key, c.logger); err != nil {
		return nil, err
	}

	var value []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT value FROM cache WHERE key = ? AND expiry > ?",
		key, time.Now().UnixMilli(),
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get value: %w", err)
	}

	return value, nil
}

// Set stores a value in the cache with TTL. A zero TTL never expires.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key, c.logger); err != nil {
		return err
	}
	if err := ValidateValue(value); err != nil {
		return err
	}

	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache (key, value, expiry) VALUES (?, ?, ?)",
		key, value, expiryOf(ttl),
	)
	if err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}

	return nil
}

// Delete removes a value from the cache
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key, c.logger); err != nil {
		return err
	}

	if _, err := c.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete value: %w", err)
	}

	return nil
}

// AcquireLease inserts the lease row, or takes over an expired one
func (c *Client) AcquireLease(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ValidateKey(key, c.logger); err != nil {
		return false, err
	}

	now := time.Now().UnixMilli()
	res, err := c.db.ExecContext(ctx, `
		INSERT INTO leases (key, owner, expiry) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET owner = excluded.owner, expiry = excluded.expiry
		WHERE leases.expiry <= ?`,
		key, c.owner, expiryOf(ttl), now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease: %w", err)
	}
	return n == 1, nil
}

// ReleaseLease drops the lease if this client owns it
func (c *Client) ReleaseLease(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM leases WHERE key = ? AND owner = ?", key, c.owner); err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}
	return nil
}

// Clear removes all values and leases
func (c *Client) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM cache; DELETE FROM leases;"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func expiryOf(ttl time.Duration) int64 {
	if ttl <= 0 {
		return noExpiry
	}
	return time.Now().Add(ttl).UnixMilli()
}

// cleanupRoutine periodically removes expired entries
func (c *Client) cleanupRoutine() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

// cleanup removes expired entries and leases
func (c *Client) cleanup() {
	now := time.Now().UnixMilli()
	for _, table := range []string{"cache", "leases"} {
		if _, err := c.db.Exec("DELETE FROM "+table+" WHERE expiry <= ?", now); err != nil {
			c.logger.Warn("SQLite cache cleanup failed", map[string]interface{}{
				"table": table,
				"error": err.Error(),
			})
		}
	}
}

// Close stops the cleanup routine and closes the database connection
func (c *Client) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return c.db.Close()
}

// Stats returns cache statistics
func (c *Client) Stats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})
	now := time.Now().UnixMilli()

	var count, expired, leases int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM cache").Scan(&count); err != nil {
		return nil, err
	}
	stats["total_entries"] = count

	if err := c.db.QueryRow("SELECT COUNT(*) FROM cache WHERE expiry <= ?", now).Scan(&expired); err != nil {
		return nil, err
	}
	stats["expired_entries"] = expired

	if err := c.db.QueryRow("SELECT COUNT(*) FROM leases WHERE expiry > ?", now).Scan(&leases); err != nil {
		return nil, err
	}
	stats["active_leases"] = leases

	var pageCount, pageSize int
	if err := c.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := c.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err == nil {
			stats["db_size_bytes"] = pageCount * pageSize
		}
	}

	stats["file_path"] = c.filePath

	return stats, nil
}

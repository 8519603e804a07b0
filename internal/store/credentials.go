// Package store provides durable client-local storage for session credentials.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

const credentialsSchema = `
CREATE TABLE IF NOT EXISTS credentials (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);
`

// Credentials is a SQLite-backed key/value store.
type Credentials struct {
	db   *sql.DB
	path string
}

// Open opens or creates the credential database at the given path.
func Open(dbPath string) (*Credentials, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(credentialsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Tokens are secrets: keep the file private to the user.
	_ = os.Chmod(dbPath, 0o600)

	return &Credentials{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (c *Credentials) Path() string { return c.path }

// Close closes the database.
func (c *Credentials) Close() error {
	return c.db.Close()
}

// Get returns the value for key and whether it was present.
func (c *Credentials) Get(key string) (string, bool, error) {
	var value string
	err := c.db.QueryRow("SELECT value FROM credentials WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

// SetMany stores several keys in one transaction, so readers in other
// processes never observe a token without its user.
func (c *Credentials) SetMany(values map[string]string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for k, v := range values {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO credentials (key, value, updated_at)
			VALUES (?, ?, ?)`, k, v, now); err != nil {
			return fmt.Errorf("writing %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Delete removes keys. Missing keys are not an error.
func (c *Credentials) Delete(keys ...string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, k := range keys {
		if _, err := tx.Exec("DELETE FROM credentials WHERE key = ?", k); err != nil {
			return fmt.Errorf("deleting %s: %w", k, err)
		}
	}
	return tx.Commit()
}

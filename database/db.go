package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get when the key has never been written or
// was removed.
var ErrNotFound = errors.New("key not found")

// Store is a string-keyed blob store, the device storage of the app.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// MultiSet writes all pairs together where the backend allows it.
	MultiSet(ctx context.Context, pairs map[string]string) error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

// DB is the sqlite-backed Store
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes tables
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err = createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	return err
}

// Get returns the value stored under key
func (db *DB) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value
func (db *DB) Set(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// MultiSet writes all pairs in one transaction
func (db *DB) MultiSet(ctx context.Context, pairs map[string]string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	now := time.Now().Unix()
	for k, v := range pairs {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
			k, v, now,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Remove deletes the given keys. Missing keys are not an error.
func (db *DB) Remove(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", k); err != nil {
			return fmt.Errorf("remove %s: %w", k, err)
		}
	}
	return nil
}

// Package db provides SQLite database access for SpotifyData.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Common errors.
var (
	ErrNotFound = errors.New("not found")
)

// DB wraps a SQLite database handle.
type DB struct {
	sql *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path.
func Open(ctx context.Context, path string) (*DB, error) {
	handle, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite allows a single writer at a time.
	handle.SetMaxOpenConns(1)

	if err := handle.PingContext(ctx); err != nil {
		handle.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{sql: handle}, nil
}

// Close closes the database handle.
func (db *DB) Close() error {
	return db.sql.Close()
}

// History returns a HistoryRepository.
func (db *DB) History() *HistoryRepository {
	return &HistoryRepository{sql: db.sql}
}

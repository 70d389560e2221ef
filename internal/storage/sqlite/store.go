// Package sqlite implements the durable store for sessions, buffered
// messages and summaries on database/sql + sqlite3.
package sqlite

import (
	"context"
	"database/sql"
)

// Store implements core.Repository.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

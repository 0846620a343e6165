package storage

import (
	"github.com/jmoiron/sqlx"
)

// Store bundles all repositories over one connection pool.
type Store struct {
	db *sqlx.DB
}

// New creates a store over the given pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying pool for health checks.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

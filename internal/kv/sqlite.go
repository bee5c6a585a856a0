package kv

import (
	"context"
	"database/sql"

	"github.com/hpungsan/tabshelf/internal/db"
)

// SQLite stores documents in the tabshelf database's documents table.
type SQLite struct {
	db    *sql.DB
	owned bool
}

// NewSQLite wraps an already-initialized database. Close leaves it open.
func NewSQLite(sqlDB *sql.DB) *SQLite {
	return &SQLite{db: sqlDB}
}

// OpenSQLite opens (and migrates) the database file at path. Close closes it.
func OpenSQLite(path string) (*SQLite, error) {
	sqlDB, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return &SQLite{db: sqlDB, owned: true}, nil
}

// DB exposes the underlying handle for pool tuning.
func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return db.GetDocument(ctx, s.db, key)
}

func (s *SQLite) Put(ctx context.Context, key string, value []byte) error {
	return db.PutDocument(ctx, s.db, key, value)
}

func (s *SQLite) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetDocument returns the stored value for key. found is false when no row exists.
func GetDocument(ctx context.Context, db *sql.DB, key string) (value []byte, found bool, err error) {
	var s string
	err = db.QueryRowContext(ctx, `SELECT value FROM documents WHERE key = ?`, key).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(s), true, nil
}

// PutDocument replaces the value stored under key.
func PutDocument(ctx context.Context, db *sql.DB, key string, value []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), time.Now().Unix())
	return err
}

// DeleteDocument removes key. Deleting a missing key is not an error.
func DeleteDocument(ctx context.Context, db *sql.DB, key string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key)
	return err
}

// DocumentUpdatedAt returns the unix time of the last write to key, or 0.
func DocumentUpdatedAt(ctx context.Context, db *sql.DB, key string) (int64, error) {
	var ts int64
	err := db.QueryRowContext(ctx, `SELECT updated_at FROM documents WHERE key = ?`, key).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return ts, err
}

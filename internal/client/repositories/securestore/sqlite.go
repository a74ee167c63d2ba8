// Package securestore provides the client-side secure blob store used for
// auth tokens and small cached payloads that must survive restarts.
package securestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/fieldentry/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, service, name string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM secure_items WHERE service = ? AND name = ?`, service, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get secure item %s/%s: %w", service, name, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, service, name string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO secure_items (service, name, value) VALUES (?, ?, ?)
		ON CONFLICT(service, name) DO UPDATE SET value = excluded.value
	`, service, name, value)
	if err != nil {
		return fmt.Errorf("failed to set secure item %s/%s: %w", service, name, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, service, name string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM secure_items WHERE service = ? AND name = ?`, service, name)
	if err != nil {
		return fmt.Errorf("failed to delete secure item %s/%s: %w", service, name, err)
	}
	return nil
}

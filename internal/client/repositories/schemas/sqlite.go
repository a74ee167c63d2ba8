// Package schemas provides the client-side persistence layer for the doctype
// schema cache.
package schemas

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/fieldentry/internal/client/models"
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

func (r *SQLiteRepository) Get(ctx context.Context, doctype string) (*models.DocTypeSchema, time.Time, error) {
	var blob []byte
	var fetchedAt time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT schema, fetched_at FROM doctype_schemas WHERE name = ?`, doctype).
		Scan(&blob, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to get cached schema %q: %w", doctype, err)
	}

	var schema models.DocTypeSchema
	if err := json.Unmarshal(blob, &schema); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode cached schema %q: %w", doctype, err)
	}
	return &schema, fetchedAt, nil
}

// Put upserts the schema blob by doctype name.
func (r *SQLiteRepository) Put(ctx context.Context, schema *models.DocTypeSchema) error {
	blob, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to encode schema %q: %w", schema.Name, err)
	}

	query := `INSERT INTO doctype_schemas (name, schema, fetched_at)
			VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET schema = excluded.schema,
				fetched_at = excluded.fetched_at
	`
	_, err = r.db.ExecContext(ctx, query, schema.Name, blob, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert schema %q: %w", schema.Name, err)
	}
	return nil
}

func (r *SQLiteRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM doctype_schemas ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached schemas: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		result = append(result, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

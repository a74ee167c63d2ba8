// Package queue provides the client-side persistence layer for the pending
// submission queue.
package queue

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/fieldentry/internal/client/models"
	"github.com/example/fieldentry/internal/common"
	"github.com/example/fieldentry/internal/dbx"
)

// SQLiteRepository implements Repository over a *sql.DB. Unlike the other
// repositories it needs the full DB handle because ReplaceAll runs a
// delete+insert inside one transaction.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Enqueue appends the item at the tail. The position column is assigned by
// SQLite and defines FIFO replay order.
func (r *SQLiteRepository) Enqueue(ctx context.Context, item *models.QueueItem) error {
	query := `INSERT INTO pending_submissions (id, doctype, payload, enqueued_at)
			VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.Doctype, []byte(item.Payload), item.EnqueuedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to enqueue submission: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.QueueItem, error) {
	query := `SELECT id, doctype, payload, enqueued_at FROM pending_submissions ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending submissions: %w", err)
	}
	defer rows.Close()

	var result []models.QueueItem
	for rows.Next() {
		var item models.QueueItem
		var payload []byte
		if err := rows.Scan(&item.ID, &item.Doctype, &payload, &item.EnqueuedAt); err != nil {
			return nil, err
		}
		item.Payload = payload
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pending_submissions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove submission %q: %w", id, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ReplaceAll rewrites the whole queue in one transaction so a crash leaves
// either the old collection or the new one, never a mix.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, items []models.QueueItem) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_submissions`); err != nil {
			return fmt.Errorf("failed to clear pending submissions: %w", err)
		}
		for _, item := range items {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO pending_submissions (id, doctype, payload, enqueued_at) VALUES (?, ?, ?, ?)`,
				item.ID, item.Doctype, []byte(item.Payload), item.EnqueuedAt.UTC())
			if err != nil {
				return fmt.Errorf("failed to insert submission %q: %w", item.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_submissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending submissions: %w", err)
	}
	return n, nil
}

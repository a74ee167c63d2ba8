// Package localdb opens the client's local SQLite database, applies embedded
// migrations, and wires up the repository set.
package localdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/fieldentry/internal/client/migrations"
	"github.com/example/fieldentry/internal/client/repositories/queue"
	"github.com/example/fieldentry/internal/client/repositories/schemas"
	"github.com/example/fieldentry/internal/client/repositories/securestore"
	"github.com/pressly/goose/v3"
)

// Repositories bundles the persistence layer handed to services.
type Repositories struct {
	Secure  securestore.Repository
	Schemas schemas.Repository
	Queue   queue.Repository

	db *sql.DB
}

// Close releases the underlying database handle.
func (r *Repositories) Close() error {
	return r.db.Close()
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (or creates) the database at dsn, migrates it, and
// returns the repository set. SQLite serializes writers; MaxOpenConns(1)
// keeps concurrent enqueues from tripping over a locked database.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Repositories{
		Secure:  securestore.NewSQLiteRepository(db),
		Schemas: schemas.NewSQLiteRepository(db),
		Queue:   queue.NewSQLiteRepository(db),
		db:      db,
	}, nil
}

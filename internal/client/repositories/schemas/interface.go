package schemas

import (
	"context"
	"time"

	"github.com/example/fieldentry/internal/client/models"
)

// Repository is the local read-through cache of doctype schemas.
//
// Entries are keyed by doctype name, overwritten whenever a fresh fetch
// succeeds, and never proactively evicted: staleness is acceptable, freshness
// is restored by the next online resolution.
type Repository interface {
	// Get returns the cached schema and its fetch time, or (nil, zero time)
	// when the doctype has never been cached.
	Get(ctx context.Context, doctype string) (*models.DocTypeSchema, time.Time, error)

	// Put inserts or overwrites the cached schema, stamping it with now.
	Put(ctx context.Context, schema *models.DocTypeSchema) error

	// Names lists the doctype names currently cached.
	Names(ctx context.Context) ([]string, error)
}

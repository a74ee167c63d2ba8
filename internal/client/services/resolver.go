// Package services contains the application services of the fieldentry
// client: schema graph resolution and pending-submission handling.
package services

import (
	"context"

	"github.com/example/fieldentry/internal/client/models"
	"github.com/example/fieldentry/internal/client/repositories/schemas"
	"github.com/example/fieldentry/internal/logging"
)

// SchemaAPI is the remote surface the resolver needs.
type SchemaAPI interface {
	GetDoctype(ctx context.Context, formName string) (*models.DocTypeSchema, error)
}

// ResolveError records a remote fetch failure for one doctype.
type ResolveError struct {
	Doctype string
	Err     error
}

// EnsureResult aggregates the outcome of one Ensure call.
//
// Resolved doctypes are cached locally and safe to render. Skipped doctypes
// could not be resolved offline (no cached copy); their own dependencies are
// unknowable and were not visited. Errors holds online fetch failures.
type EnsureResult struct {
	Resolved []string
	Skipped  []string
	Errors   []ResolveError
}

// Has reports whether name was resolved.
func (r *EnsureResult) Has(name string) bool {
	for _, n := range r.Resolved {
		if n == name {
			return true
		}
	}
	return false
}

// Resolver guarantees that a doctype and every doctype it transitively
// references through Link and Table fields are cached locally before a form
// renders from them.
type Resolver struct {
	api   SchemaAPI
	cache schemas.Repository
	log   logging.Logger
}

// NewResolver constructs a Resolver over the remote API and the local cache.
func NewResolver(api SchemaAPI, cache schemas.Repository, log logging.Logger) *Resolver {
	return &Resolver{api: api, cache: cache, log: log}
}

// Ensure walks the schema graph rooted at doctype. Policy per node:
//
//   - online: fetch remotely regardless of cache presence (freshness wins),
//     persist, recurse into the fresh schema's references; a fetch failure is
//     recorded and that subtree is not entered.
//   - offline with a cached copy: accept it and recurse from the cached copy.
//   - offline without a cached copy: mark skipped, do not recurse (the
//     dependencies are unknowable without the schema).
//
// Cycles are cut by a per-call visited set, so a self-referential doctype
// resolves once and A↔B terminates. Cancelling ctx aborts the walk before
// the next cache write; partial results are discarded and ctx.Err() is
// returned.
func (r *Resolver) Ensure(ctx context.Context, doctype string, networkAvailable bool) (*EnsureResult, error) {
	result := &EnsureResult{}
	visited := make(map[string]struct{})

	if err := r.walk(ctx, doctype, networkAvailable, visited, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Resolver) walk(ctx context.Context, doctype string, online bool, visited map[string]struct{}, result *EnsureResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := visited[doctype]; ok {
		return nil
	}
	visited[doctype] = struct{}{}

	var schema *models.DocTypeSchema

	if online {
		fetched, err := r.api.GetDoctype(ctx, doctype)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				// a cancelled fetch is not a resolution error
				return ctxErr
			}
			r.log.Warn(ctx, "schema fetch failed", "doctype", doctype, "error", err)
			result.Errors = append(result.Errors, ResolveError{Doctype: doctype, Err: err})
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.cache.Put(ctx, fetched); err != nil {
			// the fresh schema is still usable for this call
			r.log.Error(ctx, "failed to cache schema", "doctype", doctype, "error", err)
		}
		schema = fetched
	} else {
		cached, _, err := r.cache.Get(ctx, doctype)
		if err != nil {
			r.log.Error(ctx, "failed to read schema cache", "doctype", doctype, "error", err)
		}
		if cached == nil {
			result.Skipped = append(result.Skipped, doctype)
			return nil
		}
		schema = cached
	}

	result.Resolved = append(result.Resolved, doctype)

	for _, dep := range schema.LinkedDoctypes() {
		if err := r.walk(ctx, dep, online, visited, result); err != nil {
			return err
		}
	}
	return nil
}

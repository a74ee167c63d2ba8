package queue

import (
	"context"

	"github.com/example/fieldentry/internal/client/models"
)

// Repository is the durable FIFO store of form submissions awaiting upload.
//
// Insertion order defines replay order. Items are removed only after a
// confirmed upload; payload edits go through ReplaceAll rather than in-place
// mutation, so a crash between read and write never loses or duplicates items
// relative to the last committed state.
type Repository interface {
	// Enqueue appends an item to the tail of the queue.
	Enqueue(ctx context.Context, item *models.QueueItem) error

	// GetAll returns every queued item in enqueue order without removing any.
	GetAll(ctx context.Context) ([]models.QueueItem, error)

	// Remove deletes the item with the given id. Removing a missing id
	// returns common.ErrNotFound.
	Remove(ctx context.Context, id string) error

	// ReplaceAll atomically replaces the whole queue with items, preserving
	// the order given.
	ReplaceAll(ctx context.Context, items []models.QueueItem) error

	// Count returns the number of queued items.
	Count(ctx context.Context) (int, error)
}

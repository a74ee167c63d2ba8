package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/fieldentry/internal/client/models"
	"github.com/example/fieldentry/internal/client/repositories/queue"
	"github.com/example/fieldentry/internal/common"
	"github.com/example/fieldentry/internal/logging"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// Uploader is the write path to the backend.
type Uploader interface {
	SubmitForm(ctx context.Context, doctype string, payload json.RawMessage) error
}

// Submissions owns the pending-submission queue: direct upload when the
// network permits, buffering otherwise, FIFO replay on drain. A mutex
// serializes writers so two forms submitted in quick succession while offline
// cannot race on the backing store.
type Submissions struct {
	uploader Uploader
	queue    queue.Repository
	log      logging.Logger

	mu sync.Mutex

	// drain backoff knobs, overridable in tests
	retryBase time.Duration
	retryMax  uint64
}

// NewSubmissions constructs a Submissions service.
func NewSubmissions(uploader Uploader, queue queue.Repository, log logging.Logger) *Submissions {
	return &Submissions{
		uploader:  uploader,
		queue:     queue,
		log:       log,
		retryBase: 500 * time.Millisecond,
		retryMax:  3,
	}
}

// Submit uploads the record directly when online; when offline, or when the
// upload fails because the backend is unreachable, the record is enqueued
// for a later replay. The returned flag reports whether the record was
// queued rather than delivered.
func (s *Submissions) Submit(ctx context.Context, doctype string, payload json.RawMessage, online bool) (bool, error) {
	if online {
		err := s.uploader.SubmitForm(ctx, doctype, payload)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, common.ErrUnavailable) {
			return false, err
		}
		s.log.Warn(ctx, "backend unreachable, queueing submission", "doctype", doctype, "error", err)
	}

	item := &models.QueueItem{
		ID:         uuid.NewString(),
		Doctype:    doctype,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.queue.Enqueue(ctx, item); err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
	}
	return true, nil
}

// Pending returns the queued submissions in replay order without removing them.
func (s *Submissions) Pending(ctx context.Context) ([]models.QueueItem, error) {
	return s.queue.GetAll(ctx)
}

// PendingCount returns the number of forms awaiting upload.
func (s *Submissions) PendingCount(ctx context.Context) (int, error) {
	return s.queue.Count(ctx)
}

// Replace swaps the whole payload of a queued submission, preserving its
// position. Queued items are never mutated in place; the row editor goes
// through here.
func (s *Submissions) Replace(ctx context.Context, id string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.queue.GetAll(ctx)
	if err != nil {
		return err
	}

	found := false
	for i := range items {
		if items[i].ID == id {
			items[i].Payload = payload
			found = true
			break
		}
	}
	if !found {
		return common.ErrNotFound
	}

	return s.queue.ReplaceAll(ctx, items)
}

// Remove discards a queued submission without uploading it.
func (s *Submissions) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Remove(ctx, id)
}

// Drain replays the queue in FIFO order. Each item gets a fibonacci backoff
// budget against transient unavailability; an item is removed only after the
// backend confirmed it. The drain stops at the first item that exhausts its
// budget or fails permanently, so replay order is never reordered around a
// failure. Returns the number of submissions delivered.
func (s *Submissions) Drain(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.queue.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	replayed := 0
	for _, item := range items {
		backoff := retry.WithMaxRetries(s.retryMax, retry.NewFibonacci(s.retryBase))

		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			err := s.uploader.SubmitForm(ctx, item.Doctype, item.Payload)
			if errors.Is(err, common.ErrUnavailable) {
				return retry.RetryableError(err)
			}
			return err
		})
		if err != nil {
			return replayed, fmt.Errorf("replaying submission %s (%s): %w", item.ID, item.Doctype, err)
		}

		if err := s.queue.Remove(ctx, item.ID); err != nil {
			return replayed, fmt.Errorf("%w: removing replayed submission %s: %w", common.ErrStorageFailure, item.ID, err)
		}
		replayed++
		s.log.Info(ctx, "replayed pending submission", "id", item.ID, "doctype", item.Doctype)
	}
	return replayed, nil
}

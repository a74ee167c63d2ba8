package models

import (
	"encoding/json"
	"time"
)

// QueueItem is a completed form submission buffered until connectivity
// permits a replay. Items are replayed in enqueue order and removed only
// after a confirmed upload. Edits replace the whole payload for an id.
type QueueItem struct {
	// ID is a globally unique identifier for the queued submission.
	ID string

	// Doctype names the schema the payload was filled against.
	Doctype string

	// Payload is the submitted record, kept opaque at this layer.
	Payload json.RawMessage

	// EnqueuedAt is the time the item entered the queue, in UTC.
	EnqueuedAt time.Time
}

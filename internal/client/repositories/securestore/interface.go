package securestore

import "context"

// Repository is a key/value secure blob store keyed by a service identifier
// and an item name. It is the seam for the platform keychain: on device the
// implementation is backed by the OS secure storage, in this repo and in
// tests it is backed by the local SQLite database.
//
// Implementations are expected to keep secrets device-local (no cross-device
// sync of the raw blob).
type Repository interface {
	// Get returns the blob stored under (service, name), or nil if nothing
	// is stored.
	Get(ctx context.Context, service, name string) ([]byte, error)

	// Set stores the blob under (service, name), replacing any previous value.
	Set(ctx context.Context, service, name string, value []byte) error

	// Delete removes the blob stored under (service, name). Deleting a missing
	// item is not an error.
	Delete(ctx context.Context, service, name string) error
}

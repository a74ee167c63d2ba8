// Package common defines shared constants and sentinel errors used across the
// fieldentry client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrStorageFailure marks a failed read or write against the secure store
	// or the local cache database.
	ErrStorageFailure = errors.New("storage failure")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRefreshFailure marks a rejected or unreachable identity provider
	// during a forced token refresh.
	ErrRefreshFailure = errors.New("token refresh failure")

	// Schema resolution errors.
	ErrSchemaFetchFailure = errors.New("schema fetch failure")
	ErrNotResolvable      = errors.New("schema not resolvable offline")

	// ErrUnavailable marks an unreachable backend (network down, timeouts, 5xx).
	ErrUnavailable = errors.New("server unavailable")
)

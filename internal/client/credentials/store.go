// Package credentials owns the secure credential lifecycle: durable token
// storage, field-wise merge on save, and refresh orchestration against the
// identity provider. No other component reads the underlying secure storage.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/fieldentry/internal/client/models"
	"github.com/example/fieldentry/internal/client/repositories/securestore"
	"github.com/example/fieldentry/internal/common"
	"github.com/example/fieldentry/internal/logging"
	"golang.org/x/sync/singleflight"
)

const (
	tokenService = "fieldentry-auth-tokens"
	tokenItem    = "oauthTokens"
)

// TokenSource is the identity-provider collaborator. It exchanges the
// long-lived refresh material for a fresh token bundle.
type TokenSource interface {
	Tokens(ctx context.Context, refreshMaterial string) (models.StoredCredential, error)
}

// Store persists credentials in the secure store and orchestrates refreshes.
// Refreshes are single-flight: concurrent callers share one identity-provider
// round-trip and its result.
type Store struct {
	secure securestore.Repository
	source TokenSource
	log    logging.Logger
	sf     singleflight.Group
}

// NewStore constructs a Store over the given secure storage backend and
// identity provider.
func NewStore(secure securestore.Repository, source TokenSource, log logging.Logger) *Store {
	return &Store{secure: secure, source: source, log: log}
}

// Save merges tokens into the stored credential field-wise: non-empty fields
// overwrite, absent fields are preserved. Saving an all-empty bundle is a
// no-op. Returns common.ErrStorageFailure when the secure-store write fails;
// callers treat that as non-fatal unless they are forcing a refresh.
func (s *Store) Save(ctx context.Context, tokens models.StoredCredential) error {
	if tokens.IsEmpty() {
		return nil
	}

	merged := tokens
	if existing := s.Load(ctx); existing != nil {
		merged = existing.Merge(tokens)
	}

	blob, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("%w: encoding credential: %w", common.ErrStorageFailure, err)
	}
	if err := s.secure.Set(ctx, tokenService, tokenItem, blob); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
	}
	return nil
}

// Load returns the most recently merged credential, or nil when nothing is
// stored. A storage read failure is indistinguishable from "nothing stored"
// at this layer; it is logged and nil is returned.
func (s *Store) Load(ctx context.Context) *models.StoredCredential {
	blob, err := s.secure.Get(ctx, tokenService, tokenItem)
	if err != nil {
		s.log.Error(ctx, "failed to load credential from secure storage", "error", err)
		return nil
	}
	if blob == nil {
		return nil
	}

	var cred models.StoredCredential
	if err := json.Unmarshal(blob, &cred); err != nil {
		s.log.Error(ctx, "failed to decode stored credential", "error", err)
		return nil
	}
	return &cred
}

// Clear deletes the stored credential. Deletion is best-effort: failures are
// logged, never returned, since sign-out must always succeed from the user's
// perspective.
func (s *Store) Clear(ctx context.Context) {
	if err := s.secure.Delete(ctx, tokenService, tokenItem); err != nil {
		s.log.Error(ctx, "failed to clear credential from secure storage", "error", err)
	}
}

// Refresh mints new tokens from the identity provider, persists them via Save
// and returns the refreshed bundle. Concurrent refreshes coalesce into one
// provider call. Returns common.ErrRefreshFailure when the provider rejects
// the request, common.ErrStorageFailure when persisting the result fails.
func (s *Store) Refresh(ctx context.Context) (models.StoredCredential, error) {
	v, err, _ := s.sf.Do(tokenItem, func() (any, error) {
		var material string
		if stored := s.Load(ctx); stored != nil {
			material = stored.RefreshMaterial
		}

		fresh, err := s.source.Tokens(ctx, material)
		if err != nil {
			return models.StoredCredential{}, fmt.Errorf("%w: %w", common.ErrRefreshFailure, err)
		}
		if err := s.Save(ctx, fresh); err != nil {
			return models.StoredCredential{}, err
		}
		return fresh, nil
	})
	if err != nil {
		return models.StoredCredential{}, err
	}
	return v.(models.StoredCredential), nil
}

// IDToken returns the current id token. Without forceRefresh a stored,
// unexpired token is returned as-is and refresh errors are swallowed (absent
// result, logged only): a non-forced lookup never fails. With forceRefresh
// the provider is always consulted and failures propagate.
func (s *Store) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	return s.token(ctx, forceRefresh,
		func(c models.StoredCredential) string { return c.IDToken })
}

// AccessToken mirrors IDToken for the access-token field.
func (s *Store) AccessToken(ctx context.Context, forceRefresh bool) (string, error) {
	return s.token(ctx, forceRefresh,
		func(c models.StoredCredential) string { return c.AccessToken })
}

func (s *Store) token(ctx context.Context, forceRefresh bool, pick func(models.StoredCredential) string) (string, error) {
	if !forceRefresh {
		if stored := s.Load(ctx); stored != nil {
			if tok := pick(*stored); tok != "" && !tokenExpired(tok) {
				return tok, nil
			}
		}
	}

	fresh, err := s.Refresh(ctx)
	if err != nil {
		if forceRefresh {
			return "", err
		}
		s.log.Error(ctx, "failed to refresh token", "error", err)
		return "", nil
	}
	return pick(fresh), nil
}

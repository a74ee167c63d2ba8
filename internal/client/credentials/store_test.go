package credentials

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/fieldentry/internal/client/models"
	"github.com/example/fieldentry/internal/common"
	"github.com/example/fieldentry/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeSecureStore struct {
	mu    sync.Mutex
	items map[string][]byte

	GetErr    error
	SetErr    error
	DeleteErr error

	DeleteCalls int
}

func newFakeSecureStore() *fakeSecureStore {
	return &fakeSecureStore{items: make(map[string][]byte)}
}

func (f *fakeSecureStore) key(service, name string) string { return service + "/" + name }

func (f *fakeSecureStore) Get(ctx context.Context, service, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	return f.items[f.key(service, name)], nil
}

func (f *fakeSecureStore) Set(ctx context.Context, service, name string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetErr != nil {
		return f.SetErr
	}
	f.items[f.key(service, name)] = append([]byte(nil), value...)
	return nil
}

func (f *fakeSecureStore) Delete(ctx context.Context, service, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	delete(f.items, f.key(service, name))
	return nil
}

type fakeTokenSource struct {
	mu    sync.Mutex
	calls int
	block chan struct{} // when non-nil, Tokens waits for it to close

	Ret models.StoredCredential
	Err error

	LastMaterial string
}

func (f *fakeTokenSource) Tokens(ctx context.Context, material string) (models.StoredCredential, error) {
	f.mu.Lock()
	f.calls++
	f.LastMaterial = material
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.Ret, f.Err
}

func (f *fakeTokenSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newStore(secure *fakeSecureStore, source *fakeTokenSource) *Store {
	return NewStore(secure, source, logging.NewDefault())
}

func expiredJWT(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

// ---- tests ----

func TestStore_Save_MergesFieldWise(t *testing.T) {
	ctx := context.Background()
	s := newStore(newFakeSecureStore(), &fakeTokenSource{})

	require.NoError(t, s.Save(ctx, models.StoredCredential{IDToken: "x"}))
	require.NoError(t, s.Save(ctx, models.StoredCredential{AccessToken: "y"}))

	got := s.Load(ctx)
	require.NotNil(t, got)
	require.Equal(t, "x", got.IDToken)
	require.Equal(t, "y", got.AccessToken)
}

func TestStore_Save_EmptyBundleIsNoOp(t *testing.T) {
	ctx := context.Background()
	secure := newFakeSecureStore()
	s := newStore(secure, &fakeTokenSource{})

	require.NoError(t, s.Save(ctx, models.StoredCredential{}))
	require.Empty(t, secure.items)
}

func TestStore_Save_StorageFailure(t *testing.T) {
	ctx := context.Background()
	secure := newFakeSecureStore()
	secure.SetErr = errors.New("disk full")
	s := newStore(secure, &fakeTokenSource{})

	err := s.Save(ctx, models.StoredCredential{IDToken: "x"})
	require.ErrorIs(t, err, common.ErrStorageFailure)
}

func TestStore_Load_ReadFailureLooksLikeAbsent(t *testing.T) {
	ctx := context.Background()
	secure := newFakeSecureStore()
	secure.GetErr = errors.New("keychain locked")
	s := newStore(secure, &fakeTokenSource{})

	require.Nil(t, s.Load(ctx))
}

func TestStore_Clear_BestEffort(t *testing.T) {
	ctx := context.Background()
	secure := newFakeSecureStore()
	secure.DeleteErr = errors.New("keychain locked")
	s := newStore(secure, &fakeTokenSource{})

	s.Clear(ctx) // must not panic or surface the failure
	require.Equal(t, 1, secure.DeleteCalls)
}

func TestStore_IDToken_CachedOpaqueTokenReturnedWithoutRefresh(t *testing.T) {
	ctx := context.Background()
	source := &fakeTokenSource{}
	s := newStore(newFakeSecureStore(), source)
	require.NoError(t, s.Save(ctx, models.StoredCredential{IDToken: "opaque-token"}))

	tok, err := s.IDToken(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "opaque-token", tok)
	require.Zero(t, source.Calls())
}

func TestStore_IDToken_CacheMissTriggersRefresh(t *testing.T) {
	ctx := context.Background()
	source := &fakeTokenSource{Ret: models.StoredCredential{IDToken: "fresh"}}
	s := newStore(newFakeSecureStore(), source)
	require.NoError(t, s.Save(ctx, models.StoredCredential{RefreshMaterial: "grant"}))

	tok, err := s.IDToken(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "fresh", tok)
	require.Equal(t, 1, source.Calls())
	require.Equal(t, "grant", source.LastMaterial)

	// refreshed tokens must be persisted
	stored := s.Load(ctx)
	require.Equal(t, "fresh", stored.IDToken)
	require.Equal(t, "grant", stored.RefreshMaterial, "merge must keep the grant")
}

func TestStore_IDToken_ExpiredJWTTriggersRefresh(t *testing.T) {
	ctx := context.Background()
	source := &fakeTokenSource{Ret: models.StoredCredential{IDToken: "fresh"}}
	s := newStore(newFakeSecureStore(), source)
	require.NoError(t, s.Save(ctx, models.StoredCredential{
		IDToken:         expiredJWT(t),
		RefreshMaterial: "grant",
	}))

	tok, err := s.IDToken(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "fresh", tok)
	require.Equal(t, 1, source.Calls())
}

func TestStore_IDToken_NonForcedSwallowsRefreshFailure(t *testing.T) {
	ctx := context.Background()
	source := &fakeTokenSource{Err: errors.New("grant revoked")}
	s := newStore(newFakeSecureStore(), source)

	tok, err := s.IDToken(ctx, false)
	require.NoError(t, err, "a non-forced lookup must never fail")
	require.Empty(t, tok)
}

func TestStore_IDToken_ForcedPropagatesRefreshFailure(t *testing.T) {
	ctx := context.Background()
	source := &fakeTokenSource{Err: errors.New("grant revoked")}
	s := newStore(newFakeSecureStore(), source)

	_, err := s.IDToken(ctx, true)
	require.ErrorIs(t, err, common.ErrRefreshFailure)
}

func TestStore_AccessToken_MirrorsIDToken(t *testing.T) {
	ctx := context.Background()
	source := &fakeTokenSource{Ret: models.StoredCredential{AccessToken: "fresh-at"}}
	s := newStore(newFakeSecureStore(), source)
	require.NoError(t, s.Save(ctx, models.StoredCredential{AccessToken: "cached-at", RefreshMaterial: "grant"}))

	tok, err := s.AccessToken(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "cached-at", tok)
	require.Zero(t, source.Calls())

	tok, err = s.AccessToken(ctx, true)
	require.NoError(t, err)
	require.Equal(t, "fresh-at", tok)
	require.Equal(t, 1, source.Calls())
}

func TestStore_Refresh_SingleFlight(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	source := &fakeTokenSource{
		Ret:   models.StoredCredential{IDToken: "fresh"},
		block: release,
	}
	s := newStore(newFakeSecureStore(), source)
	require.NoError(t, s.Save(ctx, models.StoredCredential{RefreshMaterial: "grant"}))

	const concurrent = 8
	var wg sync.WaitGroup
	results := make([]string, concurrent)
	errs := make([]error, concurrent)

	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.IDToken(ctx, true)
		}(i)
	}

	// let every caller reach the coalesced refresh before it completes
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < concurrent; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "fresh", results[i], "every awaiter gets the in-flight result")
	}
	require.Equal(t, 1, source.Calls(), "exactly one call must reach the identity provider")
}

func TestStore_Refresh_NoMaterialStored(t *testing.T) {
	ctx := context.Background()
	source := &fakeTokenSource{Err: ErrNoRefreshMaterial}
	s := newStore(newFakeSecureStore(), source)

	_, err := s.Refresh(ctx)
	require.ErrorIs(t, err, common.ErrRefreshFailure)
}

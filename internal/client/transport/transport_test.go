package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/example/fieldentry/internal/logging"
	"github.com/stretchr/testify/require"
)

// fakeProvider hands out stale for non-forced lookups and fresh after a
// forced refresh, mimicking an expired cached token.
type fakeProvider struct {
	stale string
	fresh string

	forcedErr   error
	forcedCalls atomic.Int32
}

func (f *fakeProvider) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	if !forceRefresh {
		return f.stale, nil
	}
	f.forcedCalls.Add(1)
	if f.forcedErr != nil {
		return "", f.forcedErr
	}
	return f.fresh, nil
}

func newTestClient(srv *httptest.Server, p TokenProvider) *Client {
	return NewClient(srv.Client(), p, logging.NewDefault())
}

func TestClient_Do_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := newTestClient(srv, &fakeProvider{stale: "tok-1"})
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "Bearer tok-1", gotAuth)
}

func TestClient_Do_ProceedsWithoutTokenWhenAbsent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := newTestClient(srv, &fakeProvider{})
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Empty(t, gotAuth)
}

func TestClient_Do_RetriesOnceAfter401(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			require.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	p := &fakeProvider{stale: "stale", fresh: "fresh"}
	c := newTestClient(srv, p)

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(2), hits.Load())
	require.Equal(t, int32(1), p.forcedCalls.Load())
}

func TestClient_Do_SecondUnauthorizedReturnedAsIs(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := &fakeProvider{stale: "stale", fresh: "fresh"}
	c := newTestClient(srv, p)

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(2), hits.Load(), "no third attempt after a retried 401")
	require.Equal(t, int32(1), p.forcedCalls.Load())
}

func TestClient_Do_NoRetryWhenRefreshFails(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := &fakeProvider{stale: "stale", forcedErr: errors.New("grant revoked")}
	c := newTestClient(srv, p)

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err, "refresh failure must not surface as a transport error")
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(1), hits.Load())
}

func TestClient_Do_NoRetryWhenRefreshYieldsSameToken(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := &fakeProvider{stale: "same", fresh: "same"}
	c := newTestClient(srv, p)

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(1), hits.Load())
}

func TestClient_Do_NoRetryOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := &fakeProvider{stale: "tok"}
	c := newTestClient(srv, p)

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, int32(1), hits.Load())
	require.Zero(t, p.forcedCalls.Load())
}

func TestClient_Post_ReplaysBodyOnRetry(t *testing.T) {
	var hits atomic.Int32
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := &fakeProvider{stale: "stale", fresh: "fresh"}
	c := newTestClient(srv, p)

	resp, err := c.Post(context.Background(), srv.URL, []byte(`{"v":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, []string{`{"v":1}`, `{"v":1}`}, bodies, "retry must carry the same body")
}

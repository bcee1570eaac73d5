package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growth-forecast/internal/common/errors"
	httpclient "growth-forecast/internal/common/http"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type tokenServer struct {
	mu     sync.Mutex
	grants []string
	failOn string
	server *httptest.Server
}

func newTokenServer(t *testing.T) *tokenServer {
	ts := &tokenServer{}
	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		ts.mu.Lock()
		ts.grants = append(ts.grants, req.GrantType)
		n := len(ts.grants)
		fail := ts.failOn == req.GrantType
		ts.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "access-" + string(rune('0'+n)),
			RefreshToken: "refresh-" + string(rune('0'+n)),
			ExpiresIn:    3600,
		})
	}))
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *tokenServer) Grants() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.grants...)
}

func TestTokenCacheReusesUntilSkewedExpiry(t *testing.T) {
	ts := newTokenServer(t)
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewTokenCache(ts.server.URL, "id", "secret", WithClock(clock.Now))

	tok, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok)

	clock.Advance(3600*time.Second - ExpirySkew - time.Second)
	tok, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok)
	assert.Equal(t, []string{"client_credentials"}, ts.Grants())

	clock.Advance(2 * time.Second)
	tok, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok)
	assert.Equal(t, []string{"client_credentials", "refresh_token"}, ts.Grants())
}

func TestTokenCacheFallsBackWhenRefreshFails(t *testing.T) {
	ts := newTokenServer(t)
	clock := &fakeClock{now: time.Now()}
	cache := NewTokenCache(ts.server.URL, "id", "secret", WithClock(clock.Now))

	_, err := cache.Token(context.Background())
	require.NoError(t, err)

	ts.mu.Lock()
	ts.failOn = "refresh_token"
	ts.mu.Unlock()
	clock.Advance(2 * time.Hour)

	tok, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-3", tok)
	assert.Equal(t, []string{"client_credentials", "refresh_token", "client_credentials"}, ts.Grants())
}

func TestTokenCacheErrors(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		_, err := NewTokenCache("http://unused", "", "").Token(context.Background())
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeProviderNotConfigured, errors.AsStandard(err).Code)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		ts := newTokenServer(t)
		ts.failOn = "client_credentials"
		_, err := NewTokenCache(ts.server.URL, "id", "bad").Token(context.Background())
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeProviderRequestFailed, errors.AsStandard(err).Code)
		assert.Equal(t, http.StatusUnauthorized, httpclient.StatusCode(err))
		assert.False(t, httpclient.IsTransient(err))
	})

	t.Run("endpoint outage stays transient", func(t *testing.T) {
		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer down.Close()

		_, err := NewTokenCache(down.URL, "id", "secret").Token(context.Background())
		require.Error(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, httpclient.StatusCode(err))
		assert.True(t, httpclient.IsTransient(err))
	})
}

func TestInvalidateForcesRefetch(t *testing.T) {
	ts := newTokenServer(t)
	cache := NewTokenCache(ts.server.URL, "id", "secret")

	_, err := cache.Token(context.Background())
	require.NoError(t, err)
	cache.Invalidate()
	_, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Len(t, ts.Grants(), 2)
}

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("r8_x").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r8_x", tok)

	_, err = StaticToken("").Token(context.Background())
	assert.Error(t, err)
}

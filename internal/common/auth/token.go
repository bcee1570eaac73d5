package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"growth-forecast/internal/common/errors"
	httpclient "growth-forecast/internal/common/http"
)

// ExpirySkew is subtracted from the provider-reported lifetime.
const ExpirySkew = 60 * time.Second

// TokenResponse holds the response from an OAuth2 token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// TokenCache obtains client-credentials tokens, refreshes them with the refresh token
// when one was issued, and reuses the access token until shortly before it expires.
// Safe for concurrent use.
type TokenCache struct {
	tokenURL     string
	clientID     string
	clientSecret string
	http         *httpclient.Client
	now          func() time.Time

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

type TokenCacheOption func(*TokenCache)

func WithHTTPClient(c *httpclient.Client) TokenCacheOption {
	return func(t *TokenCache) { t.http = c }
}

func WithClock(now func() time.Time) TokenCacheOption {
	return func(t *TokenCache) { t.now = now }
}

func NewTokenCache(tokenURL, clientID, clientSecret string, opts ...TokenCacheOption) *TokenCache {
	t := &TokenCache{
		tokenURL:     strings.TrimSuffix(tokenURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         httpclient.NewClient(30 * time.Second),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Token returns a valid access token, fetching or refreshing one when needed.
func (t *TokenCache) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.accessToken != "" && t.now().Before(t.expiresAt) {
		return t.accessToken, nil
	}

	if t.refreshToken != "" {
		if err := t.fetch(ctx, tokenRequest{GrantType: "refresh_token", RefreshToken: t.refreshToken}); err == nil {
			return t.accessToken, nil
		}
		t.refreshToken = ""
	}

	if t.clientID == "" || t.clientSecret == "" {
		return "", errors.NewProviderNotConfiguredError("image-auth")
	}

	err := t.fetch(ctx, tokenRequest{
		GrantType:    "client_credentials",
		ClientID:     t.clientID,
		ClientSecret: t.clientSecret,
	})
	if err != nil {
		return "", err
	}
	return t.accessToken, nil
}

// Invalidate drops the cached access token, e.g. after a 401.
func (t *TokenCache) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accessToken = ""
	t.expiresAt = time.Time{}
}

func (t *TokenCache) fetch(ctx context.Context, body tokenRequest) error {
	var resp TokenResponse
	if err := t.http.DoJSON(ctx, http.MethodPost, t.tokenURL, nil, body, &resp); err != nil {
		return errors.NewProviderRequestFailedError("image-auth", err).
			WithMetadata("grantType", body.GrantType)
	}
	if resp.AccessToken == "" {
		return errors.NewProviderResponseInvalidError("image-auth", "token response has no access_token")
	}

	t.accessToken = resp.AccessToken
	if resp.RefreshToken != "" {
		t.refreshToken = resp.RefreshToken
	}
	t.expiresAt = t.now().Add(time.Duration(resp.ExpiresIn)*time.Second - ExpirySkew)
	return nil
}

// StaticToken serves a fixed bearer token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", errors.NewProviderNotConfiguredError("image-auth")
	}
	return string(s), nil
}

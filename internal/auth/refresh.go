package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// expiryBuffer is how early a token is refreshed before it expires
const expiryBuffer = 60 * time.Second

// ErrRevoked means Strava rejected the refresh token and the browser flow has
// to run again
var ErrRevoked = errors.New("authorization revoked")

// TokenSource hands out the athlete's access token, refreshing it shortly
// before expiry and passing every new token to persist
type TokenSource struct {
	ctx     context.Context
	config  *oauth2.Config
	persist func(context.Context, *oauth2.Token) error

	mu    sync.Mutex
	token *oauth2.Token
}

// NewTokenSource creates a TokenSource. Refresh requests run under ctx.
// persist may be nil.
func NewTokenSource(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, persist func(context.Context, *oauth2.Token) error) *TokenSource {
	return &TokenSource{ctx: ctx, config: cfg, token: token, persist: persist}
}

// Token implements oauth2.TokenSource
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if time.Until(ts.token.Expiry) > expiryBuffer {
		return ts.token, nil
	}

	fresh, err := ts.refresh()
	if err != nil {
		return nil, err
	}
	if ts.persist != nil {
		if err := ts.persist(ts.ctx, fresh); err != nil {
			return nil, fmt.Errorf("saving refreshed token: %w", err)
		}
	}
	ts.token = fresh
	return fresh, nil
}

// refresh exchanges the refresh token. The expiry is backdated so the oauth2
// package does not hand the current token back from inside the buffer.
func (ts *TokenSource) refresh() (*oauth2.Token, error) {
	stale := *ts.token
	stale.Expiry = time.Now().Add(-time.Second)

	fresh, err := ts.config.TokenSource(ts.ctx, &stale).Token()
	if err == nil {
		return fresh, nil
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil &&
		(re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized) {
		return nil, fmt.Errorf("refreshing token: %w: %w", ErrRevoked, err)
	}
	return nil, fmt.Errorf("refreshing token: %w", err)
}

// CurrentToken returns the held token without refreshing
func (ts *TokenSource) CurrentToken() *oauth2.Token {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.token
}

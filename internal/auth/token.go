// Package auth manages the Spotify OAuth token for an authenticated session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// RefreshWindow is how close to expiry a token may get before it is
// refreshed ahead of use.
const RefreshWindow = 60 * time.Second

var (
	// ErrNotAuthenticated is returned when no token exists for the session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRefreshFailed is returned when the provider rejects a token refresh.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// OAuthRefresher implements Refresher against an oauth2.Config.
type OAuthRefresher struct {
	Config *oauth2.Config
}

// Refresh requests a new token from the provider's token endpoint.
func (r *OAuthRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := r.Config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return src.Token()
}

// Manager decides when a session's token needs refreshing and performs
// the refresh. The caller owns persisting the returned token back into
// session state.
type Manager struct {
	refresher Refresher
	now       func() time.Time
}

// NewManager creates a token Manager backed by the given Refresher.
func NewManager(refresher Refresher) *Manager {
	return &Manager{
		refresher: refresher,
		now:       time.Now,
	}
}

// Valid returns a token safe to use for provider calls.
//
// A nil or empty token fails with ErrNotAuthenticated. A token within
// RefreshWindow of expiry is refreshed first; the refreshed token is
// returned and should replace the stored one. When the provider omits a
// new refresh token, the previous one is carried forward. A token with
// more than RefreshWindow of life left is returned as-is with no
// network call.
func (m *Manager) Valid(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token == nil || token.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}

	if token.Expiry.Sub(m.now()) >= RefreshWindow {
		return token, nil
	}

	refreshed, err := m.refresher.Refresh(ctx, token.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = token.RefreshToken
	}

	return refreshed, nil
}

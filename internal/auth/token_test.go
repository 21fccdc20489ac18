package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// fakeRefresher records refresh calls and returns a canned token or error.
type fakeRefresher struct {
	calls int
	gotRT string
	token *oauth2.Token
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken string) (*oauth2.Token, error) {
	f.calls++
	f.gotRT = refreshToken
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

func newManagerAt(refresher Refresher, now time.Time) *Manager {
	m := NewManager(refresher)
	m.now = func() time.Time { return now }
	return m
}

func TestValid(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		token       *oauth2.Token
		refreshed   *oauth2.Token
		refreshErr  error
		wantCalls   int
		wantErr     error
		wantAccess  string
		wantRefresh string
	}{
		{
			name:      "nil token",
			token:     nil,
			wantCalls: 0,
			wantErr:   ErrNotAuthenticated,
		},
		{
			name:      "empty access token",
			token:     &oauth2.Token{},
			wantCalls: 0,
			wantErr:   ErrNotAuthenticated,
		},
		{
			name: "more than a minute left, no refresh",
			token: &oauth2.Token{
				AccessToken:  "still-good",
				RefreshToken: "rt",
				Expiry:       now.Add(5 * time.Minute),
			},
			wantCalls:  0,
			wantAccess: "still-good",
		},
		{
			name: "less than a minute left triggers one refresh",
			token: &oauth2.Token{
				AccessToken:  "stale",
				RefreshToken: "rt-1",
				Expiry:       now.Add(30 * time.Second),
			},
			refreshed: &oauth2.Token{
				AccessToken:  "fresh",
				RefreshToken: "rt-2",
				Expiry:       now.Add(time.Hour),
			},
			wantCalls:   1,
			wantAccess:  "fresh",
			wantRefresh: "rt-2",
		},
		{
			name: "already expired triggers refresh",
			token: &oauth2.Token{
				AccessToken:  "expired",
				RefreshToken: "rt-1",
				Expiry:       now.Add(-time.Hour),
			},
			refreshed: &oauth2.Token{
				AccessToken: "fresh",
				Expiry:      now.Add(time.Hour),
			},
			wantCalls:  1,
			wantAccess: "fresh",
			// Provider omitted a new refresh token: old one carried forward.
			wantRefresh: "rt-1",
		},
		{
			name: "refresh failure",
			token: &oauth2.Token{
				AccessToken:  "stale",
				RefreshToken: "rt",
				Expiry:       now.Add(10 * time.Second),
			},
			refreshErr: errors.New("invalid_grant"),
			wantCalls:  1,
			wantErr:    ErrRefreshFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := &fakeRefresher{token: tt.refreshed, err: tt.refreshErr}
			m := newManagerAt(refresher, now)

			got, err := m.Valid(context.Background(), tt.token)

			if refresher.calls != tt.wantCalls {
				t.Errorf("refresh calls = %d, want %d", refresher.calls, tt.wantCalls)
			}

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Valid() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Valid() error = %v", err)
			}

			if got.AccessToken != tt.wantAccess {
				t.Errorf("AccessToken = %q, want %q", got.AccessToken, tt.wantAccess)
			}
			if tt.wantRefresh != "" && got.RefreshToken != tt.wantRefresh {
				t.Errorf("RefreshToken = %q, want %q", got.RefreshToken, tt.wantRefresh)
			}
		})
	}
}

func TestValid_ExactlyAtWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	refresher := &fakeRefresher{}
	m := newManagerAt(refresher, now)

	token := &oauth2.Token{
		AccessToken:  "edge",
		RefreshToken: "rt",
		Expiry:       now.Add(RefreshWindow),
	}

	got, err := m.Valid(context.Background(), token)
	if err != nil {
		t.Fatalf("Valid() error = %v", err)
	}
	if refresher.calls != 0 {
		t.Errorf("refresh calls = %d, want 0 at exactly %s left", refresher.calls, RefreshWindow)
	}
	if got.AccessToken != "edge" {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, "edge")
	}
}

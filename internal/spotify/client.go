// Package spotify provides a wrapper around the Spotify Web API.
package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api *spotify.Client
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client) *Client {
	return &Client{api: api}
}

// NewFromToken creates a client wrapper bound to a single access token.
// The token source is static: refresh policy stays with the caller
// rather than happening invisibly inside the HTTP client.
func NewFromToken(ctx context.Context, token *oauth2.Token) *Client {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	return New(spotify.New(httpClient))
}

// UserID returns the current user's Spotify ID.
func (c *Client) UserID(ctx context.Context) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("getting current user: %w", err)
	}
	return user.ID, nil
}

package spotify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"
)

// MaxRecentLimit is the largest page the recently-played endpoint accepts.
const MaxRecentLimit = 50

// UnknownGenre is the placeholder label for unresolved genres.
const UnknownGenre = "Unknown"

// ErrNoRecentPlays is returned when the provider reports no listening history.
var ErrNoRecentPlays = errors.New("no listening history found")

// RecentlyPlayed fetches the user's most recently played tracks and
// normalizes them into flat PlayEvents with genre left unresolved.
// Returns ErrNoRecentPlays when the provider returns zero items.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]PlayEvent, error) {
	if limit < 1 || limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	items, err := c.api.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: spotify.Numeric(limit)})
	if err != nil {
		return nil, fmt.Errorf("fetching recently played: %w", err)
	}

	if len(items) == 0 {
		return nil, ErrNoRecentPlays
	}

	events := make([]PlayEvent, len(items))
	for i, item := range items {
		events[i] = convertItem(item)
	}
	return events, nil
}

// convertItem converts a Spotify RecentlyPlayedItem to a PlayEvent.
func convertItem(item spotify.RecentlyPlayedItem) PlayEvent {
	event := PlayEvent{
		TrackName: item.Track.Name,
		PlayedAt:  item.PlayedAt.UTC().Format(time.RFC3339Nano),
		Genre:     UnknownGenre,
	}

	// The primary artist carries the genre metadata.
	if len(item.Track.Artists) > 0 {
		event.Artist = item.Track.Artists[0].Name
		event.ArtistID = item.Track.Artists[0].ID.String()
	}

	return event
}

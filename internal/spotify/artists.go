package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// ArtistGenres fetches the genre list from the artist-detail endpoint.
func (c *Client) ArtistGenres(ctx context.Context, id string) ([]string, error) {
	artist, err := c.api.GetArtist(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("fetching artist %s: %w", id, err)
	}
	return artist.Genres, nil
}

// SearchArtistGenres searches for the artist by name and returns the
// genre list of the top match. Returns an empty slice when the search
// finds nothing.
func (c *Client) SearchArtistGenres(ctx context.Context, name string) ([]string, error) {
	result, err := c.api.Search(ctx, name, spotify.SearchTypeArtist, spotify.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("searching artist %q: %w", name, err)
	}

	if result.Artists == nil || len(result.Artists.Artists) == 0 {
		return nil, nil
	}
	return result.Artists.Artists[0].Genres, nil
}

// TopArtists fetches the user's long-term top artists.
func (c *Client) TopArtists(ctx context.Context, limit int) ([]Artist, error) {
	page, err := c.api.CurrentUsersTopArtists(ctx, spotify.Limit(limit), spotify.Timerange(spotify.LongTermRange))
	if err != nil {
		return nil, fmt.Errorf("fetching top artists: %w", err)
	}

	artists := make([]Artist, len(page.Artists))
	for i, a := range page.Artists {
		artists[i] = Artist{Name: a.Name, ID: a.ID.String()}
	}
	return artists, nil
}

// Recommendations fetches track recommendations seeded by artist IDs.
func (c *Client) Recommendations(ctx context.Context, seedArtists []string, limit int) ([]Recommendation, error) {
	ids := make([]spotify.ID, len(seedArtists))
	for i, id := range seedArtists {
		ids[i] = spotify.ID(id)
	}

	recs, err := c.api.GetRecommendations(ctx, spotify.Seeds{Artists: ids}, nil, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("fetching recommendations: %w", err)
	}

	tracks := make([]Recommendation, len(recs.Tracks))
	for i, t := range recs.Tracks {
		rec := Recommendation{Name: t.Name}
		if len(t.Artists) > 0 {
			rec.Artist = t.Artists[0].Name
		}
		tracks[i] = rec
	}
	return tracks, nil
}

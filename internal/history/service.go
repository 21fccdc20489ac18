// Package history orchestrates ingestion of listening history from
// Spotify into the local store, with genre enrichment.
package history

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Dylan-Avallone/SpotifyData/internal/db"
	"github.com/Dylan-Avallone/SpotifyData/internal/genre"
	"github.com/Dylan-Avallone/SpotifyData/internal/spotify"
)

// DefaultFetchLimit is how many recent plays one refresh ingests.
const DefaultFetchLimit = 10

// RecentFetcher retrieves recently played tracks from the provider.
type RecentFetcher interface {
	RecentlyPlayed(ctx context.Context, limit int) ([]spotify.PlayEvent, error)
}

// Service handles ingesting play events into the database.
type Service struct {
	db         *db.DB
	resolver   *genre.Resolver
	sanitizer  *genre.Sanitizer
	fetchLimit int
}

// Option configures a Service.
type Option func(*Service)

// WithFetchLimit sets how many recent plays each ingestion requests.
func WithFetchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchLimit = n
		}
	}
}

// New creates a new history service.
func New(database *db.DB, resolver *genre.Resolver, opts ...Option) *Service {
	s := &Service{
		db:         database,
		resolver:   resolver,
		sanitizer:  genre.NewSanitizer(database.History(), resolver),
		fetchLimit: DefaultFetchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestResult contains the result of one ingestion run.
type IngestResult struct {
	Events     []spotify.PlayEvent
	Repaired   int
	IngestedAt time.Time
}

// Ingest fetches recent plays, resolves each event's genre, persists the
// batch (duplicate played_at values are silently skipped), and runs a
// sanitizer pass over the stored labels.
func (s *Service) Ingest(ctx context.Context, fetcher RecentFetcher) (*IngestResult, error) {
	events, err := fetcher.RecentlyPlayed(ctx, s.fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching recent plays: %w", err)
	}

	records := make([]db.Record, len(events))
	for i, event := range events {
		event.Genre = s.resolver.Resolve(ctx, event.Artist, event.ArtistID)
		events[i] = event
		records[i] = db.Record{
			TrackName: event.TrackName,
			Artist:    event.Artist,
			PlayedAt:  event.PlayedAt,
			Genre:     event.Genre,
		}
	}

	if err := s.db.History().InsertBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("persisting plays: %w", err)
	}

	repaired, err := s.sanitizer.ScanAndRepair(ctx)
	if err != nil {
		// Ingestion itself succeeded; the cleanup pass is best-effort.
		log.Printf("sanitizer pass failed: %v", err)
	}

	return &IngestResult{
		Events:     events,
		Repaired:   repaired,
		IngestedAt: time.Now(),
	}, nil
}

// BackfillMissingGenres re-resolves every stored artist whose genre is
// missing or Unknown and updates their rows. Returns the number of
// artists that ended up with a real label.
func (s *Service) BackfillMissingGenres(ctx context.Context) (int, error) {
	artists, err := s.db.History().MissingGenreArtists(ctx)
	if err != nil {
		return 0, fmt.Errorf("finding artists with missing genres: %w", err)
	}

	updated := 0
	for _, artist := range artists {
		label := s.resolver.Resolve(ctx, artist, "")
		if label == genre.Unknown {
			continue
		}
		if err := s.db.History().UpdateGenre(ctx, artist, label); err != nil {
			return updated, fmt.Errorf("updating genre for %s: %w", artist, err)
		}
		updated++
	}
	return updated, nil
}

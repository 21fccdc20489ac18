package genre

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Dylan-Avallone/SpotifyData/internal/db"
)

// maxLabelWords is the most words a plausible genre label can have.
const maxLabelWords = 3

// labelCharset matches labels built only from letters, spaces, and hyphens.
var labelCharset = `ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz -`

// HistoryStore is the slice of the history repository the sanitizer needs.
type HistoryStore interface {
	DistinctArtistGenres(ctx context.Context) ([]db.ArtistGenre, error)
	UpdateGenre(ctx context.Context, artist, genre string) error
}

// Sanitizer scans stored genre labels for ones that are clearly not
// single genre words (sentences, artist-name leakage) and re-resolves
// them. Best-effort: a repair that again fails validation is only caught
// on the next pass.
type Sanitizer struct {
	store    HistoryStore
	resolver *Resolver
}

// NewSanitizer creates a Sanitizer over the given store and resolver.
func NewSanitizer(store HistoryStore, resolver *Resolver) *Sanitizer {
	return &Sanitizer{
		store:    store,
		resolver: resolver,
	}
}

// ScanAndRepair examines every distinct (artist, genre) pair, resets
// invalid labels to Unknown, and backfills via the resolver. Returns the
// number of artists reset.
func (s *Sanitizer) ScanAndRepair(ctx context.Context) (int, error) {
	pairs, err := s.store.DistinctArtistGenres(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading stored genres: %w", err)
	}

	reset := 0
	for _, pair := range pairs {
		if ValidLabel(pair.Artist, pair.Genre) {
			continue
		}

		log.Printf("sanitizer: invalid genre %q for %s, resetting", pair.Genre, pair.Artist)

		if err := s.store.UpdateGenre(ctx, pair.Artist, Unknown); err != nil {
			return reset, fmt.Errorf("resetting genre for %s: %w", pair.Artist, err)
		}
		reset++

		// The cached label is the bad one; evict so the resolver
		// consults the provider or model again instead of echoing it.
		s.resolver.cache.Evict(pair.Artist)

		label := s.resolver.Resolve(ctx, pair.Artist, "")
		if label == Unknown {
			continue
		}
		if err := s.store.UpdateGenre(ctx, pair.Artist, label); err != nil {
			return reset, fmt.Errorf("backfilling genre for %s: %w", pair.Artist, err)
		}
	}

	return reset, nil
}

// ValidLabel reports whether a stored genre label looks like a real
// genre for the artist. A label is invalid when it has more than three
// words, contains characters outside letters/spaces/hyphens, or contains
// the artist's own name (a tell for model output that echoed the prompt).
func ValidLabel(artist, label string) bool {
	if label == "" {
		return false
	}

	if len(strings.Fields(label)) > maxLabelWords {
		return false
	}

	for _, r := range label {
		if !strings.ContainsRune(labelCharset, r) {
			return false
		}
	}

	if artist != "" && strings.Contains(strings.ToLower(label), strings.ToLower(artist)) {
		return false
	}

	return true
}

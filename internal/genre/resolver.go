package genre

import (
	"context"
	"regexp"
)

// Unknown is the placeholder label when no tier produces a genre.
const Unknown = "Unknown"

// labelPattern extracts the first alphabetic token (letters and hyphens)
// from a model completion.
var labelPattern = regexp.MustCompile(`[A-Za-z][A-Za-z-]*`)

// ArtistSource looks up genres from the music provider.
type ArtistSource interface {
	ArtistGenres(ctx context.Context, id string) ([]string, error)
	SearchArtistGenres(ctx context.Context, name string) ([]string, error)
}

// Model guesses a genre via a language model. The returned text is a raw
// completion; label extraction happens here.
type Model interface {
	GuessGenre(ctx context.Context, artist string) (string, error)
}

// Resolver determines a single genre label for an artist using a tiered
// strategy: cache, provider artist detail, provider search, language
// model. Tier failures are absorbed; Resolve always returns a label.
type Resolver struct {
	cache    *Cache
	provider ArtistSource
	model    Model // may be nil; tier is skipped
}

// NewResolver creates a Resolver. model may be nil to disable the
// language-model tier.
func NewResolver(cache *Cache, provider ArtistSource, model Model) *Resolver {
	return &Resolver{
		cache:    cache,
		provider: provider,
		model:    model,
	}
}

// Resolve returns a genre label for the artist, worst case Unknown. The
// final label, whatever tier produced it, is cached so the same artist
// never triggers repeated provider or model calls within a process.
func (r *Resolver) Resolve(ctx context.Context, artistName, artistID string) string {
	if label, ok := r.cache.Get(artistName); ok {
		return label
	}

	label, err := r.lookup(ctx, artistName, artistID)
	if err != nil || label == "" {
		// Enrichment is best-effort: a failed lookup degrades to
		// Unknown rather than surfacing.
		label = Unknown
	}

	r.cache.Put(artistName, label)
	return label
}

// lookup runs the network tiers in order and returns the first label
// found. An error from one tier falls through to the next; the returned
// error reflects only the last tier attempted.
func (r *Resolver) lookup(ctx context.Context, artistName, artistID string) (string, error) {
	var lastErr error

	if artistID != "" {
		genres, err := r.provider.ArtistGenres(ctx, artistID)
		if err == nil && len(genres) > 0 {
			return genres[0], nil
		}
		lastErr = err
	}

	genres, err := r.provider.SearchArtistGenres(ctx, artistName)
	if err == nil && len(genres) > 0 {
		return genres[0], nil
	}
	if err != nil {
		lastErr = err
	}

	if r.model == nil {
		return "", lastErr
	}

	completion, err := r.model.GuessGenre(ctx, artistName)
	if err != nil {
		return "", err
	}
	return extractLabel(completion), nil
}

// extractLabel pulls the first alphabetic token out of a model
// completion. "Pop rock music is great" yields "Pop"; text with no
// alphabetic token yields the empty string.
func extractLabel(completion string) string {
	return labelPattern.FindString(completion)
}

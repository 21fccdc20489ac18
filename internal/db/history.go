package db

import (
	"context"
	"database/sql"
	"fmt"
)

// HistoryRepository handles listening_history database operations.
type HistoryRepository struct {
	sql *sql.DB
}

// EnsureSchema creates the listening_history table if it does not exist.
// Safe to run on every startup.
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS listening_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			track_name TEXT,
			artist TEXT,
			played_at TEXT UNIQUE,
			genre TEXT
		)
	`
	if _, err := r.sql.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating listening_history table: %w", err)
	}
	return nil
}

// InsertBatch inserts listening events, ignoring rows whose played_at is
// already recorded. The stored genre is never changed on conflict; repairs
// go through UpdateGenre.
func (r *HistoryRepository) InsertBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO listening_history (track_name, artist, played_at, genre)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (played_at) DO NOTHING
	`
	for _, rec := range records {
		if _, err := r.sql.ExecContext(ctx, query, rec.TrackName, rec.Artist, rec.PlayedAt, rec.Genre); err != nil {
			return fmt.Errorf("inserting listening event: %w", err)
		}
	}
	return nil
}

// All retrieves every stored listening event, newest first.
func (r *HistoryRepository) All(ctx context.Context) ([]Record, error) {
	query := `
		SELECT id, track_name, artist, played_at, genre
		FROM listening_history
		ORDER BY played_at DESC
	`
	rows, err := r.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying listening history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.TrackName, &rec.Artist, &rec.PlayedAt, &rec.Genre); err != nil {
			return nil, fmt.Errorf("scanning listening event: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of stored listening events.
func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM listening_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting listening events: %w", err)
	}
	return n, nil
}

// UpdateGenre sets the genre for every row matching the artist. Genre is
// effectively per-artist even though it is stored per-row.
func (r *HistoryRepository) UpdateGenre(ctx context.Context, artist, genre string) error {
	query := `UPDATE listening_history SET genre = ? WHERE artist = ?`
	if _, err := r.sql.ExecContext(ctx, query, genre, artist); err != nil {
		return fmt.Errorf("updating genre for %s: %w", artist, err)
	}
	return nil
}

// DistinctArtistGenres retrieves every distinct (artist, genre) pair.
func (r *HistoryRepository) DistinctArtistGenres(ctx context.Context) ([]ArtistGenre, error) {
	query := `SELECT DISTINCT artist, COALESCE(genre, 'Unknown') FROM listening_history`
	rows, err := r.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying artist genres: %w", err)
	}
	defer rows.Close()

	var pairs []ArtistGenre
	for rows.Next() {
		var pair ArtistGenre
		if err := rows.Scan(&pair.Artist, &pair.Genre); err != nil {
			return nil, fmt.Errorf("scanning artist genre: %w", err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}

// MissingGenreArtists retrieves distinct artists whose stored genre is
// missing or still "Unknown".
func (r *HistoryRepository) MissingGenreArtists(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT artist
		FROM listening_history
		WHERE genre IS NULL OR genre = 'Unknown'
	`
	rows, err := r.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying artists with missing genres: %w", err)
	}
	defer rows.Close()

	var artists []string
	for rows.Next() {
		var artist string
		if err := rows.Scan(&artist); err != nil {
			return nil, fmt.Errorf("scanning artist: %w", err)
		}
		artists = append(artists, artist)
	}
	return artists, rows.Err()
}

// GenreCounts aggregates play counts per genre, most played first.
func (r *HistoryRepository) GenreCounts(ctx context.Context) ([]GenreCount, error) {
	query := `
		SELECT COALESCE(genre, 'Unknown'), COUNT(*)
		FROM listening_history
		GROUP BY COALESCE(genre, 'Unknown')
		ORDER BY COUNT(*) DESC
	`
	rows, err := r.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying genre counts: %w", err)
	}
	defer rows.Close()

	var counts []GenreCount
	for rows.Next() {
		var gc GenreCount
		if err := rows.Scan(&gc.Genre, &gc.Count); err != nil {
			return nil, fmt.Errorf("scanning genre count: %w", err)
		}
		counts = append(counts, gc)
	}
	return counts, rows.Err()
}

// TopArtists aggregates play counts per artist, most played first,
// limited to n artists.
func (r *HistoryRepository) TopArtists(ctx context.Context, n int) ([]ArtistCount, error) {
	query := `
		SELECT artist, COUNT(*)
		FROM listening_history
		GROUP BY artist
		ORDER BY COUNT(*) DESC
		LIMIT ?
	`
	rows, err := r.sql.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("querying top artists: %w", err)
	}
	defer rows.Close()

	var counts []ArtistCount
	for rows.Next() {
		var ac ArtistCount
		if err := rows.Scan(&ac.Artist, &ac.Count); err != nil {
			return nil, fmt.Errorf("scanning artist count: %w", err)
		}
		counts = append(counts, ac)
	}
	return counts, rows.Err()
}

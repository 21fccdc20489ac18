package db

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *HistoryRepository {
	t.Helper()

	ctx := context.Background()
	database, err := Open(ctx, filepath.Join(t.TempDir(), "spotify_data.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := database.History()
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return repo
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	repo := openTestDB(t)

	// Safe to run again on an existing table.
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second EnsureSchema() error = %v", err)
	}
}

func TestInsertBatch_DuplicatePlayedAtIgnored(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	batch := []Record{
		{TrackName: "Song A", Artist: "Artist A", PlayedAt: "2025-01-01T10:00:00Z", Genre: "indie"},
		{TrackName: "Song B", Artist: "Artist B", PlayedAt: "2025-01-01T11:00:00Z", Genre: "rap"},
	}

	if err := repo.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}
	if err := repo.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("re-ingesting identical batch: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("row count after double ingestion = %d, want 2", n)
	}
}

func TestInsertBatch_ConflictDoesNotUpdateGenre(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	original := []Record{{TrackName: "Song A", Artist: "Artist A", PlayedAt: "T1", Genre: "Unknown"}}
	if err := repo.InsertBatch(ctx, original); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	// A later run resolves a real genre, but the existing row keeps its
	// stored value; only UpdateGenre repairs it.
	improved := []Record{{TrackName: "Song A", Artist: "Artist A", PlayedAt: "T1", Genre: "indie"}}
	if err := repo.InsertBatch(ctx, improved); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	records, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].Genre != "Unknown" {
		t.Errorf("Genre = %q, want %q (conflict must not update)", records[0].Genre, "Unknown")
	}
}

func TestUpdateGenre_PerArtist(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	batch := []Record{
		{TrackName: "Song A", Artist: "Artist A", PlayedAt: "T1", Genre: "Unknown"},
		{TrackName: "Song B", Artist: "Artist A", PlayedAt: "T2", Genre: "Unknown"},
		{TrackName: "Song C", Artist: "Artist B", PlayedAt: "T3", Genre: "rap"},
	}
	if err := repo.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	if err := repo.UpdateGenre(ctx, "Artist A", "indie"); err != nil {
		t.Fatalf("UpdateGenre() error = %v", err)
	}

	records, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	for _, rec := range records {
		switch rec.Artist {
		case "Artist A":
			if rec.Genre != "indie" {
				t.Errorf("row %s genre = %q, want %q", rec.PlayedAt, rec.Genre, "indie")
			}
		case "Artist B":
			if rec.Genre != "rap" {
				t.Errorf("row %s genre = %q, want untouched %q", rec.PlayedAt, rec.Genre, "rap")
			}
		}
	}
}

func TestDistinctArtistGenres(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	batch := []Record{
		{TrackName: "Song A", Artist: "Artist A", PlayedAt: "T1", Genre: "indie"},
		{TrackName: "Song B", Artist: "Artist A", PlayedAt: "T2", Genre: "indie"},
		{TrackName: "Song C", Artist: "Artist B", PlayedAt: "T3", Genre: "rap"},
	}
	if err := repo.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	pairs, err := repo.DistinctArtistGenres(ctx)
	if err != nil {
		t.Fatalf("DistinctArtistGenres() error = %v", err)
	}
	if len(pairs) != 2 {
		t.Errorf("len(pairs) = %d, want 2", len(pairs))
	}
}

func TestMissingGenreArtists(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	batch := []Record{
		{TrackName: "Song A", Artist: "Artist A", PlayedAt: "T1", Genre: "Unknown"},
		{TrackName: "Song B", Artist: "Artist B", PlayedAt: "T2", Genre: "rap"},
		{TrackName: "Song C", Artist: "Artist C", PlayedAt: "T3", Genre: "Unknown"},
	}
	if err := repo.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	artists, err := repo.MissingGenreArtists(ctx)
	if err != nil {
		t.Fatalf("MissingGenreArtists() error = %v", err)
	}
	if len(artists) != 2 {
		t.Fatalf("len(artists) = %d, want 2", len(artists))
	}
}

func TestAggregations(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	batch := []Record{
		{TrackName: "Song A", Artist: "Artist A", PlayedAt: "T1", Genre: "indie"},
		{TrackName: "Song B", Artist: "Artist A", PlayedAt: "T2", Genre: "indie"},
		{TrackName: "Song C", Artist: "Artist A", PlayedAt: "T3", Genre: "indie"},
		{TrackName: "Song D", Artist: "Artist B", PlayedAt: "T4", Genre: "rap"},
	}
	if err := repo.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	genres, err := repo.GenreCounts(ctx)
	if err != nil {
		t.Fatalf("GenreCounts() error = %v", err)
	}
	if len(genres) != 2 || genres[0].Genre != "indie" || genres[0].Count != 3 {
		t.Errorf("GenreCounts() = %+v, want indie=3 first", genres)
	}

	artists, err := repo.TopArtists(ctx, 1)
	if err != nil {
		t.Fatalf("TopArtists() error = %v", err)
	}
	if len(artists) != 1 || artists[0].Artist != "Artist A" || artists[0].Count != 3 {
		t.Errorf("TopArtists(1) = %+v, want Artist A=3", artists)
	}
}

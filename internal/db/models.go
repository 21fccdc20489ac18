package db

// Record is one persisted listening event.
type Record struct {
	ID        int64
	TrackName string
	Artist    string
	PlayedAt  string // provider timestamp, unique natural key
	Genre     string
}

// ArtistGenre is one distinct (artist, genre) pair from the history table.
type ArtistGenre struct {
	Artist string
	Genre  string
}

// GenreCount is the number of plays recorded for one genre.
type GenreCount struct {
	Genre string
	Count int
}

// ArtistCount is the number of plays recorded for one artist.
type ArtistCount struct {
	Artist string
	Count  int
}

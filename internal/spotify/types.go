package spotify

// PlayEvent is one normalized "track played at time T" record.
// Genre starts as "Unknown" and is filled in before persistence.
type PlayEvent struct {
	TrackName string `json:"track_name"`
	Artist    string `json:"artist"`
	ArtistID  string `json:"artist_id,omitempty"`
	PlayedAt  string `json:"played_at"`
	Genre     string `json:"genre"`
}

// Artist is a named artist with its Spotify ID.
type Artist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Recommendation is one recommended track.
type Recommendation struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

package web

import (
	"crypto/rand"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	zmb3 "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/Dylan-Avallone/SpotifyData/internal/auth"
	"github.com/Dylan-Avallone/SpotifyData/internal/dataset"
	"github.com/Dylan-Avallone/SpotifyData/internal/db"
	"github.com/Dylan-Avallone/SpotifyData/internal/genre"
	"github.com/Dylan-Avallone/SpotifyData/internal/history"
	"github.com/Dylan-Avallone/SpotifyData/internal/spotify"
)

// maxUploadBytes caps uploaded CSV size (16 MiB).
const maxUploadBytes = 16 << 20

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	auth      *spotifyauth.Authenticator
	tokens    *auth.Manager
	sessions  *SessionStore
	templates *Templates
	database  *db.DB
	cache     *genre.Cache
	model     genre.Model // nil disables the language-model fallback
	datasets  *dataset.Store
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	authenticator *spotifyauth.Authenticator,
	tokens *auth.Manager,
	sessions *SessionStore,
	templates *Templates,
	database *db.DB,
	cache *genre.Cache,
	model genre.Model,
	datasets *dataset.Store,
) *Handlers {
	return &Handlers{
		auth:      authenticator,
		tokens:    tokens,
		sessions:  sessions,
		templates: templates,
		database:  database,
		cache:     cache,
		model:     model,
		datasets:  datasets,
	}
}

// historyFor builds the ingestion service around the request's client.
// Genre lookups need the session's credentials, so the resolver is
// request-scoped; the cache behind it is shared for the process.
func (h *Handlers) historyFor(client *spotify.Client) *history.Service {
	resolver := genre.NewResolver(h.cache, client, h.model)
	return history.New(h.database, resolver)
}

// client returns a Spotify client for the request's session, refreshing
// the token first when it is within the refresh window. The refreshed
// token is persisted back into the session.
func (h *Handlers) client(r *http.Request) (*spotify.Client, error) {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		return nil, auth.ErrNotAuthenticated
	}

	token, err := h.tokens.Valid(r.Context(), session.Token)
	if err != nil {
		return nil, err
	}

	if token != session.Token {
		h.sessions.UpdateToken(session.ID, token)
	}

	return spotify.NewFromToken(r.Context(), token), nil
}

// ============================================================================
// Pages and auth
// ============================================================================

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)

	data := HomePageData{
		PageData: PageData{
			Title:       "SpotifyData",
			CurrentPath: r.URL.Path,
		},
		Authenticated: session != nil,
	}

	if session != nil {
		data.User = &UserData{
			ID:   session.UserID,
			Name: session.UserName,
		}
		if n, err := h.database.History().Count(r.Context()); err == nil {
			data.TrackCount = n
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
}

// Login initiates the Spotify OAuth flow (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateOAuthState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	// Store state in cookie for validation on callback
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes
	})

	url := h.auth.AuthURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback handles the OAuth callback from Spotify (GET /callback).
// After storing the session it immediately ingests the user's recent
// plays and backfills any missing genres, so the first page load already
// has data.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}

	state := r.URL.Query().Get("state")
	if state != stateCookie.Value {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Error(w, fmt.Sprintf("Spotify auth error: %s", errMsg), http.StatusBadRequest)
		return
	}

	token, err := h.auth.Token(r.Context(), state, r)
	if err != nil {
		http.Error(w, "Failed to get token", http.StatusInternalServerError)
		return
	}

	client := zmb3.New(h.auth.Client(r.Context(), token))
	user, err := client.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	session, err := h.sessions.Create(token, string(user.ID), user.DisplayName)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	h.sessions.SetCookie(w, session)

	// Best-effort initial ingest; login succeeds either way.
	wrapper := spotify.NewFromToken(r.Context(), token)
	service := h.historyFor(wrapper)
	if _, err := service.Ingest(r.Context(), wrapper); err != nil {
		log.Printf("initial history ingest failed: %v", err)
	}
	if _, err := service.BackfillMissingGenres(r.Context()); err != nil {
		log.Printf("genre backfill failed: %v", err)
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Logout clears the session and redirects to home (POST /auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session != nil {
		h.sessions.Delete(session.ID)
	}

	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// ============================================================================
// Listening history
// ============================================================================

// RefreshHistory ingests the user's recent plays (GET /history/refresh).
func (h *Handlers) RefreshHistory(w http.ResponseWriter, r *http.Request) {
	client, err := h.client(r)
	if err != nil {
		h.authError(w, err)
		return
	}

	result, err := h.historyFor(client).Ingest(r.Context(), client)
	if errors.Is(err, spotify.ErrNoRecentPlays) {
		respondError(w, http.StatusNotFound, "No listening history found.")
		return
	}
	if err != nil {
		log.Printf("history ingest failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to fetch listening history.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":  "Listening history saved.",
		"tracks":   result.Events,
		"repaired": result.Repaired,
	})
}

// History returns every stored listening event (GET /history).
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.database.History().All(r.Context())
	if err != nil {
		log.Printf("querying history failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to read listening history.")
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusNotFound, "No listening history available.")
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// GenreBreakdown returns play counts per genre (GET /history/genres).
func (h *Handlers) GenreBreakdown(w http.ResponseWriter, r *http.Request) {
	counts, err := h.database.History().GenreCounts(r.Context())
	if err != nil {
		log.Printf("querying genre counts failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to read genre data.")
		return
	}
	if len(counts) == 0 {
		respondError(w, http.StatusNotFound, "No genre data available.")
		return
	}

	type entry struct {
		Genre string `json:"genre"`
		Count int    `json:"count"`
	}
	out := make([]entry, len(counts))
	for i, c := range counts {
		out[i] = entry{Genre: c.Genre, Count: c.Count}
	}
	respondJSON(w, http.StatusOK, out)
}

// TopPlayedArtists returns the ten most played stored artists (GET /history/artists).
func (h *Handlers) TopPlayedArtists(w http.ResponseWriter, r *http.Request) {
	counts, err := h.database.History().TopArtists(r.Context(), 10)
	if err != nil {
		log.Printf("querying top artists failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to read listening history.")
		return
	}
	if len(counts) == 0 {
		respondError(w, http.StatusNotFound, "No listening history available.")
		return
	}

	type entry struct {
		Artist string `json:"artist"`
		Count  int    `json:"count"`
	}
	out := make([]entry, len(counts))
	for i, c := range counts {
		out[i] = entry{Artist: c.Artist, Count: c.Count}
	}
	respondJSON(w, http.StatusOK, out)
}

// ExportHistory streams the stored history as a CSV download (GET /history/export).
func (h *Handlers) ExportHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.database.History().All(r.Context())
	if err != nil {
		log.Printf("querying history failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to read listening history.")
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusNotFound, "No listening history available.")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="spotify_history.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"id", "track_name", "artist", "played_at", "genre"})
	for _, rec := range records {
		_ = writer.Write([]string{
			strconv.FormatInt(rec.ID, 10),
			rec.TrackName,
			rec.Artist,
			rec.PlayedAt,
			rec.Genre,
		})
	}
	writer.Flush()
}

// ============================================================================
// Provider queries
// ============================================================================

// TopArtists returns the user's long-term top artists (GET /spotify/top-artists).
func (h *Handlers) TopArtists(w http.ResponseWriter, r *http.Request) {
	client, err := h.client(r)
	if err != nil {
		h.authError(w, err)
		return
	}

	artists, err := client.TopArtists(r.Context(), 10)
	if err != nil {
		log.Printf("fetching top artists failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to fetch top artists.")
		return
	}
	if len(artists) == 0 {
		respondError(w, http.StatusNotFound, "No top artists found in your Spotify account.")
		return
	}

	respondJSON(w, http.StatusOK, artists)
}

// Recommendations returns tracks seeded by the user's top artists
// (GET /spotify/recommendations).
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	client, err := h.client(r)
	if err != nil {
		h.authError(w, err)
		return
	}

	artists, err := client.TopArtists(r.Context(), 5)
	if err != nil {
		log.Printf("fetching seed artists failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to fetch top artists.")
		return
	}
	if len(artists) == 0 {
		respondError(w, http.StatusNotFound, "No top artists found. Play more music on Spotify!")
		return
	}

	// Up to 3 seed artists.
	seeds := make([]string, 0, 3)
	for _, artist := range artists {
		if len(seeds) == 3 {
			break
		}
		seeds = append(seeds, artist.ID)
	}

	recs, err := client.Recommendations(r.Context(), seeds, 10)
	if err != nil {
		log.Printf("fetching recommendations failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to fetch recommendations.")
		return
	}

	respondJSON(w, http.StatusOK, recs)
}

// ============================================================================
// Uploaded dataset
// ============================================================================

// UploadDataset accepts a CSV upload replacing the current dataset
// (POST /dataset).
func (h *Handlers) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded.")
		return
	}
	defer file.Close()

	d, err := dataset.Parse(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Could not parse CSV: %v", err))
		return
	}

	id := h.datasets.Set(d)
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "File uploaded successfully.",
		"id":      id,
		"columns": d.Columns,
	})
}

// currentDataset fetches the uploaded dataset or writes the no-data error.
func (h *Handlers) currentDataset(w http.ResponseWriter) *dataset.Dataset {
	d, _ := h.datasets.Get()
	if d == nil {
		respondError(w, http.StatusBadRequest, "No data uploaded.")
		return nil
	}
	return d
}

// DatasetSummary returns headline statistics (GET /dataset/summary).
func (h *Handlers) DatasetSummary(w http.ResponseWriter, _ *http.Request) {
	d := h.currentDataset(w)
	if d == nil {
		return
	}
	respondJSON(w, http.StatusOK, d.Summarize())
}

// DatasetChart returns top-10 artist counts for charting (GET /dataset/chart).
func (h *Handlers) DatasetChart(w http.ResponseWriter, _ *http.Request) {
	d := h.currentDataset(w)
	if d == nil {
		return
	}
	respondJSON(w, http.StatusOK, d.TopArtists(10))
}

// DatasetRecommend returns up to five tracks matching the query
// (POST /dataset/recommend).
func (h *Handlers) DatasetRecommend(w http.ResponseWriter, r *http.Request) {
	d := h.currentDataset(w)
	if d == nil {
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		respondError(w, http.StatusBadRequest, "Please enter an artist or song name.")
		return
	}

	matches := d.Recommend(req.Query, 5)
	if len(matches) == 0 {
		respondError(w, http.StatusNotFound, "No matches found. Try another artist or song.")
		return
	}
	respondJSON(w, http.StatusOK, matches)
}

// ExportDataset streams the uploaded dataset back as CSV (GET /dataset/export).
func (h *Handlers) ExportDataset(w http.ResponseWriter, _ *http.Request) {
	d := h.currentDataset(w)
	if d == nil {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="exported_data.csv"`)
	if err := d.WriteCSV(w); err != nil {
		log.Printf("exporting dataset failed: %v", err)
	}
}

// ============================================================================
// Helpers
// ============================================================================

// authError maps token failures to a "please log in" response.
func (h *Handlers) authError(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrNotAuthenticated) || errors.Is(err, auth.ErrRefreshFailed) {
		respondError(w, http.StatusUnauthorized, "User not authenticated. Please log in.")
		return
	}
	respondError(w, http.StatusInternalServerError, "Unexpected authentication error.")
}

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

// respondError writes a JSON error body.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// generateOAuthState creates a random state string for OAuth.
func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

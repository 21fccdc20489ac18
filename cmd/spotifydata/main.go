// Command spotifydata runs the SpotifyData personal listening-analytics
// web application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/Dylan-Avallone/SpotifyData/internal/db"
	"github.com/Dylan-Avallone/SpotifyData/internal/genre"
	"github.com/Dylan-Avallone/SpotifyData/internal/openai"
	"github.com/Dylan-Avallone/SpotifyData/internal/web"
	webfs "github.com/Dylan-Avallone/SpotifyData/web"
)

const defaultDatabasePath = "spotify_data.db"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; real environment variables win either way.
	_ = godotenv.Load()

	clientID := os.Getenv("SPOTIFY_ID")
	clientSecret := os.Getenv("SPOTIFY_SECRET")

	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("please set SPOTIFY_ID and SPOTIFY_SECRET environment variables")
	}

	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		databasePath = defaultDatabasePath
	}

	ctx := context.Background()

	database, err := db.Open(ctx, databasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := database.History().EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	// The language-model genre fallback is optional.
	var model genre.Model
	if cfg, err := openai.LoadConfig(); err == nil {
		model = openai.NewClient(cfg)
	} else if errors.Is(err, openai.ErrMissingAPIKey) {
		log.Println("OPENAI_API_KEY not set, genre fallback disabled")
	}

	// Create sub-filesystems for templates and static files
	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:         web.DefaultAddr,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  os.Getenv("SPOTIFY_REDIRECT_URI"),
		Database:     database,
		GenreModel:   model,
		TemplatesFS:  templates,
		StaticFS:     static,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

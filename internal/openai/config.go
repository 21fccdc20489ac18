// Package openai provides the language-model fallback for genre resolution.
package openai

import (
	"errors"
	"os"
)

// ErrMissingAPIKey is returned when OPENAI_API_KEY is not set.
var ErrMissingAPIKey = errors.New("missing OPENAI_API_KEY environment variable")

const defaultModel = "gpt-4o-mini"

// Config holds OpenAI API configuration.
type Config struct {
	APIKey string
	Model  string
}

// LoadConfig reads OpenAI configuration from environment variables.
// Returns ErrMissingAPIKey if OPENAI_API_KEY is not set. OPENAI_MODEL
// overrides the default model.
func LoadConfig() (*Config, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultModel
	}

	return &Config{APIKey: apiKey, Model: model}, nil
}

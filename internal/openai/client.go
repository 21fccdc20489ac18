package openai

import (
	"context"
	"fmt"

	oa "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

// maxGuessTokens caps the completion length; one genre word is expected.
const maxGuessTokens = 8

// Client asks the OpenAI API for genre guesses.
type Client struct {
	api   oa.Client
	model string
}

// NewClient creates an OpenAI client from the provided configuration.
func NewClient(cfg *Config) *Client {
	return &Client{
		api:   oa.NewClient(option.WithAPIKey(cfg.APIKey)),
		model: cfg.Model,
	}
}

// GuessGenre asks the model for the primary genre of an artist. Sampling
// is deterministic and the response is capped; the raw completion text is
// returned for the caller to extract a label from.
func (c *Client) GuessGenre(ctx context.Context, artist string) (string, error) {
	prompt := fmt.Sprintf("Answer with a single word only: the primary musical genre of the artist %q.", artist)

	resp, err := c.api.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model:               shared.ChatModel(c.model),
		Messages:            []oa.ChatCompletionMessageParamUnion{oa.UserMessage(prompt)},
		Temperature:         oa.Float(0),
		MaxCompletionTokens: oa.Int(maxGuessTokens),
	})
	if err != nil {
		return "", fmt.Errorf("requesting genre guess: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion for artist %q", artist)
	}
	return resp.Choices[0].Message.Content, nil
}

package embed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICrossEncoder scores (query, document) relevance with a
// constrained chat-completion prompt, reusing the same client and
// degrade-on-failure posture as OpenAIEmbedder: best-effort, failures
// yield 0 and never propagate.
type OpenAICrossEncoder struct {
	client *openai.Client
	model  string
}

// NewOpenAICrossEncoder builds a cross-encoder bound to apiKey, scoring
// with the given chat model (GPT-4o mini when model is empty).
func NewOpenAICrossEncoder(apiKey, model string) *OpenAICrossEncoder {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAICrossEncoder{client: openai.NewClient(apiKey), model: model}
}

func (c *OpenAICrossEncoder) Score(ctx context.Context, query, document string) (float64, error) {
	prompt := fmt.Sprintf(
		"Rate how relevant this code is to the request on a scale from 0.00 to 1.00. "+
			"Reply with only the number.\n\nRequest: %s\n\nCode:\n%s",
		query, document,
	)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		MaxTokens:   8,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("crossencoder: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("crossencoder: no choices returned")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	score, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("crossencoder: parsing score %q: %w", text, err)
	}
	return clamp01(score), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package gemini provides a headline sentiment classifier backed by the Google Gemini API
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bobmcallan/simvest/internal/common"
)

const DefaultModel = "gemini-2.0-flash"

// Client implements the SentimentClassifier interface
type Client struct {
	client *genai.Client
	model  string
	logger *common.Logger

	// generate sends a prompt and returns the raw response text.
	generate func(ctx context.Context, prompt string) (string, error)
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.generate = c.generateJSON
	return c, nil
}

// generateJSON asks the model for a JSON response
func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return extractTextFromResponse(result)
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// ClassifyHeadlines returns the probability that each headline is positive
// for the stock it mentions, in input order.
func (c *Client) ClassifyHeadlines(ctx context.Context, headlines []string) ([]float64, error) {
	if len(headlines) == 0 {
		return []float64{}, nil
	}

	c.logger.Debug().Str("model", c.model).Int("headlines", len(headlines)).Msg("Classifying headlines")

	text, err := c.generate(ctx, buildSentimentPrompt(headlines))
	if err != nil {
		return nil, err
	}
	return parseScores(text, len(headlines))
}

func buildSentimentPrompt(headlines []string) string {
	var sb strings.Builder
	sb.WriteString("You are a financial news sentiment classifier.\n")
	sb.WriteString("For each numbered headline, estimate the probability (0.0 to 1.0) that it is positive for the company's stock price.\n")
	fmt.Fprintf(&sb, "Respond with only a JSON array of %d numbers in the same order.\n\n", len(headlines))
	for i, h := range headlines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, strings.TrimSpace(h))
	}
	return sb.String()
}

// parseScores decodes a JSON array of probabilities, tolerating markdown fences.
func parseScores(text string, want int) ([]float64, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var scores []float64
	if err := json.Unmarshal([]byte(text), &scores); err != nil {
		return nil, fmt.Errorf("failed to parse sentiment scores: %w", err)
	}
	if len(scores) != want {
		return nil, fmt.Errorf("expected %d sentiment scores, got %d", want, len(scores))
	}
	for i, s := range scores {
		switch {
		case s < 0:
			scores[i] = 0
		case s > 1:
			scores[i] = 1
		}
	}
	return scores, nil
}

// Package googleai implements the generation secondary provider on the
// Gemini Developer API. It is the escape hatch when the primary free-tier
// candidates are all throttled, so it keeps a deliberately small surface:
// one prompt in, one raw text payload out.
package googleai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"fortuna/internal/generation"
)

const defaultModel = "gemini-2.0-flash"

// Config captures the settings required to talk to the Gemini API.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client wraps the Gemini GenerateContent endpoint. It implements
// generation.SecondaryProvider.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient constructs a Gemini client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("googleai: api key required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("googleai: new client: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	return &Client{client: gc, model: model}, nil
}

// Complete issues one generation call and returns the raw text payload. The
// caller normalizes it; fenced JSON is expected and tolerated upstream.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if strings.TrimSpace(user) == "" {
		return "", errors.New("googleai: user prompt required")
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if strings.TrimSpace(system) != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	res, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), cfg)
	if err != nil {
		return "", fmt.Errorf("googleai: generate content: %w", err)
	}
	text := collectText(res)
	if text == "" {
		return "", errors.New("googleai: empty response")
	}
	return text, nil
}

func collectText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if part.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

var _ generation.SecondaryProvider = (*Client)(nil)

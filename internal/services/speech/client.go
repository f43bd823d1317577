// Package speech is the HTTP client for the text-to-speech sidecar. The
// sidecar wraps a neural TTS engine and reports word boundaries alongside the
// audio so the renderer can highlight words karaoke-style.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fortuna/internal/services"
)

const defaultTimeout = 60 * time.Second

// Word is one spoken word with its timing, in seconds from the start of the
// clip.
type Word struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Synthesis is the result of one synthesis call. Duration is the total audio
// length in seconds as reported by the sidecar; Words may be empty when the
// engine produced no boundary events.
type Synthesis struct {
	Audio    []byte
	Duration float64
	Words    []Word
}

// Config carries the sidecar connection settings.
type Config struct {
	Endpoint       string
	Voice          string
	SpeakingRate   float64
	TimeoutSeconds int
}

// Client talks to the synthesis sidecar. Retry lives with the caller; every
// call here is a single attempt.
type Client struct {
	endpoint string
	voice    string
	rate     float64
	http     *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, services.Wrap(services.ErrConfiguration, "speech", "new", "endpoint is required", nil)
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		endpoint: endpoint,
		voice:    strings.TrimSpace(cfg.Voice),
		rate:     cfg.SpeakingRate,
		http:     &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type synthesizeRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice,omitempty"`
	Rate  float64 `json:"rate,omitempty"`
}

type synthesizeResponse struct {
	Audio    string  `json:"audio"`
	Duration float64 `json:"duration"`
	Words    []Word  `json:"words"`
}

// Synthesize renders text to audio. The response audio is base64 inside a
// JSON envelope so word timings travel in the same round trip.
func (c *Client) Synthesize(ctx context.Context, text string) (Synthesis, error) {
	if strings.TrimSpace(text) == "" {
		return Synthesis{}, services.Wrap(services.ErrValidation, "speech", "synthesize", "text is empty", nil)
	}

	payload, err := json.Marshal(synthesizeRequest{Text: text, Voice: c.voice, Rate: c.rate})
	if err != nil {
		return Synthesis{}, fmt.Errorf("speech: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return Synthesis{}, fmt.Errorf("speech: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Synthesis{}, ctx.Err()
		}
		return Synthesis{}, services.Wrap(services.ErrTransient, "speech", "synthesize", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return Synthesis{}, services.Wrap(services.ErrTransient, "speech", "synthesize", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Synthesis{}, services.Wrap(services.ErrTransient, "speech", "synthesize",
			fmt.Sprintf("sidecar returned http %d", resp.StatusCode), nil)
	}

	var decoded synthesizeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Synthesis{}, services.Wrap(services.ErrTransient, "speech", "synthesize", "decode response", err)
	}
	audio, err := base64.StdEncoding.DecodeString(decoded.Audio)
	if err != nil {
		return Synthesis{}, services.Wrap(services.ErrTransient, "speech", "synthesize", "decode audio payload", err)
	}
	if len(audio) == 0 {
		return Synthesis{}, services.Wrap(services.ErrTransient, "speech", "synthesize", "sidecar returned no audio", nil)
	}
	return Synthesis{Audio: audio, Duration: decoded.Duration, Words: decoded.Words}, nil
}

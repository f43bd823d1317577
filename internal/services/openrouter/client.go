package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fortuna/internal/generation"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1"
	defaultHTTPTimeout = 60 * time.Second

	jsonResponseType = "json_object"

	// OpenRouter reports daily free-tier exhaustion as a 429 whose body names
	// this limit key. A plain 429 clears in seconds; this one clears at UTC
	// midnight, so the two must classify differently.
	dailyQuotaMarker = "free-models-per-day"
)

// Config captures the runtime settings required to talk to OpenRouter. The
// API key is deliberately absent: credentials are passed per call so the
// orchestrator can rotate them.
type Config struct {
	BaseURL        string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client wraps the OpenRouter chat completion and model listing endpoints.
// It implements generation.Backend and generation.CatalogProvider.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an OpenRouter client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema (delta) even when
		// stream=false, so tolerate it as a fallback.
		Delta chatCompletionMessage `json:"delta"`
		// Legacy "text" field (completion-style responses).
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

// Complete issues exactly one chat completion against the named model. When
// structured is set the request demands JSON output via response_format;
// models that reject that mode return a 400 the orchestrator downgrades on.
// All failures surface as *generation.BackendError so callers can classify
// them without string sniffing.
func (c *Client) Complete(ctx context.Context, candidateID, credential, system, user string, structured bool) (string, error) {
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		return "", &generation.BackendError{Class: generation.ClassBadRequest, Message: "openrouter: model id required"}
	}
	if strings.TrimSpace(credential) == "" {
		return "", &generation.BackendError{Class: generation.ClassOther, Message: "openrouter: api key required"}
	}
	if strings.TrimSpace(user) == "" {
		return "", &generation.BackendError{Class: generation.ClassBadRequest, Message: "openrouter: user prompt required"}
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	payload := chatCompletionRequest{
		Model:       candidateID,
		Messages:    messages,
		Temperature: 0.7,
	}
	if structured {
		payload.ResponseFormat = map[string]string{"type": jsonResponseType}
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "chat", "completions")
	if err != nil {
		return "", &generation.BackendError{Class: generation.ClassOther, Message: fmt.Sprintf("openrouter: build url: %v", err)}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", &generation.BackendError{Class: generation.ClassOther, Message: fmt.Sprintf("openrouter: encode body: %v", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", &generation.BackendError{Class: generation.ClassOther, Message: fmt.Sprintf("openrouter: new request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &generation.BackendError{Class: generation.ClassOther, Message: fmt.Sprintf("openrouter: http error (timeout=%s): %v", c.timeoutDuration(), err)}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &generation.BackendError{Class: generation.ClassOther, Message: fmt.Sprintf("openrouter: read body: %v", err)}
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", classifyStatus(resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", &generation.BackendError{
			Class:   generation.ClassOther,
			Message: fmt.Sprintf("openrouter: decode response: %v (snippet: %s)", err, snippet(string(body))),
		}
	}
	// Some upstreams tunnel their errors inside a 200.
	if completion.Error != nil {
		return "", classifyStatus(resp.StatusCode, completion.Error.Message)
	}

	content := extractContent(completion)
	if content == "" {
		return "", &generation.BackendError{
			Class:   generation.ClassOther,
			Message: fmt.Sprintf("openrouter: empty content (refusal=%q, snippet: %s)", extractRefusal(completion), snippet(string(body))),
		}
	}
	return content, nil
}

type modelListResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Pricing struct {
			Prompt     string `json:"prompt"`
			Completion string `json:"completion"`
		} `json:"pricing"`
	} `json:"data"`
}

// ListBackends fetches the public model catalog with per-token pricing. The
// endpoint requires no credential.
func (c *Client) ListBackends(ctx context.Context) ([]generation.CatalogEntry, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "models")
	if err != nil {
		return nil, fmt.Errorf("openrouter models: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("openrouter models: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter models: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openrouter models: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openrouter models: http %d: %s", resp.StatusCode, snippet(string(body)))
	}
	var listing modelListResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("openrouter models: decode response: %w", err)
	}
	entries := make([]generation.CatalogEntry, 0, len(listing.Data))
	for _, model := range listing.Data {
		id := strings.TrimSpace(model.ID)
		if id == "" {
			continue
		}
		entries = append(entries, generation.CatalogEntry{
			ID:              id,
			PromptPrice:     strings.TrimSpace(model.Pricing.Prompt),
			CompletionPrice: strings.TrimSpace(model.Pricing.Completion),
		})
	}
	return entries, nil
}

// classifyStatus maps an HTTP failure to a BackendError class. The daily
// quota marker wins over the plain rate-limit class because the orchestrator
// reacts to them very differently.
func classifyStatus(status int, body string) *generation.BackendError {
	message := strings.TrimSpace(body)
	lower := strings.ToLower(message)
	class := generation.ClassOther
	switch {
	case strings.Contains(lower, dailyQuotaMarker):
		class = generation.ClassDailyQuota
	case status == http.StatusTooManyRequests, strings.Contains(lower, "rate limit"):
		class = generation.ClassRateLimited
	case status == http.StatusBadRequest:
		class = generation.ClassBadRequest
	}
	return &generation.BackendError{Class: class, Status: status, Message: message}
}

func extractContent(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		if content := firstNonEmpty(choice.Message.Content, choice.Delta.Content, choice.Text); content != "" {
			return content
		}
	}
	return ""
}

func extractRefusal(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		if refusal := firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal); refusal != "" {
			return refusal
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (c *Client) timeoutDuration() time.Duration {
	if c == nil || c.httpClient == nil || c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	if clean == "" {
		return "<empty>"
	}
	return clean
}

var _ generation.Backend = (*Client)(nil)
var _ generation.CatalogProvider = (*Client)(nil)

// Package uploader publishes finished videos to YouTube. Authentication uses
// a long-lived OAuth refresh token; uploads use the resumable protocol so a
// dropped connection does not restart the whole transfer session.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"fortuna/internal/metadata"
	"fortuna/internal/services"
)

const (
	defaultUploadBase = "https://www.googleapis.com"
	tokenURL          = "https://oauth2.googleapis.com/token"
	defaultTimeout    = 10 * time.Minute
)

// publishHour/publishMinute fix the channel's daily slot.
const (
	publishHour   = 6
	publishMinute = 30
)

// Config carries the OAuth client and upload policy.
type Config struct {
	ClientID       string
	ClientSecret   string
	RefreshToken   string
	PrivacyStatus  string
	TimeoutSeconds int
}

// Client uploads videos.
type Client struct {
	http       *http.Client
	uploadBase string
	privacy    string
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the OAuth transport entirely; tests use this with
// an httptest server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUploadBase points the client at an alternate API host.
func WithUploadBase(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.uploadBase = strings.TrimRight(base, "/")
		}
	}
}

func NewClient(cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, services.Wrap(services.ErrConfiguration, "uploader", "new",
			"client id, client secret, and refresh token are all required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	privacy := strings.TrimSpace(cfg.PrivacyStatus)
	if privacy == "" {
		privacy = "public"
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
	}
	hc := oauthCfg.Client(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})
	hc.Timeout = timeout

	c := &Client{
		http:       hc,
		uploadBase: defaultUploadBase,
		privacy:    privacy,
		logger:     logger.With("component", "uploader"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type statusBody struct {
	PrivacyStatus           string `json:"privacyStatus"`
	SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
	PublishAt               string `json:"publishAt,omitempty"`
}

type snippetBody struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  string   `json:"categoryId"`
}

type videoBody struct {
	Snippet snippetBody `json:"snippet"`
	Status  statusBody  `json:"status"`
}

// buildBody assembles the insert payload. A scheduled video must be private
// with publishAt set; the platform flips it public at that instant.
func (c *Client) buildBody(meta metadata.Video, publishAt *time.Time) videoBody {
	status := statusBody{PrivacyStatus: c.privacy}
	if publishAt != nil {
		status.PrivacyStatus = "private"
		status.PublishAt = publishAt.UTC().Format(time.RFC3339)
	}
	return videoBody{
		Snippet: snippetBody{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryID:  meta.CategoryID,
		},
		Status: status,
	}
}

// Upload publishes the video file and returns the platform video ID. A nil
// publishAt publishes immediately under the configured privacy status.
func (c *Client) Upload(ctx context.Context, filePath string, meta metadata.Video, publishAt *time.Time) (string, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "uploader", "upload", "video file missing", err)
	}

	payload, err := json.Marshal(c.buildBody(meta, publishAt))
	if err != nil {
		return "", fmt.Errorf("uploader: encode metadata: %w", err)
	}
	initURL := c.uploadBase + "/upload/youtube/v3/videos?uploadType=resumable&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, initURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("uploader: build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", "video/mp4")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(info.Size(), 10))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "uploader", "upload", "open upload session", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "uploader", "upload",
			fmt.Sprintf("upload session rejected with http %d", resp.StatusCode), nil)
	}
	session := resp.Header.Get("Location")
	if session == "" {
		return "", services.Wrap(services.ErrTransient, "uploader", "upload", "upload session missing location", nil)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("uploader: open video: %w", err)
	}
	defer file.Close()

	put, err := http.NewRequestWithContext(ctx, http.MethodPut, session, file)
	if err != nil {
		return "", fmt.Errorf("uploader: build upload request: %w", err)
	}
	put.ContentLength = info.Size()
	put.Header.Set("Content-Type", "video/mp4")

	uploadResp, err := c.http.Do(put)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "uploader", "upload", "transfer video bytes", err)
	}
	defer uploadResp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(uploadResp.Body, 1<<20))
	if uploadResp.StatusCode != http.StatusOK && uploadResp.StatusCode != http.StatusCreated {
		return "", services.Wrap(services.ErrTransient, "uploader", "upload",
			fmt.Sprintf("upload failed with http %d: %s", uploadResp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.ID == "" {
		return "", services.Wrap(services.ErrTransient, "uploader", "upload", "upload response missing video id", err)
	}
	c.logger.Info("video uploaded", "video_id", result.ID, "title", meta.Title, "scheduled", publishAt != nil)
	return result.ID, nil
}

// NextPublishTime returns the channel's next daily slot: 06:30 in now's
// location today, or tomorrow when that has already passed.
func NextPublishTime(now time.Time) time.Time {
	slot := time.Date(now.Year(), now.Month(), now.Day(), publishHour, publishMinute, 0, 0, now.Location())
	if !now.Before(slot) {
		slot = slot.Add(24 * time.Hour)
	}
	return slot
}

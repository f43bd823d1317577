package uploader

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fortuna/internal/logging"
	"fortuna/internal/metadata"
	"fortuna/internal/services"
)

func testMeta() metadata.Video {
	return metadata.Video{
		Title:       "Aries fortune #shorts",
		Description: "Daily reading",
		Tags:        []string{"shorts", "aries"},
		CategoryID:  "24",
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "refresh",
	}, logging.NewNop(), WithHTTPClient(srv.Client()), WithUploadBase(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "final.mp4")
	if err := os.WriteFile(path, []byte("not really mp4"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadResumableFlow(t *testing.T) {
	var gotBody videoBody
	var gotPayload []byte
	mux := http.NewServeMux()
	var sessionURL string
	mux.HandleFunc("POST /upload/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("uploadType") != "resumable" {
			t.Errorf("uploadType = %q", r.URL.Query().Get("uploadType"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Location", sessionURL)
	})
	mux.HandleFunc("PUT /session", func(w http.ResponseWriter, r *http.Request) {
		gotPayload, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]string{"id": "vid-123"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	sessionURL = srv.URL + "/session"

	c, err := NewClient(Config{ClientID: "id", ClientSecret: "s", RefreshToken: "r"},
		logging.NewNop(), WithHTTPClient(srv.Client()), WithUploadBase(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	id, err := c.Upload(t.Context(), writeVideo(t), testMeta(), nil)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != "vid-123" {
		t.Fatalf("video id = %q", id)
	}
	if gotBody.Snippet.Title != "Aries fortune #shorts" || gotBody.Snippet.CategoryID != "24" {
		t.Fatalf("snippet = %+v", gotBody.Snippet)
	}
	if gotBody.Status.PrivacyStatus != "public" || gotBody.Status.PublishAt != "" {
		t.Fatalf("status = %+v", gotBody.Status)
	}
	if string(gotPayload) != "not really mp4" {
		t.Fatalf("uploaded bytes = %q", gotPayload)
	}
}

func TestUploadSchedulingForcesPrivate(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	at := time.Date(2026, time.March, 6, 1, 0, 0, 0, time.UTC)
	body := c.buildBody(testMeta(), &at)
	if body.Status.PrivacyStatus != "private" {
		t.Fatalf("scheduled privacy = %q", body.Status.PrivacyStatus)
	}
	if body.Status.PublishAt != "2026-03-06T01:00:00Z" {
		t.Fatalf("publishAt = %q", body.Status.PublishAt)
	}
	if body.Status.SelfDeclaredMadeForKids {
		t.Fatal("fortune shorts are not made for kids")
	}
}

func TestUploadMissingFile(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.Upload(t.Context(), filepath.Join(t.TempDir(), "nope.mp4"), testMeta(), nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestUploadSessionRejection(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusForbidden)
	}))
	_, err := c.Upload(t.Context(), writeVideo(t), testMeta(), nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{ClientID: "id"}, logging.NewNop())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNextPublishTime(t *testing.T) {
	loc := time.FixedZone("IST", int(5.5*3600))
	early := time.Date(2026, time.March, 5, 5, 0, 0, 0, loc)
	if got := NextPublishTime(early); got.Day() != 5 || got.Hour() != 6 || got.Minute() != 30 {
		t.Fatalf("early slot = %v", got)
	}
	late := time.Date(2026, time.March, 5, 15, 0, 0, 0, loc)
	if got := NextPublishTime(late); got.Day() != 6 || got.Hour() != 6 || got.Minute() != 30 {
		t.Fatalf("late slot = %v", got)
	}
	exact := time.Date(2026, time.March, 5, 6, 30, 0, 0, loc)
	if got := NextPublishTime(exact); got.Day() != 6 {
		t.Fatalf("exact slot should roll to tomorrow, got %v", got)
	}
}

package notifications

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fortuna/internal/config"
)

type recorded struct {
	title    string
	tags     string
	priority string
	body     string
}

func newTestService(t *testing.T, mutate func(*config.Notifications)) (Service, *[]recorded) {
	t.Helper()
	var got []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, recorded{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	if mutate != nil {
		mutate(&cfg.Notifications)
	}
	return NewService(&cfg), &got
}

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := NewService(&cfg)
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.NotifyError(t.Context(), errors.New("boom"), "test"); err != nil {
		t.Fatalf("noop should never fail: %v", err)
	}
}

func TestNotifyVideoReadyPayload(t *testing.T) {
	svc, got := newTestService(t, nil)
	if err := svc.NotifyVideoReady(t.Context(), "Aries", "/out/aries.mp4"); err != nil {
		t.Fatalf("NotifyVideoReady: %v", err)
	}
	if len(*got) != 1 {
		t.Fatalf("expected one notification, got %d", len(*got))
	}
	n := (*got)[0]
	if n.title != "Fortuna - Video Ready" {
		t.Fatalf("title = %q", n.title)
	}
	if !strings.Contains(n.body, "Aries") || !strings.Contains(n.body, "/out/aries.mp4") {
		t.Fatalf("body = %q", n.body)
	}
	if n.priority != "high" {
		t.Fatalf("priority = %q", n.priority)
	}
	if !strings.Contains(n.tags, "video") {
		t.Fatalf("tags = %q", n.tags)
	}
}

func TestMutedEventClassesAreSkipped(t *testing.T) {
	svc, got := newTestService(t, func(n *config.Notifications) {
		n.Upload = false
		n.Render = false
	})
	if err := svc.NotifyUploadCompleted(t.Context(), "Leo", "vid-1", ""); err != nil {
		t.Fatalf("NotifyUploadCompleted: %v", err)
	}
	if err := svc.NotifyRenderCompleted(t.Context(), "Leo", time.Minute); err != nil {
		t.Fatalf("NotifyRenderCompleted: %v", err)
	}
	if len(*got) != 0 {
		t.Fatalf("muted events still sent: %d", len(*got))
	}
	if err := svc.NotifyError(t.Context(), errors.New("boom"), "render"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if len(*got) != 1 {
		t.Fatalf("error event should still deliver, got %d", len(*got))
	}
}

func TestNotifyErrorIncludesContext(t *testing.T) {
	svc, got := newTestService(t, nil)
	if err := svc.NotifyError(t.Context(), errors.New("chrome crashed"), "render stage"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	body := (*got)[0].body
	if !strings.Contains(body, "render stage") || !strings.Contains(body, "chrome crashed") {
		t.Fatalf("body = %q", body)
	}
}

func TestSendSurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad topic", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := NewService(&cfg)
	if err := svc.TestNotification(t.Context()); err == nil {
		t.Fatal("expected error from 404 response")
	}
}

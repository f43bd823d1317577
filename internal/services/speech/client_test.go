package speech

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fortuna/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{Endpoint: srv.URL, Voice: "en-US-AriaNeural", SpeakingRate: 1.0})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestSynthesizeDecodesAudioAndWords(t *testing.T) {
	audio := []byte("mp3-bytes-here")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/synthesize" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["text"] != "Hello there" || req["voice"] != "en-US-AriaNeural" {
			t.Errorf("unexpected request body: %v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"audio":    base64.StdEncoding.EncodeToString(audio),
			"duration": 1.9,
			"words": []map[string]any{
				{"text": "Hello", "start": 0.0, "duration": 0.8},
				{"text": "there", "start": 0.9, "duration": 1.0},
			},
		})
	})

	syn, err := c.Synthesize(t.Context(), "Hello there")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(syn.Audio) != string(audio) {
		t.Fatal("audio round trip failed")
	}
	if syn.Duration != 1.9 || len(syn.Words) != 2 {
		t.Fatalf("unexpected synthesis: %+v", syn)
	}
	if syn.Words[1].Text != "there" || syn.Words[1].Start != 0.9 {
		t.Fatalf("word timing wrong: %+v", syn.Words[1])
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := c.Synthesize(t.Context(), "   "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSynthesizeSurfacesHTTPFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	if _, err := c.Synthesize(t.Context(), "hello"); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestSynthesizeRejectsEmptyAudio(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"audio": "", "duration": 0})
	})
	if _, err := c.Synthesize(t.Context(), "hello"); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

package ledger

import (
	"path/filepath"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndFetch(t *testing.T) {
	store := openStore(t)

	p, err := store.Record(t.Context(), Production{
		RunID:           "run-1",
		Sign:            "aries",
		Task:            "Daily",
		Title:           "Aries fortune #shorts",
		OutputPath:      "/out/aries_daily.mp4",
		DurationSeconds: 54.2,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if p.UploadState != UploadPending {
		t.Fatalf("upload state = %q", p.UploadState)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}

	got, err := store.GetByID(t.Context(), p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Sign != "aries" || got.OutputPath != "/out/aries_daily.mp4" || got.DurationSeconds != 54.2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestMarkUpload(t *testing.T) {
	store := openStore(t)
	p, err := store.Record(t.Context(), Production{
		RunID: "run-2", Sign: "leo", Task: "Daily", OutputPath: "/out/leo.mp4",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := store.MarkUpload(t.Context(), p.ID, UploadScheduled, "vid-9", "2026-03-06T01:00:00Z"); err != nil {
		t.Fatalf("MarkUpload: %v", err)
	}
	got, err := store.GetByID(t.Context(), p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.UploadState != UploadScheduled || got.VideoID != "vid-9" || got.PublishAt != "2026-03-06T01:00:00Z" {
		t.Fatalf("upload fields = %+v", got)
	}

	if err := store.MarkUpload(t.Context(), 9999, UploadDone, "", ""); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := openStore(t)
	for _, sign := range []string{"aries", "taurus", "gemini"} {
		if _, err := store.Record(t.Context(), Production{
			RunID: "run", Sign: sign, Task: "Daily", OutputPath: "/out/" + sign + ".mp4",
		}); err != nil {
			t.Fatalf("Record %s: %v", sign, err)
		}
	}

	recent, err := store.Recent(t.Context(), 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d rows", len(recent))
	}
	if recent[0].Sign != "gemini" || recent[1].Sign != "taurus" {
		t.Fatalf("order wrong: %s, %s", recent[0].Sign, recent[1].Sign)
	}
}

func TestBySignFilters(t *testing.T) {
	store := openStore(t)
	for _, sign := range []string{"aries", "leo", "aries"} {
		if _, err := store.Record(t.Context(), Production{
			RunID: "run", Sign: sign, Task: "Daily", OutputPath: "/out/x.mp4",
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	rows, err := store.BySign(t.Context(), "aries", 10)
	if err != nil {
		t.Fatalf("BySign: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d aries rows", len(rows))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := first.Record(t.Context(), Production{RunID: "r", Sign: "virgo", Task: "Daily", OutputPath: "/o.mp4"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()
	rows, err := second.Recent(t.Context(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected persisted row, got %d", len(rows))
	}
}

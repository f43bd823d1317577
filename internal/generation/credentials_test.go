package generation

import "testing"

func TestCredentialsAdvanceExactlyLenMinusOneTimes(t *testing.T) {
	creds := NewCredentials("key-a", "key-b", "key-c")

	var advanced int
	for creds.Advance() {
		advanced++
	}
	if advanced != 2 {
		t.Fatalf("expected 2 successful advances for 3 keys, got %d", advanced)
	}

	// Exhausted rotation keeps answering false without moving the index.
	for i := 0; i < 5; i++ {
		if creds.Advance() {
			t.Fatalf("advance %d succeeded after exhaustion", i)
		}
	}
	if got, ok := creds.Current(); !ok || got != "key-c" {
		t.Fatalf("expected last credential after exhaustion, got %q (ok=%v)", got, ok)
	}
	if creds.Index() != 2 {
		t.Fatalf("expected index pinned at 2, got %d", creds.Index())
	}
}

func TestCredentialsEmptyIsLegal(t *testing.T) {
	creds := NewCredentials()
	if _, ok := creds.Current(); ok {
		t.Fatal("empty rotation should report no current credential")
	}
	if creds.Advance() {
		t.Fatal("empty rotation should not advance")
	}
	if creds.Len() != 0 {
		t.Fatalf("expected zero length, got %d", creds.Len())
	}
}

func TestCredentialsDropsBlankKeys(t *testing.T) {
	creds := NewCredentials("  ", "key-a", "", "key-b")
	if creds.Len() != 2 {
		t.Fatalf("expected blanks to be dropped, got len %d", creds.Len())
	}
	if got, _ := creds.Current(); got != "key-a" {
		t.Fatalf("expected first real key active, got %q", got)
	}
}

package pipeline

import (
	"strings"
	"testing"
)

func TestFilterSelectionDefaults(t *testing.T) {
	f := NewFilterSelection()
	genre, artist := f.Snapshot()
	if genre != "all" || artist != "all" {
		t.Fatalf("defaults = %q/%q, want all/all", genre, artist)
	}
}

func TestFilterSelectionSet(t *testing.T) {
	f := NewFilterSelection()

	f.Set("rock", "queen")
	genre, artist := f.Snapshot()
	if genre != "rock" || artist != "queen" {
		t.Fatalf("Snapshot() = %q/%q, want rock/queen", genre, artist)
	}

	// An empty value means "no filter", stored as the sentinel.
	f.Set("", "queen")
	genre, artist = f.Snapshot()
	if genre != "all" || artist != "queen" {
		t.Fatalf("Snapshot() = %q/%q, want all/queen", genre, artist)
	}
}

func TestSubmissionFileName(t *testing.T) {
	name := submissionFileName("ayu", "My Song")

	if !strings.HasPrefix(name, "ayu_My Song_") {
		t.Errorf("name = %q, want user and song prefix", name)
	}
	if !strings.HasSuffix(name, ".m4a") {
		t.Errorf("name = %q, want .m4a suffix", name)
	}
	// Timestamp colons would break object keys on some backends.
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, "ayu_My Song_"), ".m4a")
	if strings.ContainsAny(stamp, ":.") {
		t.Errorf("timestamp %q contains unsanitized separators", stamp)
	}
}

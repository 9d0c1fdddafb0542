package domain

import (
	"testing"
	"time"
)

func TestBatchReport_Tally(t *testing.T) {
	r := &BatchReport{
		Entries: []ChangeEntry{
			{Status: StatusRename, Elapsed: 100 * time.Millisecond},
			{Status: StatusNoChange, Elapsed: 300 * time.Millisecond},
			{Status: StatusSkip},
			{Status: StatusError, Elapsed: 200 * time.Millisecond},
		},
	}
	r.Tally()

	if r.TotalFiles != 4 || r.Processed != 2 || r.Skipped != 1 || r.Errors != 1 {
		t.Errorf("counts total=%d processed=%d skipped=%d errors=%d", r.TotalFiles, r.Processed, r.Skipped, r.Errors)
	}
	if r.AverageLatency != 200*time.Millisecond {
		t.Errorf("AverageLatency = %v, want 200ms", r.AverageLatency)
	}
	if len(r.Pending()) != 1 {
		t.Errorf("Pending() = %d entries, want 1", len(r.Pending()))
	}
}

func TestMockName_Deterministic(t *testing.T) {
	a := MockName("/tmp/one/Screenshot 1.png")
	b := MockName("/other/dir/Screenshot 1.png")
	if a != b {
		t.Errorf("MockName differs for same base name: %q vs %q", a, b)
	}
	if CleanStem(a) != a {
		t.Errorf("MockName %q is not already clean", a)
	}
	if !IsProcessed(a) {
		t.Errorf("MockName %q should look processed", a)
	}
}

func TestParseProviderKind(t *testing.T) {
	for _, s := range []string{"gemini", "LMStudio", " ollama "} {
		if _, err := ParseProviderKind(s); err != nil {
			t.Errorf("ParseProviderKind(%q) error: %v", s, err)
		}
	}
	if _, err := ParseProviderKind("bogus"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestIsSupportedImage(t *testing.T) {
	for _, p := range []string{"a.png", "b.JPG", "c.jpeg", "d.gif", "e.WebP"} {
		if !IsSupportedImage(p) {
			t.Errorf("IsSupportedImage(%q) = false", p)
		}
	}
	for _, p := range []string{"a.txt", "b.heic", "noext"} {
		if IsSupportedImage(p) {
			t.Errorf("IsSupportedImage(%q) = true", p)
		}
	}
}

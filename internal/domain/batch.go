package domain

import (
	"hash/fnv"
	"path/filepath"
	"strings"
	"time"
)

// ChangeStatus is the effect a batch run has (or would have) on one file
type ChangeStatus string

const (
	StatusRename   ChangeStatus = "rename"
	StatusNoChange ChangeStatus = "no_change"
	StatusSkip     ChangeStatus = "skip"
	StatusError    ChangeStatus = "error"
)

// BatchMode selects what a batch run does with resolved names
type BatchMode string

const (
	ModePreview BatchMode = "preview"
	ModeRename  BatchMode = "rename"
	ModeCopy    BatchMode = "copy"
)

// ChangeEntry is one row of a batch run
type ChangeEntry struct {
	OriginalPath string        `json:"original_path"`
	ProposedName string        `json:"proposed_name,omitempty"`
	FinalName    string        `json:"final_name,omitempty"`
	Status       ChangeStatus  `json:"status"`
	Size         int64         `json:"size"`
	Reason       string        `json:"reason,omitempty"`
	IsFallback   bool          `json:"is_fallback,omitempty"`
	Elapsed      time.Duration `json:"elapsed_ns,omitempty"`
	AppliedPath  string        `json:"applied_path,omitempty"`
}

// BatchReport aggregates a batch run
type BatchReport struct {
	RunID          string        `json:"run_id"`
	Dir            string        `json:"dir"`
	Mode           BatchMode     `json:"mode"`
	Mock           bool          `json:"mock"`
	Entries        []ChangeEntry `json:"entries"`
	TotalFiles     int           `json:"total_files"`
	Processed      int           `json:"processed"`
	Skipped        int           `json:"skipped"`
	Errors         int           `json:"errors"`
	AverageLatency time.Duration `json:"average_latency_ns"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
}

// Tally recomputes the aggregate counters from the entries
func (r *BatchReport) Tally() {
	r.TotalFiles = len(r.Entries)
	r.Processed, r.Skipped, r.Errors = 0, 0, 0

	var total time.Duration
	var timed int
	for _, e := range r.Entries {
		switch e.Status {
		case StatusRename, StatusNoChange:
			r.Processed++
		case StatusSkip:
			r.Skipped++
		case StatusError:
			r.Errors++
		}
		if e.Elapsed > 0 {
			total += e.Elapsed
			timed++
		}
	}

	r.AverageLatency = 0
	if timed > 0 {
		r.AverageLatency = total / time.Duration(timed)
	}
}

// Pending returns the entries that would change the filesystem
func (r *BatchReport) Pending() []ChangeEntry {
	var out []ChangeEntry
	for _, e := range r.Entries {
		if e.Status == StatusRename {
			out = append(out, e)
		}
	}
	return out
}

var (
	mockAdjectives = []string{"blue", "quiet", "bright", "empty", "busy", "dark", "split", "nested"}
	mockSubjects   = []string{"dashboard", "terminal", "login", "settings", "chart", "diagram", "invoice", "editor"}
	mockContexts   = []string{"panel", "window", "dialog", "screen", "view", "layout", "menu", "page"}
)

// MockName deterministically generates a plausible stem for a file without
// calling any analyzer. The same base name always yields the same stem.
func MockName(path string) string {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(filepath.Base(path))))
	sum := h.Sum32()

	parts := []string{
		mockAdjectives[sum%uint32(len(mockAdjectives))],
		mockSubjects[(sum>>8)%uint32(len(mockSubjects))],
		mockContexts[(sum>>16)%uint32(len(mockContexts))],
	}
	return strings.Join(parts, Separator)
}

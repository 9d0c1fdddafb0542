package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"snapname/internal/adapters/filesystem"
	"snapname/internal/domain"
	"snapname/internal/ports"
)

// fakeAnalyzer answers from AnalyzeFunc and counts calls
type fakeAnalyzer struct {
	mu          sync.Mutex
	calls       int
	paths       []string
	AnalyzeFunc func(path string) domain.AnalysisResult
	TestFunc    func() error
}

func (f *fakeAnalyzer) Kind() domain.ProviderKind { return domain.ProviderOllama }

func (f *fakeAnalyzer) Analyze(ctx context.Context, path string) domain.AnalysisResult {
	f.mu.Lock()
	f.calls++
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	res := f.AnalyzeFunc(path)
	res.Provider = domain.ProviderOllama
	return res
}

func (f *fakeAnalyzer) TestConnection(ctx context.Context) error {
	if f.TestFunc != nil {
		return f.TestFunc()
	}
	return nil
}

func (f *fakeAnalyzer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// answering returns an analyzer that always answers text
func answering(text string) *fakeAnalyzer {
	return &fakeAnalyzer{AnalyzeFunc: func(string) domain.AnalysisResult {
		return domain.AnalysisResult{Text: text, Success: true, Elapsed: 10 * time.Millisecond}
	}}
}

// failing returns an analyzer that always fails with a fallback name
func failing() *fakeAnalyzer {
	return &fakeAnalyzer{AnalyzeFunc: func(path string) domain.AnalysisResult {
		stem, _ := domain.SplitName(path)
		return domain.AnalysisResult{
			Text:    domain.FallbackName(stem),
			Err:     errors.New("connection refused"),
			Elapsed: time.Millisecond,
		}
	}}
}

// fakeClipboard records published paths
type fakeClipboard struct {
	published []string
	err       error
}

func (f *fakeClipboard) Publish(ctx context.Context, path string) ([]domain.ClipboardAttempt, error) {
	f.published = append(f.published, path)
	return []domain.ClipboardAttempt{{Strategy: "fake", Success: f.err == nil, Err: f.err}}, f.err
}

// memHistory is an in-memory ports.HistoryStore
type memHistory struct {
	mu      sync.Mutex
	records []ports.HistoryRecord
}

func (m *memHistory) Record(ctx context.Context, rec ports.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memHistory) Recent(ctx context.Context, limit int) ([]ports.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ports.HistoryRecord, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *memHistory) WasProduced(ctx context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.FinalPath == path && !r.IsFallback {
			return true, nil
		}
	}
	return false, nil
}

func (m *memHistory) Close() error { return nil }

// logRecorder captures slog records for assertions
type logRecorder struct {
	mu      sync.Mutex
	records []slog.Record
}

func (r *logRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *logRecorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec.Clone())
	return nil
}

func (r *logRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *logRecorder) WithGroup(string) slog.Handler      { return r }

// count returns how many records carry msg at level
func (r *logRecorder) count(level slog.Level, msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Level == level && rec.Message == msg {
			n++
		}
	}
	return n
}

// attr returns the value of key on the first record with msg
func (r *logRecorder) attr(msg, key string) (slog.Value, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Message != msg {
			continue
		}
		var val slog.Value
		found := false
		rec.Attrs(func(a slog.Attr) bool {
			if a.Key == key {
				val, found = a.Value, true
				return false
			}
			return true
		})
		if found {
			return val, true
		}
	}
	return slog.Value{}, false
}

func newPipeline(analyzer ports.Analyzer, rec *logRecorder) *Pipeline {
	return &Pipeline{
		Analyzer: analyzer,
		Images:   filesystem.NewRepository(),
		Logger:   slog.New(rec),
		Model:    "llava",
	}
}

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("image:"+name), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

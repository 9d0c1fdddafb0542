package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapname/internal/config"
)

// fakeOllama serves /api/tags and /api/generate and counts generate calls
type fakeOllama struct {
	tagsStatus int
	tagsBody   string
	answer     string

	tagsCalls     atomic.Int32
	generateCalls atomic.Int32
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/tags":
		f.tagsCalls.Add(1)
		if f.tagsStatus != 0 {
			w.WriteHeader(f.tagsStatus)
		}
		io.WriteString(w, f.tagsBody)
	case "/api/generate":
		f.generateCalls.Add(1)
		io.WriteString(w, `{"response":"`+f.answer+`","done":true}`+"\n")
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"not found"}`)
	}
}

func healthyOllama() *fakeOllama {
	return &fakeOllama{tagsBody: `{"models":[{"name":"llava:latest"}]}`, answer: "Login Screen"}
}

func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	body := `provider: ollama
watch_dir: ` + dir + `
providers:
  ollama:
    base_url: ` + baseURL + `
    model: llava
    timeout: 2s
clipboard:
  enabled: false
retry:
  max_retries: 0
  delay: 1ms
history:
  path: ` + filepath.Join(dir, "history.db") + `
log_level: error
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func writeShots(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("\x89PNG fake"), 0644))
	}
	return dir
}

func resetFlags() {
	configPath, providerFlag, logLevel, logFormat = "", "", "", ""
	noClipboard = false
	batchApply, batchMock, batchJSON, batchReprocess = false, false, false, false
	batchDest = ""
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestBatch_PermanentBackendErrorStopsBeforePlanning(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeOllama
	}{
		{
			name:    "unauthorized",
			backend: &fakeOllama{tagsStatus: http.StatusUnauthorized, tagsBody: `{"error":"unauthorized"}`},
		},
		{
			name:    "model missing",
			backend: &fakeOllama{tagsBody: `{"models":[{"name":"moondream:latest"}]}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.backend)
			defer srv.Close()

			cfg := writeTestConfig(t, srv.URL)
			dir := writeShots(t, "IMG_0001.png", "Screenshot 2024-01-01.png")

			err := runCLI(t, "--config", cfg, "batch", dir, "--apply")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "backend unusable")

			assert.Equal(t, int32(0), tt.backend.generateCalls.Load())
			assert.ElementsMatch(t, []string{"IMG_0001.png", "Screenshot 2024-01-01.png"}, listNames(t, dir))
		})
	}
}

func TestBatch_AppliesWhenBackendReachable(t *testing.T) {
	backend := healthyOllama()
	srv := httptest.NewServer(backend)
	defer srv.Close()

	cfg := writeTestConfig(t, srv.URL)
	dir := writeShots(t, "IMG_0001.png")

	require.NoError(t, runCLI(t, "--config", cfg, "batch", dir, "--apply"))

	assert.NotZero(t, backend.tagsCalls.Load())
	assert.Equal(t, int32(1), backend.generateCalls.Load())
	assert.Equal(t, []string{"login_screen.png"}, listNames(t, dir))
}

func TestBatch_UnreachableBackendOnlyWarns(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := writeTestConfig(t, url)
	dir := writeShots(t, "IMG_0001.png")

	require.NoError(t, runCLI(t, "--config", cfg, "batch", dir))
	assert.Equal(t, []string{"IMG_0001.png"}, listNames(t, dir))
}

func TestBatch_MockSkipsBackendCheck(t *testing.T) {
	backend := &fakeOllama{tagsStatus: http.StatusUnauthorized, tagsBody: `{"error":"unauthorized"}`}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	cfg := writeTestConfig(t, srv.URL)
	dir := writeShots(t, "IMG_0001.png")

	require.NoError(t, runCLI(t, "--config", cfg, "batch", dir, "--mock"))
	assert.Equal(t, int32(0), backend.tagsCalls.Load())
	assert.Equal(t, int32(0), backend.generateCalls.Load())
}

func TestReview_PermanentBackendErrorIsFatal(t *testing.T) {
	backend := &fakeOllama{tagsStatus: http.StatusUnauthorized, tagsBody: `{"error":"unauthorized"}`}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	cfg := writeTestConfig(t, srv.URL)
	dir := writeShots(t, "IMG_0001.png")

	err := runCLI(t, "--config", cfg, "review", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unusable")
	assert.Equal(t, int32(0), backend.generateCalls.Load())
}

func useBufferLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log
	log = slog.New(slog.NewTextHandler(&buf, nil))
	t.Cleanup(func() { log = prev })
	return &buf
}

func testSnapshot(baseURL string) *config.Snapshot {
	snap := config.DefaultSnapshot()
	snap.Providers.Ollama.BaseURL = baseURL
	snap.Providers.Ollama.Timeout = 2 * time.Second
	zero := 0
	snap.Retry.MaxRetries = &zero
	return snap
}

func TestCheckBackend(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		srv := httptest.NewServer(healthyOllama())
		defer srv.Close()
		buf := useBufferLog(t)

		require.NoError(t, checkBackend(context.Background(), testSnapshot(srv.URL)))
		assert.Contains(t, buf.String(), "backend reachable")
	})

	t.Run("transient failure warns", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		buf := useBufferLog(t)

		require.NoError(t, checkBackend(context.Background(), testSnapshot(url)))
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "backend not reachable yet")
	})

	t.Run("permanent failure is fatal", func(t *testing.T) {
		srv := httptest.NewServer(&fakeOllama{tagsStatus: http.StatusForbidden, tagsBody: `{"error":"forbidden"}`})
		defer srv.Close()
		useBufferLog(t)

		err := checkBackend(context.Background(), testSnapshot(srv.URL))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backend unusable")
	})
}

// fakeReloader records every snapshot handed to it
type fakeReloader struct {
	reloads chan *config.Snapshot
	stopped atomic.Bool
}

func (f *fakeReloader) ReloadConfig(snap *config.Snapshot) error {
	f.reloads <- snap
	return nil
}

func (f *fakeReloader) Stop() {
	f.stopped.Store(true)
}

func TestServeReloads(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)
	buf := useBufferLog(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: ollama\n"), 0644))
	configPath = path

	d := &fakeReloader{reloads: make(chan *config.Snapshot, 1)}
	hup := make(chan os.Signal, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveReloads(ctx, d, hup, "/pinned/dir") }()

	require.NoError(t, os.WriteFile(path, []byte("provider: lmstudio\nwatch_dir: /elsewhere\n"), 0644))
	hup <- syscall.SIGHUP

	select {
	case snap := <-d.reloads:
		assert.Equal(t, "lmstudio", snap.Provider)
		assert.Equal(t, "/pinned/dir", snap.WatchDir)
	case <-time.After(2 * time.Second):
		t.Fatal("config was not reloaded")
	}

	// an unreadable file keeps the running session
	require.NoError(t, os.WriteFile(path, []byte("provider: [broken\n"), 0644))
	hup <- syscall.SIGHUP

	select {
	case snap := <-d.reloads:
		t.Fatalf("unexpected reload with provider %q", snap.Provider)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serveReloads did not return")
	}
	assert.True(t, d.stopped.Load())
	assert.Contains(t, buf.String(), "config reload rejected")
}

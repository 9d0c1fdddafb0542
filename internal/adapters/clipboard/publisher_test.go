package clipboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapname/internal/application"
)

type call struct {
	name  string
	args  []string
	stdin string
}

// fakeRunner records calls and fails the commands listed in fail
type fakeRunner struct {
	mu    sync.Mutex
	calls []call
	fail  map[string]int // command name -> remaining failures (-1 = always)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := call{name: name, args: args}
	if stdin != nil {
		data, _ := io.ReadAll(stdin)
		c.stdin = string(data)
	}
	f.calls = append(f.calls, c)

	if n, ok := f.fail[name]; ok && n != 0 {
		if n > 0 {
			f.fail[name] = n - 1
		}
		return errors.New(name + " failed")
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strategy(name string, err error, counter *int) Strategy {
	return Strategy{Name: name, Run: func(ctx context.Context, filePath string) error {
		*counter++
		return err
	}}
}

func TestPublish_StopsAtFirstSuccess(t *testing.T) {
	var a, b, c, d int
	p := NewPublisher([]Strategy{
		strategy("first", errors.New("boom"), &a),
		strategy("second", errors.New("boom"), &b),
		strategy("third", nil, &c),
		strategy("fourth", nil, &d),
	}, time.Second, quietLogger())

	attempts, err := p.Publish(context.Background(), "/tmp/login_screen.png")
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.False(t, attempts[0].Success)
	assert.False(t, attempts[1].Success)
	assert.True(t, attempts[2].Success)
	assert.Equal(t, "third", attempts[2].Strategy)
	assert.Equal(t, 1, c)
	assert.Equal(t, 0, d, "strategies after a success must not run")
}

func TestPublish_AllFail(t *testing.T) {
	var n int
	p := NewPublisher([]Strategy{
		strategy("a", errors.New("x"), &n),
		strategy("b", errors.New("y"), &n),
		strategy("c", errors.New("z"), &n),
	}, time.Second, quietLogger())

	attempts, err := p.Publish(context.Background(), "/tmp/a.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, application.ErrClipboardExhausted)
	assert.Len(t, attempts, 3)
	for _, a := range attempts {
		assert.False(t, a.Success)
		assert.Error(t, a.Err)
	}
}

func TestPublish_StrategyTimeout(t *testing.T) {
	var n int
	slow := Strategy{Name: "slow", Run: func(ctx context.Context, filePath string) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	p := NewPublisher([]Strategy{slow, strategy("fast", nil, &n)}, 20*time.Millisecond, quietLogger())

	start := time.Now()
	attempts, err := p.Publish(context.Background(), "/tmp/a.png")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, attempts, 2)
	assert.ErrorIs(t, attempts[0].Err, context.DeadlineExceeded)
	assert.True(t, attempts[1].Success)
}

func TestNewPublisher_ClampsTimeout(t *testing.T) {
	p := NewPublisher(nil, time.Minute, nil)
	assert.Equal(t, MaxStrategyTimeout, p.timeout)
}

func TestPublish_LogsEachAttemptAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var n int
	p := NewPublisher([]Strategy{
		strategy("native_helper", errors.New("missing"), &n),
		strategy("pasteboard", nil, &n),
	}, time.Second, logger)

	_, err := p.Publish(context.Background(), "/tmp/a.png")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(buf.String(), `msg="clipboard attempt"`))
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func newTestPlatform(t *testing.T, goos string, runner *fakeRunner) *Platform {
	t.Helper()
	return &Platform{
		GOOS:       goos,
		Runner:     runner,
		LookPath:   func(string) (string, error) { return "", errors.New("not found") },
		Executable: func() (string, error) { return filepath.Join(t.TempDir(), "snapname"), nil },
		Getenv:     func(string) string { return "" },
		ReadFile:   os.ReadFile,
	}
}

func writeImage(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPlatform_StrategyOrder(t *testing.T) {
	p := newTestPlatform(t, "linux", &fakeRunner{})
	var names []string
	for _, s := range p.Strategies() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{StrategyNativeHelper, StrategyUIAutomation, StrategyPasteboard}, names)
}

func TestNativeHelper_ConfiguredPath(t *testing.T) {
	helper := writeImage(t, "snapname-clip", "#!/bin/sh\n")
	runner := &fakeRunner{}
	p := newTestPlatform(t, "darwin", runner)
	p.HelperPath = helper

	require.NoError(t, p.nativeHelper(context.Background(), "/tmp/a.png"))
	require.Len(t, runner.calls, 1)
	assert.Equal(t, helper, runner.calls[0].name)
	assert.Equal(t, []string{"/tmp/a.png"}, runner.calls[0].args)
}

func TestNativeHelper_Missing(t *testing.T) {
	runner := &fakeRunner{}
	p := newTestPlatform(t, "darwin", runner)

	err := p.nativeHelper(context.Background(), "/tmp/a.png")
	assert.ErrorIs(t, err, errHelperNotFound)
	assert.Empty(t, runner.calls)
}

func TestNativeHelper_FromPath(t *testing.T) {
	runner := &fakeRunner{}
	p := newTestPlatform(t, "linux", runner)
	p.LookPath = func(name string) (string, error) { return "/usr/local/bin/" + name, nil }

	require.NoError(t, p.nativeHelper(context.Background(), "/tmp/a.png"))
	assert.Equal(t, "/usr/local/bin/snapname-clip", runner.calls[0].name)
}

func TestPasteboard_Linux(t *testing.T) {
	img := writeImage(t, "shot.jpg", "jpegbytes")

	t.Run("x11", func(t *testing.T) {
		runner := &fakeRunner{}
		p := newTestPlatform(t, "linux", runner)
		require.NoError(t, p.pasteboard(context.Background(), img))
		require.Len(t, runner.calls, 1)
		assert.Equal(t, "xclip", runner.calls[0].name)
		assert.Equal(t, []string{"-selection", "clipboard", "-t", "image/jpeg", "-i"}, runner.calls[0].args)
		assert.Equal(t, "jpegbytes", runner.calls[0].stdin)
	})

	t.Run("wayland", func(t *testing.T) {
		runner := &fakeRunner{}
		p := newTestPlatform(t, "linux", runner)
		p.Getenv = func(k string) string {
			if k == "WAYLAND_DISPLAY" {
				return "wayland-0"
			}
			return ""
		}
		require.NoError(t, p.pasteboard(context.Background(), img))
		assert.Equal(t, "wl-copy", runner.calls[0].name)
		assert.Equal(t, []string{"--type", "image/jpeg"}, runner.calls[0].args)
	})
}

func TestPasteboard_Unsupported(t *testing.T) {
	img := writeImage(t, "a.png", "x")
	p := newTestPlatform(t, "plan9", &fakeRunner{})
	assert.Error(t, p.pasteboard(context.Background(), img))
}

func TestUIAutomation_DarwinInnerFallback(t *testing.T) {
	runner := &fakeRunner{fail: map[string]int{"osascript": 1}}
	p := newTestPlatform(t, "darwin", runner)

	require.NoError(t, p.uiAutomation(context.Background(), `/Users/me/Desktop/login "screen".png`))
	require.Len(t, runner.calls, 2)
	assert.Contains(t, runner.calls[0].args[1], `tell application "Finder"`)
	assert.Contains(t, runner.calls[0].args[1], `login \"screen\".png`)
	assert.Contains(t, runner.calls[1].args[1], "set the clipboard to")
	assert.Contains(t, runner.calls[1].args[1], "«class PNGf»")
}

func TestUIAutomation_DarwinBothFail(t *testing.T) {
	runner := &fakeRunner{fail: map[string]int{"osascript": -1}}
	p := newTestPlatform(t, "darwin", runner)
	assert.Error(t, p.uiAutomation(context.Background(), "/tmp/a.png"))
	assert.Len(t, runner.calls, 2)
}

func TestUIAutomation_LinuxCopiesURIList(t *testing.T) {
	runner := &fakeRunner{}
	p := newTestPlatform(t, "linux", runner)

	require.NoError(t, p.uiAutomation(context.Background(), "/home/me/Pictures/red car.png"))
	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0].args, "text/uri-list")
	assert.Equal(t, "file:///home/me/Pictures/red%20car.png\n", runner.calls[0].stdin)
}

func TestUIAutomation_WindowsQuotesPath(t *testing.T) {
	runner := &fakeRunner{}
	p := newTestPlatform(t, "windows", runner)

	require.NoError(t, p.uiAutomation(context.Background(), `C:\Users\o'neil\shot.png`))
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "powershell", runner.calls[0].name)
	assert.Contains(t, runner.calls[0].args[len(runner.calls[0].args)-1], `'C:\Users\o''neil\shot.png'`)
}

func TestChain_EndToEndWithFakeRunner(t *testing.T) {
	img := writeImage(t, "login_screen.png", "png")
	runner := &fakeRunner{fail: map[string]int{"xclip": 1}}
	p := newTestPlatform(t, "linux", runner)

	pub := NewPublisher(p.Strategies(), time.Second, quietLogger())
	attempts, err := pub.Publish(context.Background(), img)
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.Equal(t, StrategyNativeHelper, attempts[0].Strategy)
	assert.False(t, attempts[0].Success)
	assert.Equal(t, StrategyUIAutomation, attempts[1].Strategy)
	assert.False(t, attempts[1].Success)
	assert.Equal(t, StrategyPasteboard, attempts[2].Strategy)
	assert.True(t, attempts[2].Success)
}

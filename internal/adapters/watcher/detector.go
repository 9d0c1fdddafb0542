package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"snapname/internal/config"
	"snapname/internal/domain"
)

const (
	defaultRecentTTL = time.Minute
	queueSize        = 256
	// maxEmptyChecks bounds how long a zero-byte file is polled; a later
	// write event starts tracking it again
	maxEmptyChecks = 20
)

// Handler runs the pipeline for one stable file and returns its final path
type Handler interface {
	Handle(ctx context.Context, path string) (string, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, path string) (string, error)

func (f HandlerFunc) Handle(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// SessionFactory builds the handler bound to one configuration snapshot
type SessionFactory func(snap *config.Snapshot) (Handler, error)

// Options tunes a Detector
type Options struct {
	Logger *slog.Logger
	// RecentTTL is how long a produced path is ignored after its rename
	RecentTTL time.Duration
}

type session struct {
	snap    *config.Snapshot
	handler Handler
}

// pendingFile tracks a path whose size has not settled yet
type pendingFile struct {
	timer       *time.Timer
	lastSize    int64
	emptyChecks int
}

// Detector turns filesystem events into one handler call per stable,
// qualifying image. Files are handled one at a time.
type Detector struct {
	factory SessionFactory
	logger  *slog.Logger
	ttl     time.Duration

	session atomic.Pointer[session]

	watcher      *fsnotify.Watcher
	dir          string
	recursive    bool
	debounce     time.Duration
	stableWindow time.Duration
	runCtx       context.Context

	mu       sync.Mutex
	pending  map[string]*pendingFile
	inFlight map[string]bool
	recent   map[string]time.Time
	stopped  bool

	queue    chan domain.WatchedFile
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a Detector. Nothing is watched until Start.
func New(factory SessionFactory, opts Options) *Detector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.RecentTTL
	if ttl <= 0 {
		ttl = defaultRecentTTL
	}
	return &Detector{
		factory:  factory,
		logger:   logger,
		ttl:      ttl,
		pending:  map[string]*pendingFile{},
		inFlight: map[string]bool{},
		recent:   map[string]time.Time{},
		queue:    make(chan domain.WatchedFile, queueSize),
		done:     make(chan struct{}),
	}
}

// Start begins watching snap.WatchDir. In-flight files are not cancelled
// when ctx ends; call Stop to shut down.
func (d *Detector) Start(ctx context.Context, snap *config.Snapshot) error {
	if err := snap.Validate(true); err != nil {
		return err
	}
	handler, err := d.factory(snap)
	if err != nil {
		return err
	}

	dir, err := filepath.Abs(snap.WatchDir)
	if err != nil {
		return fmt.Errorf("failed to resolve watch directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to access watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path %s is not a directory", dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	d.session.Store(&session{snap: snap, handler: handler})
	d.watcher = w
	d.dir = dir
	d.recursive = snap.Watch.Recursive
	d.debounce = snap.Watch.Debounce
	d.stableWindow = snap.Watch.StableWindow
	if d.stableWindow <= 0 {
		d.stableWindow = 100 * time.Millisecond
	}
	d.runCtx = context.WithoutCancel(ctx)

	if err := d.addTree(dir); err != nil {
		w.Close()
		return err
	}

	d.wg.Add(2)
	go d.eventLoop(ctx)
	go d.worker()

	d.logger.Info("watching", "dir", dir, "recursive", d.recursive, "provider", snap.Provider)
	return nil
}

// Stop stops accepting events and waits for the file in progress to finish.
// Queued files that have not started are dropped.
func (d *Detector) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		for path, p := range d.pending {
			p.timer.Stop()
			delete(d.pending, path)
		}
		d.mu.Unlock()

		close(d.done)
		if d.watcher != nil {
			d.watcher.Close()
		}
		d.wg.Wait()
	})
}

// ReloadConfig swaps the snapshot used for files that start after the call.
// Files already in progress keep their snapshot. A changed watch directory
// only takes effect on restart.
func (d *Detector) ReloadConfig(snap *config.Snapshot) error {
	if err := snap.Validate(false); err != nil {
		d.logger.Error("config reload rejected", "error", err)
		return err
	}
	handler, err := d.factory(snap)
	if err != nil {
		d.logger.Error("config reload rejected", "error", err)
		return err
	}

	if abs, err := filepath.Abs(snap.WatchDir); err == nil && snap.WatchDir != "" && abs != d.dir {
		d.logger.Warn("watch directory change ignored until restart", "dir", d.dir, "requested", abs)
	}

	d.session.Store(&session{snap: snap, handler: handler})
	d.logger.Info("config reloaded", "provider", snap.Provider)
	return nil
}

// Snapshot returns the configuration currently used for new files
func (d *Detector) Snapshot() *config.Snapshot {
	if s := d.session.Load(); s != nil {
		return s.snap
	}
	return nil
}

func (d *Detector) addTree(root string) error {
	if !d.recursive {
		return d.watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			d.logger.Warn("watcher error", "path", path, "error", err)
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && domain.IsHidden(path) {
			return filepath.SkipDir
		}
		if err := d.watcher.Add(path); err != nil {
			d.logger.Warn("watcher error", "path", path, "error", err)
		}
		return nil
	})
}

func (d *Detector) eventLoop(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			d.handleEvent(ev)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Error("watcher error", "error", err)
		case <-ctx.Done():
			return
		case <-d.done:
			return
		}
	}
}

func (d *Detector) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if domain.IsHidden(path) {
		return
	}

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		d.cancelPending(path)
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}

	if ev.Has(fsnotify.Create) && d.recursive {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := d.addTree(path); err != nil {
				d.logger.Warn("watcher error", "path", path, "error", err)
			}
			return
		}
	}

	if !domain.IsSupportedImage(path) {
		return
	}
	d.touch(path)
}

// touch (re)starts the stability timer for path, coalescing bursts of writes
func (d *Detector) touch(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if p, ok := d.pending[path]; ok {
		p.timer.Reset(d.stableWindow)
		return
	}
	p := &pendingFile{lastSize: -1}
	p.timer = time.AfterFunc(d.stableWindow, func() { d.checkStable(path) })
	d.pending[path] = p
}

func (d *Detector) cancelPending(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[path]; ok {
		p.timer.Stop()
		delete(d.pending, path)
	}
}

// checkStable fires after a quiet window; the file is accepted once two
// consecutive checks see the same size
func (d *Detector) checkStable(path string) {
	info, err := os.Stat(path)

	d.mu.Lock()
	p, ok := d.pending[path]
	if !ok || d.stopped {
		d.mu.Unlock()
		return
	}
	if err != nil {
		delete(d.pending, path)
		d.mu.Unlock()
		return
	}
	if info.Size() == 0 {
		p.emptyChecks++
		if p.emptyChecks >= maxEmptyChecks {
			delete(d.pending, path)
			d.mu.Unlock()
			d.logger.Debug("dropping empty file", "path", path, "checks", maxEmptyChecks)
			return
		}
	}
	if info.Size() != p.lastSize || info.Size() == 0 {
		p.lastSize = info.Size()
		p.timer.Reset(d.stableWindow)
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	d.mu.Unlock()

	d.accept(path)
}

// accept applies the admission rules and queues the file
func (d *Detector) accept(path string) {
	stem, _ := domain.SplitName(path)
	if domain.IsProcessed(stem) {
		d.logger.Debug("ignoring processed file", "path", path)
		return
	}

	d.mu.Lock()
	if d.stopped || d.inFlight[path] || d.isRecentLocked(path) {
		d.mu.Unlock()
		return
	}
	d.inFlight[path] = true
	d.mu.Unlock()

	d.logger.Info("file detected", "path", path)

	select {
	case d.queue <- domain.NewWatchedFile(path, time.Now()):
	case <-d.done:
		d.unmark(path)
	}
}

func (d *Detector) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		default:
		}

		select {
		case f := <-d.queue:
			d.process(f)
		case <-d.done:
			return
		}
	}
}

func (d *Detector) process(f domain.WatchedFile) {
	path := f.Path
	defer d.unmark(path)

	// the previous file's rename may have produced this one
	d.mu.Lock()
	recent := d.isRecentLocked(path)
	d.mu.Unlock()
	if recent {
		return
	}

	if d.debounce > 0 {
		select {
		case <-time.After(d.debounce):
		case <-d.done:
			return
		}
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		d.logger.Debug("file vanished before processing", "path", path)
		return
	}

	sess := d.session.Load()
	final, err := sess.handler.Handle(d.runCtx, path)
	if err != nil {
		d.logger.Error("processing failed",
			"path", path,
			"error", err,
			"since_detected_ms", time.Since(f.DiscoveredAt).Milliseconds(),
		)
		return
	}
	if final != "" && final != path {
		d.markRecent(final)
	}
}

func (d *Detector) unmark(path string) {
	d.mu.Lock()
	delete(d.inFlight, path)
	d.mu.Unlock()
}

func (d *Detector) markRecent(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for p, at := range d.recent {
		if now.Sub(at) > d.ttl {
			delete(d.recent, p)
		}
	}
	d.recent[path] = now
}

func (d *Detector) isRecentLocked(path string) bool {
	at, ok := d.recent[path]
	return ok && time.Since(at) <= d.ttl
}

// InFlight reports whether path is currently owned by a pipeline run
func (d *Detector) InFlight(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight[path]
}

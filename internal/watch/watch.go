package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before OnChange runs.
const DefaultDebounce = 500 * time.Millisecond

// OnChange is called with the watched path after it settles.
type OnChange func(ctx context.Context, path string) error

// Config holds watcher settings.
type Config struct {
	Debounce time.Duration
	// Initial runs OnChange once at Start, before any event.
	Initial bool
}

// Watcher follows a single file.
type Watcher struct {
	path     string
	fn       OnChange
	cfg      Config
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	runs     int
	failures int

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Stats are watcher counters.
type Stats struct {
	Runs     int
	Failures int
}

// New returns a watcher for path. Nothing is watched until Start.
func New(path string, fn OnChange, cfg Config, logger *slog.Logger) (*Watcher, error) {
	if fn == nil {
		return nil, errors.New("watch: nil callback")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	return &Watcher{path: abs, fn: fn, cfg: cfg, logger: logger}, nil
}

// Path returns the absolute path being followed.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errors.New("watcher already started")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.watcher = fw
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.started = true

	w.wg.Add(1)
	go w.run()

	w.logger.Info("watching log file", "path", w.path, "debounce", w.cfg.Debounce)
	return nil
}

// Stop ends watching and waits for an in-flight callback, bounded by ctx.
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = false
	w.cancel()
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}
	w.logger.Info("watcher stopped", "path", w.path, "runs", w.runs)
	return nil
}

// Stats returns counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{Runs: w.runs, Failures: w.failures}
}

func (w *Watcher) run() {
	defer w.wg.Done()

	if w.cfg.Initial {
		w.fire()
	}

	// A stopped timer that each relevant event re-arms.
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("log file event", "op", ev.Op.String())
			timer.Reset(w.cfg.Debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "path", w.path, "error", err)

		case <-timer.C:
			w.fire()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write) != 0
}

func (w *Watcher) fire() {
	err := w.fn(w.ctx, w.path)

	w.mu.Lock()
	w.runs++
	if err != nil {
		w.failures++
	}
	w.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Warn("log change handler failed", "path", w.path, "error", err)
	}
}

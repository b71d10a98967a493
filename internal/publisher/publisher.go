package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/shoplog/internal/atomicfile"
	"github.com/rickgao/shoplog/internal/index"
	"github.com/rickgao/shoplog/internal/model"
)

// Source provides the index to publish.
type Source interface {
	LoadIndex(ctx context.Context) (index.Snapshot, error)
}

// Config holds publisher configuration.
type Config struct {
	Interval time.Duration // How often to check the index (default: 1m)
	Path     string        // Output file
	Timeout  time.Duration // Per-load timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: time.Minute,
		Path:     "inventory/index.json",
		Timeout:  10 * time.Second,
	}
}

// Publisher writes the index to Config.Path on an interval.
type Publisher struct {
	cfg    Config
	source Source
	logger *slog.Logger

	// last written version; -1 until the first write
	lastVersion atomic.Int64
	writes      atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Publisher.
func New(cfg Config, source Source, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Path == "" {
		cfg.Path = def.Path
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	p := &Publisher{
		cfg:    cfg,
		source: source,
		logger: logger,
	}
	p.lastVersion.Store(-1)
	return p
}

// Start begins the publishing loop.
func (p *Publisher) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("index publisher started",
		"interval", p.cfg.Interval,
		"path", p.cfg.Path,
	)

	return nil
}

// Stop gracefully shuts down the publisher.
func (p *Publisher) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("index publisher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Writes returns how many times the file has been written.
func (p *Publisher) Writes() int64 {
	return p.writes.Load()
}

// run is the main publishing loop.
func (p *Publisher) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Publish immediately on start.
	p.tick()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

func (p *Publisher) tick() {
	if _, err := p.PublishOnce(p.ctx); err != nil && p.ctx.Err() == nil {
		p.logger.Warn("failed to publish index", "err", err)
	}
}

// PublishOnce writes the index if its version changed since the last
// write. It reports whether the file was written.
func (p *Publisher) PublishOnce(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	snap, err := p.source.LoadIndex(ctx)
	if err != nil {
		return false, fmt.Errorf("load index: %w", err)
	}
	if snap.Version == p.lastVersion.Load() {
		return false, nil
	}

	start := time.Now()
	err = atomicfile.Write(p.cfg.Path, func(w io.Writer) error {
		return WriteIndex(w, snap)
	})
	if err != nil {
		return false, fmt.Errorf("write index file: %w", err)
	}

	p.lastVersion.Store(snap.Version)
	p.writes.Add(1)

	p.logger.Info("published index",
		"path", p.cfg.Path,
		"version", snap.Version,
		"entries", len(snap.Entries),
		"duration", time.Since(start),
	)
	return true, nil
}

// WriteIndex encodes the entries of snap as a JSON object keyed by
// canonical key.
func WriteIndex(w io.Writer, snap index.Snapshot) error {
	entries := snap.Entries
	if entries == nil {
		entries = model.Index{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return nil
}

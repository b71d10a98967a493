package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/rickgao/shoplog/internal/model"
)

// maxRetryBackoff caps the doubling between merge attempts.
const maxRetryBackoff = 2 * time.Second

// SaveFunc persists a merged snapshot. It must honour the same version rule
// as Store.SaveIndex.
type SaveFunc func(ctx context.Context, next Snapshot) error

// Update describes one applied merge.
type Update struct {
	Before   model.Index
	After    model.Index
	Version  int64 // stored version after the write
	Changes  []Change
	Attempts int
}

// Aggregator runs load, merge and conditional save against a Store,
// retrying when another writer got there first.
type Aggregator struct {
	store  Store
	logger *slog.Logger

	maxAttempts  int
	retryBackoff time.Duration
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// NewAggregator creates an Aggregator over store.
func NewAggregator(store Store, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		store:        store,
		logger:       slog.Default(),
		maxAttempts:  5,
		retryBackoff: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRetries sets how many times a merge is attempted and the initial
// backoff between attempts.
func WithRetries(maxAttempts int, backoff time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		if maxAttempts > 0 {
			a.maxAttempts = maxAttempts
		}
		a.retryBackoff = backoff
	}
}

// Load returns the current snapshot.
func (a *Aggregator) Load(ctx context.Context) (Snapshot, error) {
	return a.store.LoadIndex(ctx)
}

// Apply merges records into the stored index.
func (a *Aggregator) Apply(ctx context.Context, records []model.ShopRecord) (Update, error) {
	return a.ApplyWith(ctx, records, a.store.SaveIndex)
}

// ApplyWith merges records into the stored index and hands the result to
// save, so callers can write it together with other data. Only
// ErrVersionConflict is retried; any other error aborts.
func (a *Aggregator) ApplyWith(ctx context.Context, records []model.ShopRecord, save SaveFunc) (Update, error) {
	var lastErr error
	backoff := a.retryBackoff

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if attempt > 1 {
			wait := jitter(backoff)
			a.logger.Debug("retrying index merge",
				"attempt", attempt,
				"backoff", wait,
			)

			select {
			case <-ctx.Done():
				return Update{}, ctx.Err()
			case <-time.After(wait):
			}

			backoff = min(backoff*2, maxRetryBackoff)
		}

		prior, err := a.store.LoadIndex(ctx)
		if err != nil {
			return Update{}, fmt.Errorf("load index: %w", err)
		}

		next := Merge(prior.Entries, records)
		err = save(ctx, Snapshot{Entries: next, Version: prior.Version})
		if err == nil {
			return Update{
				Before:   prior.Entries,
				After:    next,
				Version:  prior.Version + 1,
				Changes:  Changes(prior.Entries, next),
				Attempts: attempt,
			}, nil
		}

		lastErr = err
		if !errors.Is(err, ErrVersionConflict) {
			return Update{}, fmt.Errorf("save index: %w", err)
		}
	}

	return Update{}, fmt.Errorf("max attempts exceeded: %w", lastErr)
}

// jitter spreads d over [d/2, 3d/2).
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d/2 + time.Duration(rand.Int64N(int64(d)))
}

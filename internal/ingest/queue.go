package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueFull is returned by Submit when too many uploads are waiting.
var ErrQueueFull = errors.New("ingest queue full")

// ErrQueueStopped is returned by Submit after Stop.
var ErrQueueStopped = errors.New("ingest queue stopped")

type job struct {
	ctx    context.Context
	upload Upload
	done   chan jobResult
}

type jobResult struct {
	receipt Receipt
	err     error
}

// Queue applies uploads one at a time through a single worker.
type Queue struct {
	next   Ingester
	buf    *Buffer[job]
	logger *slog.Logger

	// Lifecycle
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

var _ Ingester = (*Queue)(nil)

// NewQueue creates a queue in front of next holding at most size waiting
// uploads.
func NewQueue(next Ingester, size int, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	initial := size
	if initial < 1 || initial > 16 {
		initial = 16
	}
	return &Queue{
		next:   next,
		buf:    NewBuffer[job](initial, size),
		logger: logger,
	}
}

// Start launches the worker.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return nil
	}
	q.started = true

	q.wg.Add(1)
	go q.run()

	q.logger.Info("ingest queue started", "size", q.buf.Stats().Limit)
	return nil
}

// Stop refuses new uploads, lets the worker finish what is queued and
// waits for it or for ctx.
func (q *Queue) Stop(ctx context.Context) error {
	q.logger.Info("stopping ingest queue", "pending", q.buf.Len())
	q.buf.Close()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("ingest queue stopped")
		return nil
	case <-ctx.Done():
		q.logger.Warn("ingest queue stop timed out")
		return ctx.Err()
	}
}

// Ingest queues u and waits for the worker to apply it.
func (q *Queue) Ingest(ctx context.Context, u Upload) (Receipt, error) {
	j := job{ctx: ctx, upload: u, done: make(chan jobResult, 1)}

	if err := q.buf.Push(j); err != nil {
		if errors.Is(err, ErrBufferFull) {
			return Receipt{}, ErrQueueFull
		}
		return Receipt{}, ErrQueueStopped
	}

	select {
	case res := <-j.done:
		return res.receipt, res.err
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	}
}

// Pending returns how many uploads are waiting.
func (q *Queue) Pending() int {
	return q.buf.Len()
}

func (q *Queue) run() {
	defer q.wg.Done()

	for {
		j, ok := q.buf.Pop()
		if !ok {
			return
		}

		// The submitter already gave up.
		if err := j.ctx.Err(); err != nil {
			j.done <- jobResult{err: err}
			continue
		}

		r, err := q.next.Ingest(j.ctx, j.upload)
		if err != nil {
			q.logger.Debug("queued upload failed", "uploader", j.upload.Uploader, "error", err)
		}
		j.done <- jobResult{receipt: r, err: err}
	}
}

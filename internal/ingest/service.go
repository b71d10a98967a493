package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/shoplog/internal/index"
	"github.com/rickgao/shoplog/internal/model"
	"github.com/rickgao/shoplog/internal/validate"
)

// ErrNoRecords is returned for an upload with nothing in it.
var ErrNoRecords = errors.New("no shop records in upload")

// Upload is one batch of records from one uploader.
type Upload struct {
	Uploader   string
	Records    []model.ShopRecord
	ReceivedAt time.Time // zero means now
}

// Receipt describes an accepted upload.
type Receipt struct {
	BatchID  uuid.UUID      `json:"batchId"`
	Key      string         `json:"key"`
	Records  int            `json:"records"`
	Version  int64          `json:"version"`
	Changed  []index.Change `json:"changed"`
	Attempts int            `json:"-"`
}

// Ingester applies uploads. Service and Queue both implement it.
type Ingester interface {
	Ingest(ctx context.Context, u Upload) (Receipt, error)
}

// Notifier hears about index changes after a commit.
type Notifier interface {
	Publish(changes []index.Change)
}

// Service validates uploads and commits them to a BatchStore.
type Service struct {
	store    index.BatchStore
	agg      *index.Aggregator
	logger   *slog.Logger
	notifier Notifier
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	logger       *slog.Logger
	notifier     Notifier
	maxAttempts  int
	retryBackoff time.Duration
	retriesSet   bool
	now          func() time.Time
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) { o.logger = logger }
}

// WithNotifier sets who is told about index changes.
func WithNotifier(n Notifier) ServiceOption {
	return func(o *serviceOptions) { o.notifier = n }
}

// WithRetries bounds conflict retries.
func WithRetries(maxAttempts int, backoff time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.maxAttempts = maxAttempts
		o.retryBackoff = backoff
		o.retriesSet = true
	}
}

// WithClock overrides the time source used to stamp uploads.
func WithClock(now func() time.Time) ServiceOption {
	return func(o *serviceOptions) { o.now = now }
}

// NewService creates a Service over store.
func NewService(store index.BatchStore, opts ...ServiceOption) *Service {
	o := serviceOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	aggOpts := []index.AggregatorOption{index.WithLogger(o.logger)}
	if o.retriesSet {
		aggOpts = append(aggOpts, index.WithRetries(o.maxAttempts, o.retryBackoff))
	}

	return &Service{
		store:    store,
		agg:      index.NewAggregator(store, aggOpts...),
		logger:   o.logger,
		notifier: o.notifier,
		now:      o.now,
	}
}

// Ingest validates u and, if every record passes, stores the batch and
// folds it into the index. A failing batch returns *validate.RejectedError
// and changes nothing.
func (s *Service) Ingest(ctx context.Context, u Upload) (Receipt, error) {
	if len(u.Records) == 0 {
		return Receipt{}, ErrNoRecords
	}

	res := validate.Batch(u.Records)
	if !res.OK() {
		s.logger.Info("upload rejected",
			"uploader", u.Uploader,
			"records", len(u.Records),
			"errors", len(res.Errors),
		)
		return Receipt{}, res.Err()
	}

	at := u.ReceivedAt
	if at.IsZero() {
		at = s.now()
	}
	batch := model.NewBatch(u.Uploader, at, res.Value)

	up, err := s.agg.ApplyWith(ctx, batch.Records, func(ctx context.Context, next index.Snapshot) error {
		return s.store.Commit(ctx, batch, next)
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("commit batch %s: %w", batch.Key(), err)
	}

	s.logger.Info("upload accepted",
		"batch_id", batch.ID,
		"key", batch.Key(),
		"records", len(batch.Records),
		"changed", len(up.Changes),
		"version", up.Version,
		"attempts", up.Attempts,
	)

	if s.notifier != nil && len(up.Changes) > 0 {
		s.notifier.Publish(up.Changes)
	}

	return Receipt{
		BatchID:  batch.ID,
		Key:      batch.Key(),
		Records:  len(batch.Records),
		Version:  up.Version,
		Changed:  up.Changes,
		Attempts: up.Attempts,
	}, nil
}

// Index returns the current index snapshot.
func (s *Service) Index(ctx context.Context) (index.Snapshot, error) {
	return s.agg.Load(ctx)
}

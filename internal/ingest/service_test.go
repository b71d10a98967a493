package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/shoplog/internal/index"
	"github.com/rickgao/shoplog/internal/model"
	"github.com/rickgao/shoplog/internal/validate"
)

func record(owner, item string, buy int64) model.ShopRecord {
	return model.ShopRecord{
		Owner: owner,
		Stock: model.Int(10),
		Item:  item,
		Buy:   model.Price{Quantity: model.Int(1), Value: model.Int(buy)},
	}
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]index.Change
}

func (n *recordingNotifier) Publish(changes []index.Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, changes)
}

func fixedClock() time.Time {
	return time.Date(2024, 11, 29, 12, 0, 0, 0, time.UTC)
}

func TestService_Accepts(t *testing.T) {
	ctx := context.Background()
	store := index.NewMemoryStore()
	notifier := &recordingNotifier{}
	svc := NewService(store, WithNotifier(notifier), WithClock(fixedClock))

	r, err := svc.Ingest(ctx, Upload{
		Uploader: "steve",
		Records:  []model.ShopRecord{record("Notch", "White Wool", 100), record("Jeb", "Bread", 3)},
	})
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}

	if r.Key != "steve.1732881600000" {
		t.Errorf("Key = %q, want %q", r.Key, "steve.1732881600000")
	}
	if r.Records != 2 || r.Version != 1 || len(r.Changed) != 2 {
		t.Errorf("Receipt = %+v, want 2 records, version 1, 2 changes", r)
	}

	batches := store.Batches()
	if len(batches) != 1 || batches[0].ID != r.BatchID {
		t.Fatalf("stored batches = %+v, want the one receipt batch", batches)
	}

	snap, _ := svc.Index(ctx)
	if snap.Entries["White Wool"].HighestBuy != 100 {
		t.Errorf("White Wool highestBuy = %d, want 100", snap.Entries["White Wool"].HighestBuy)
	}

	if len(notifier.calls) != 1 || len(notifier.calls[0]) != 2 {
		t.Errorf("notifier calls = %v, want one call with 2 changes", notifier.calls)
	}
}

func TestService_RejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	store := index.NewMemoryStore()
	notifier := &recordingNotifier{}
	svc := NewService(store, WithNotifier(notifier))

	bad := record("", "Bread", 3)
	bad.Buy.Value = model.NaN()

	_, err := svc.Ingest(ctx, Upload{
		Uploader: "steve",
		Records:  []model.ShopRecord{record("Notch", "White Wool", 100), bad},
	})

	var rejected *validate.RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("Ingest error = %v, want *validate.RejectedError", err)
	}
	if len(rejected.Errors) != 2 {
		t.Errorf("len(Errors) = %d, want 2", len(rejected.Errors))
	}

	snap, _ := store.LoadIndex(ctx)
	if snap.Version != 0 || len(snap.Entries) != 0 {
		t.Errorf("index changed by rejected batch: %+v", snap)
	}
	if len(store.Batches()) != 0 {
		t.Error("rejected batch was stored")
	}
	if len(notifier.calls) != 0 {
		t.Error("notifier called for rejected batch")
	}
}

func TestService_EmptyUpload(t *testing.T) {
	svc := NewService(index.NewMemoryStore())
	if _, err := svc.Ingest(context.Background(), Upload{Uploader: "steve"}); !errors.Is(err, ErrNoRecords) {
		t.Errorf("Ingest error = %v, want ErrNoRecords", err)
	}
}

func TestService_NoChangeNoNotify(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc := NewService(index.NewMemoryStore(), WithNotifier(notifier))

	up := Upload{Uploader: "steve", Records: []model.ShopRecord{record("Notch", "White Wool", 100)}}
	if _, err := svc.Ingest(ctx, up); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	r, err := svc.Ingest(ctx, up)
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}

	if len(r.Changed) != 0 {
		t.Errorf("Changed = %v, want none", r.Changed)
	}
	if r.Version != 2 {
		t.Errorf("Version = %d, want 2 (raw batch still committed)", r.Version)
	}
	if len(notifier.calls) != 1 {
		t.Errorf("notifier calls = %d, want 1", len(notifier.calls))
	}
}

// conflictStore always loses the race.
type conflictStore struct {
	*index.MemoryStore
}

func (conflictStore) Commit(context.Context, model.Batch, index.Snapshot) error {
	return index.ErrVersionConflict
}

func TestService_ConflictExhaustion(t *testing.T) {
	svc := NewService(conflictStore{index.NewMemoryStore()}, WithRetries(2, time.Millisecond))

	_, err := svc.Ingest(context.Background(), Upload{
		Uploader: "steve",
		Records:  []model.ShopRecord{record("Notch", "White Wool", 100)},
	})
	if !errors.Is(err, index.ErrVersionConflict) {
		t.Errorf("Ingest error = %v, want wrapped ErrVersionConflict", err)
	}
}

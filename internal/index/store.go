package index

import (
	"context"
	"errors"
	"sync"

	"github.com/rickgao/shoplog/internal/model"
)

// ErrVersionConflict is returned by a conditional write whose snapshot is
// no longer the stored one.
var ErrVersionConflict = errors.New("index version conflict")

// Snapshot is a full copy of the index at a version. Version 0 means no
// index has been stored yet.
type Snapshot struct {
	Entries model.Index
	Version int64
}

// Store loads and conditionally saves the whole index.
type Store interface {
	// LoadIndex returns the current snapshot. A store with no index returns
	// an empty snapshot at version 0, not an error.
	LoadIndex(ctx context.Context) (Snapshot, error)

	// SaveIndex writes next.Entries if the stored version still equals
	// next.Version, after which the stored version is next.Version+1.
	// Otherwise it returns ErrVersionConflict and writes nothing.
	SaveIndex(ctx context.Context, next Snapshot) error
}

// BatchStore also keeps the raw uploads that fed the index.
type BatchStore interface {
	Store

	// Commit stores batch and saves next under the same version rule as
	// SaveIndex. Either both are written or neither is.
	Commit(ctx context.Context, batch model.Batch, next Snapshot) error
}

// MemoryStore is an in-process BatchStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries model.Index
	version int64
	batches []model.Batch
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: model.Index{}}
}

// LoadIndex returns a copy of the stored index.
func (s *MemoryStore) LoadIndex(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Entries: s.entries.Clone(), Version: s.version}, nil
}

// SaveIndex conditionally replaces the stored index.
func (s *MemoryStore) SaveIndex(ctx context.Context, next Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(next)
}

// Commit appends batch and replaces the index in one step.
func (s *MemoryStore) Commit(ctx context.Context, batch model.Batch, next Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveLocked(next); err != nil {
		return err
	}
	s.batches = append(s.batches, batch)
	return nil
}

// Batches returns the stored uploads in commit order.
func (s *MemoryStore) Batches() []model.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Batch, len(s.batches))
	copy(out, s.batches)
	return out
}

func (s *MemoryStore) saveLocked(next Snapshot) error {
	if next.Version != s.version {
		return ErrVersionConflict
	}
	s.entries = next.Entries.Clone()
	s.version++
	return nil
}

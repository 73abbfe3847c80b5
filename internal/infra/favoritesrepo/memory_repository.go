package favoritesrepo

import (
	"context"
	"sync"

	"github.com/yanqian/weather-favorites/internal/domain/favorites"
)

// MemoryRepository provides an in-memory favorites store for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []favorites.Entry
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// List returns entries in insertion order.
func (r *MemoryRepository) List(_ context.Context) ([]favorites.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]favorites.Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Clone()
	}
	return out, nil
}

// Insert appends the entry unless its identity is taken.
func (r *MemoryRepository) Insert(_ context.Context, entry favorites.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := entry.Key()
	for _, e := range r.entries {
		if e.Key() == key {
			return favorites.ErrDuplicate
		}
	}
	r.entries = append(r.entries, entry.Clone())
	return nil
}

// Delete removes the entry with the given identity.
func (r *MemoryRepository) Delete(_ context.Context, key favorites.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.Key() == key {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return favorites.ErrNotFound
}

var _ favorites.Repository = (*MemoryRepository)(nil)

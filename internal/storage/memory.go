package storage

import (
	"context"
	"sync"
)

// MemoryRepository keeps the blob in process memory. Useful for tests and
// throwaway sessions.
type MemoryRepository struct {
	mu   sync.Mutex
	data []byte
	// Saves counts successful Save calls.
	Saves int
	// FailSave, when set, is returned by Save instead of storing.
	FailSave error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Load(_ context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data == nil {
		return nil, nil
	}
	return append([]byte(nil), r.data...), nil
}

func (r *MemoryRepository) Save(_ context.Context, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSave != nil {
		return r.FailSave
	}
	r.data = append([]byte(nil), data...)
	r.Saves++
	return nil
}

func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = nil
	return nil
}

func (r *MemoryRepository) Close() error { return nil }

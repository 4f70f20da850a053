package notify

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory inbox useful for tests and early development.
type MemoryRepo struct {
	mu    sync.RWMutex
	items []Notification
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(ctx context.Context, n Notification) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	return nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Notification
	// newest first
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].UserID != userID {
			continue
		}
		out = append(out, r.items[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepo) MarkRead(ctx context.Context, id string) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Read = true
			return true, nil
		}
	}
	return false, nil
}

// All returns every stored notification; test helper.
func (r *MemoryRepo) All() []Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

package billing

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repository used in tests.
type MemoryRepo struct {
	mu      sync.RWMutex
	records []CallRecord
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(ctx context.Context, rec CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter, limit int) ([]CallRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []CallRecord
	for _, rec := range r.records {
		if f.CampaignID != "" && rec.CampaignID != f.CampaignID {
			continue
		}
		if f.BuyerID != "" && rec.BuyerID != f.BuyerID {
			continue
		}
		if f.SellerID != "" && rec.SellerID != f.SellerID {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

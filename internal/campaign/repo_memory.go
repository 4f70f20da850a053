package campaign

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory repository useful for tests and early development.
// Upsert semantics match the Postgres implementation: one acceptance per
// (campaign, seller), one routing assignment per campaign.
type MemoryRepo struct {
	mu          sync.RWMutex
	campaigns   map[string]Campaign
	acceptances []SellerAcceptance
	routings    map[string]RoutingAssignment // keyed by campaign id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		campaigns: make(map[string]Campaign),
		routings:  make(map[string]RoutingAssignment),
	}
}

func (r *MemoryRepo) InsertCampaign(ctx context.Context, c Campaign) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[c.ID] = c
	return nil
}

func (r *MemoryRepo) FindCampaign(ctx context.Context, id string) (Campaign, bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	return c, ok, nil
}

func (r *MemoryRepo) ListCampaigns(ctx context.Context, f Filter, limit int) ([]Campaign, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.BuyerID != "" && c.BuyerID != f.BuyerID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, status Status, now time.Time) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return false, nil
	}
	c.Status = status
	c.UpdatedAt = now
	r.campaigns[id] = c
	return true, nil
}

func (r *MemoryRepo) SetTransferNumber(ctx context.Context, id, number string, status Status, now time.Time) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return false, nil
	}
	c.TransferNumber = number
	c.Status = status
	c.UpdatedAt = now
	r.campaigns[id] = c
	return true, nil
}

func (r *MemoryRepo) UpsertAcceptance(ctx context.Context, a SellerAcceptance) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.acceptances {
		if r.acceptances[i].CampaignID == a.CampaignID && r.acceptances[i].SellerID == a.SellerID {
			r.acceptances[i].Status = a.Status
			r.acceptances[i].UpdatedAt = a.UpdatedAt
			return nil
		}
	}
	r.acceptances = append(r.acceptances, a)
	return nil
}

func (r *MemoryRepo) ListAcceptances(ctx context.Context, campaignID string) ([]SellerAcceptance, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []SellerAcceptance
	for _, a := range r.acceptances {
		if a.CampaignID == campaignID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MemoryRepo) AssignRouting(ctx context.Context, ra RoutingAssignment, status Status, now time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.routings[ra.CampaignID]; ok {
		ra.ID = existing.ID
		ra.CreatedAt = existing.CreatedAt
	}
	r.routings[ra.CampaignID] = ra

	if c, ok := r.campaigns[ra.CampaignID]; ok {
		c.Status = status
		c.UpdatedAt = now
		r.campaigns[ra.CampaignID] = c
	}
	return nil
}

func (r *MemoryRepo) FindRouting(ctx context.Context, campaignID string) (RoutingAssignment, bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	ra, ok := r.routings[campaignID]
	return ra, ok, nil
}

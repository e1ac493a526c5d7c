package payments

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu   sync.Mutex
	byID map[string]Checkout
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]Checkout{}}
}

func (r *MemoryRepo) Create(_ context.Context, c Checkout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = c
	return nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return Checkout{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) GetByRef(_ context.Context, providerRef string) (Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if providerRef != "" && c.ProviderRef == providerRef {
			return c, nil
		}
	}
	return Checkout{}, ErrNotFound
}

func (r *MemoryRepo) Settle(_ context.Context, id string, status Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if c.Status != StatusPending {
		return false, nil
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	r.byID[id] = c
	return true, nil
}

func (r *MemoryRepo) ListFor(_ context.Context, accountID string, limit int) ([]Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Checkout{}
	for _, c := range r.byID {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

package credentials

import (
	"context"
	"sync"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Credentials
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]Credentials{}}
}

func (r *MemoryRepo) Get(_ context.Context, accountID string) (Credentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[accountID]
	if !ok {
		return Credentials{}, ErrNotFound
	}
	return c, nil
}

// Upsert keeps the original CreatedAt when replacing.
func (r *MemoryRepo) Upsert(_ context.Context, c Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byID[c.AccountID]; ok {
		c.CreatedAt = old.CreatedAt
	}
	r.byID[c.AccountID] = c
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, accountID)
	return nil
}

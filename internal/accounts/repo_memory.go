package accounts

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is a simple in-memory repository useful for tests and local development.
type MemoryRepo struct {
	mu   sync.Mutex
	byID map[string]Account
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]Account{}}
}

func (r *MemoryRepo) Create(_ context.Context, a Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == a.Email {
			return ErrEmailTaken
		}
	}
	r.byID[a.ID] = a
	return nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) GetByEmail(_ context.Context, email string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *MemoryRepo) Update(_ context.Context, a Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range r.byID {
		if id != a.ID && existing.Email == a.Email {
			return ErrEmailTaken
		}
	}
	r.byID[a.ID] = a
	return nil
}

func (r *MemoryRepo) ListSubs(_ context.Context, parentID string) ([]Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Account
	for _, a := range r.byID {
		if a.Role == RoleSub && a.ParentID == parentID {
			out = append(out, a)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryRepo) List(_ context.Context) ([]Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Account, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func sortNewestFirst(in []Account) {
	sort.Slice(in, func(i, j int) bool {
		if in[i].CreatedAt.Equal(in[j].CreatedAt) {
			return in[i].ID < in[j].ID
		}
		return in[i].CreatedAt.After(in[j].CreatedAt)
	})
}

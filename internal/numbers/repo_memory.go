package numbers

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]PhoneNumber
	byNum map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]PhoneNumber{}, byNum: map[string]string{}}
}

func (r *MemoryRepo) Create(_ context.Context, n PhoneNumber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byNum[n.PhoneNumber]; ok {
		return ErrNumberExists
	}
	r.byID[n.ID] = n
	r.byNum[n.PhoneNumber] = n.ID
	return nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (PhoneNumber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byID[id]
	if !ok {
		return PhoneNumber{}, ErrNotFound
	}
	return n, nil
}

func (r *MemoryRepo) GetByNumber(_ context.Context, e164 string) (PhoneNumber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byNum[e164]
	if !ok {
		return PhoneNumber{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepo) SetHolders(_ context.Context, id, ownerID, assignedTo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	n.OwnerID = ownerID
	n.AssignedTo = assignedTo
	r.byID[id] = n
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byNum, n.PhoneNumber)
	return nil
}

func (r *MemoryRepo) ListOwnedBy(_ context.Context, ownerID string) ([]PhoneNumber, error) {
	return r.filter(func(n PhoneNumber) bool { return n.OwnerID == ownerID }), nil
}

func (r *MemoryRepo) ListAssignedTo(_ context.Context, subID string) ([]PhoneNumber, error) {
	return r.filter(func(n PhoneNumber) bool { return n.AssignedTo == subID }), nil
}

func (r *MemoryRepo) List(_ context.Context) ([]PhoneNumber, error) {
	return r.filter(func(PhoneNumber) bool { return true }), nil
}

func (r *MemoryRepo) UnassignAll(_ context.Context, subID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cleared := 0
	for id, n := range r.byID {
		if n.AssignedTo == subID {
			n.AssignedTo = ""
			r.byID[id] = n
			cleared++
		}
	}
	return cleared, nil
}

// filter returns matches oldest first, like the Postgres repo.
func (r *MemoryRepo) filter(keep func(PhoneNumber) bool) []PhoneNumber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []PhoneNumber{}
	for _, n := range r.byID {
		if keep(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].PhoneNumber < out[j].PhoneNumber
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

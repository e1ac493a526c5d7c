package messaging

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu   sync.Mutex
	msgs []Message
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Create(_ context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	return nil
}

func (r *MemoryRepo) UpdateStatus(_ context.Context, providerSID, status, errorCode string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.msgs {
		if r.msgs[i].ProviderSID == providerSID {
			r.msgs[i].Status = status
			if errorCode != "" {
				r.msgs[i].Error = errorCode
			}
			r.msgs[i].UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) Conversation(_ context.Context, numberID, other string) ([]Message, error) {
	out := r.filter(func(m Message) bool {
		return m.NumberID == numberID && (m.To == other || m.From == other)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Recent(_ context.Context, numberIDs []string, limit int) ([]Message, error) {
	in := set(numberIDs)
	out := r.filter(func(m Message) bool { return in.has(m.NumberID) })
	// Reverse first so equal timestamps keep newest-inserted first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) CountOutbound(_ context.Context, numberIDs []string) (int, error) {
	in := set(numberIDs)
	return len(r.filter(func(m Message) bool {
		return in.has(m.NumberID) && m.Direction == Outbound
	})), nil
}

func (r *MemoryRepo) DailyCounts(_ context.Context, numberIDs []string, since time.Time) (map[string]int, error) {
	in := set(numberIDs)
	counts := map[string]int{}
	for _, m := range r.filter(func(m Message) bool { return in.has(m.NumberID) }) {
		if m.CreatedAt.Before(since) {
			continue
		}
		counts[m.CreatedAt.UTC().Format(dayLayout)]++
	}
	return counts, nil
}

func (r *MemoryRepo) filter(keep func(Message) bool) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Message{}
	for _, m := range r.msgs {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

type idSet map[string]struct{}

func (s idSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

func set(ids []string) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

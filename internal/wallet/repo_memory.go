package wallet

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local development.
// One mutex makes every Apply batch a single critical section.
type MemoryStore struct {
	mu      sync.Mutex
	wallets map[string]*Wallet
	txs     map[string][]Transaction
	idem    map[string]Transaction
	clock   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wallets: map[string]*Wallet{},
		txs:     map[string][]Transaction{},
		idem:    map[string]Transaction{},
		clock:   time.Now,
	}
}

func (s *MemoryStore) Open(_ context.Context, w Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[w.AccountID]; ok {
		return nil
	}
	w.BalanceMinor = 0
	w.UpdatedAt = s.clock().UTC()
	s.wallets[w.AccountID] = &w
	return nil
}

func (s *MemoryStore) Get(_ context.Context, accountID string) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[accountID]
	if !ok {
		return Wallet{}, ErrAccountNotFound
	}
	return copyWallet(w), nil
}

func (s *MemoryStore) Apply(_ context.Context, entries []Entry) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch against a scratch copy of balances first.
	next := map[string]int64{}
	for _, e := range entries {
		w, ok := s.wallets[e.Tx.AccountID]
		if !ok {
			return nil, ErrAccountNotFound
		}
		if e.Tx.IdempotencyKey != "" {
			if _, dup := s.idem[idemKey(e.Tx.AccountID, e.Tx.IdempotencyKey)]; dup {
				return nil, ErrDuplicate
			}
		}
		bal, seen := next[w.AccountID]
		if !seen {
			bal = w.BalanceMinor
		}
		bal += e.DeltaMinor
		if bal < 0 {
			return nil, ErrInsufficientFunds
		}
		if e.EnforceLimit && w.LimitMinor != nil && bal > *w.LimitMinor {
			return nil, ErrLimitExceeded
		}
		next[w.AccountID] = bal
	}

	now := s.clock().UTC()
	out := make([]Transaction, 0, len(entries))
	for id, bal := range next {
		s.wallets[id].BalanceMinor = bal
		s.wallets[id].UpdatedAt = now
	}
	for _, e := range entries {
		tx := e.Tx
		tx.Meta = copyMeta(tx.Meta)
		s.txs[tx.AccountID] = append(s.txs[tx.AccountID], tx)
		if tx.IdempotencyKey != "" {
			s.idem[idemKey(tx.AccountID, tx.IdempotencyKey)] = tx
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *MemoryStore) SetLimit(_ context.Context, accountID string, limitMinor *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	if limitMinor == nil {
		w.LimitMinor = nil
		return nil
	}
	v := *limitMinor
	w.LimitMinor = &v
	return nil
}

// Transactions returns newest first.
func (s *MemoryStore) Transactions(_ context.Context, accountID string, limit int) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.txs[accountID]
	out := make([]Transaction, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) FindByIdempotency(_ context.Context, accountID, key string) (Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.idem[idemKey(accountID, key)]
	return tx, ok, nil
}

func (s *MemoryStore) Close(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	if w.BalanceMinor != 0 {
		return ErrBalanceNotZero
	}
	delete(s.wallets, accountID)
	return nil
}

func idemKey(accountID, key string) string { return accountID + "\x00" + key }

func copyWallet(w *Wallet) Wallet {
	out := *w
	if w.LimitMinor != nil {
		v := *w.LimitMinor
		out.LimitMinor = &v
	}
	return out
}

func copyMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

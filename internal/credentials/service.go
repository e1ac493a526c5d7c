package credentials

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"sms-platform/internal/accounts"
	"sms-platform/internal/numbers"
	"sms-platform/internal/telephony"
)

type AccountReader interface {
	Get(ctx context.Context, id string) (accounts.Account, error)
}

// Dialer builds a provider client for one set of credentials.
type Dialer func(accountSID, authToken string) telephony.Provider

type cached struct {
	sid, token string
	provider   telephony.Provider
}

// Service stores per-account provider logins and hands out clients for them.
// Clients are cached per holder so each keeps its own circuit breaker.
type Service struct {
	repo     Repository
	accounts AccountReader
	dial     Dialer
	log      *slog.Logger
	clock    func() time.Time

	mu      sync.Mutex
	clients map[string]cached
}

func NewService(repo Repository, accts AccountReader, dial Dialer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:     repo,
		accounts: accts,
		dial:     dial,
		log:      log,
		clock:    time.Now,
		clients:  map[string]cached{},
	}
}

// holder is the account whose credentials apply: the caller, or the parent of a sub.
func (s *Service) holder(ctx context.Context, accountID string) (string, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return "", err
	}
	if k, ok := a.Kind().(accounts.Sub); ok {
		return k.Parent, nil
	}
	return a.ID, nil
}

func (s *Service) manager(ctx context.Context, accountID string) (accounts.Account, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return accounts.Account{}, err
	}
	if !a.Kind().OwnsNumbers() {
		return accounts.Account{}, ErrForbidden
	}
	return a, nil
}

// Status reports whether the caller (or its parent) has credentials connected.
func (s *Service) Status(ctx context.Context, accountID string) (Status, error) {
	id, err := s.holder(ctx, accountID)
	if err != nil {
		return Status{}, err
	}
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	return c.Status(), nil
}

// Save replaces the caller's credentials. Main and admin accounts only.
func (s *Service) Save(ctx context.Context, accountID string, in Input) (Status, error) {
	a, err := s.manager(ctx, accountID)
	if err != nil {
		return Status{}, err
	}
	sid, token := strings.TrimSpace(in.AccountSID), strings.TrimSpace(in.AuthToken)
	if sid == "" || token == "" {
		return Status{}, ErrInvalidArgument
	}
	phone := ""
	if strings.TrimSpace(in.PhoneNumber) != "" {
		if phone = numbers.NormalizeE164(in.PhoneNumber); phone == "" {
			return Status{}, numbers.ErrInvalidNumber
		}
	}

	now := s.clock().UTC()
	c := Credentials{AccountID: a.ID, AccountSID: sid, AuthToken: token, PhoneNumber: phone, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Upsert(ctx, c); err != nil {
		return Status{}, err
	}
	s.forget(a.ID)
	s.log.Info("provider credentials saved", "account_id", a.ID, "account_sid", sid)
	return c.Status(), nil
}

// Disconnect removes the caller's credentials. Removing none is not an error.
func (s *Service) Disconnect(ctx context.Context, accountID string) error {
	a, err := s.manager(ctx, accountID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, a.ID); err != nil {
		return err
	}
	s.forget(a.ID)
	s.log.Info("provider credentials removed", "account_id", a.ID)
	return nil
}

// Test calls the provider with the caller's (or parent's) credentials.
func (s *Service) Test(ctx context.Context, accountID string) error {
	p, ok, err := s.ProviderFor(ctx, accountID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return p.HealthCheck(ctx)
}

// ProviderFor returns the client for the account's own credentials. ok is
// false when none are stored and the platform provider applies.
func (s *Service) ProviderFor(ctx context.Context, accountID string) (telephony.Provider, bool, error) {
	id, err := s.holder(ctx, accountID)
	if err != nil {
		return nil, false, err
	}
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if hit, ok := s.clients[id]; ok && hit.sid == c.AccountSID && hit.token == c.AuthToken {
		return hit.provider, true, nil
	}
	p := s.dial(c.AccountSID, c.AuthToken)
	s.clients[id] = cached{sid: c.AccountSID, token: c.AuthToken, provider: p}
	return p, true, nil
}

func (s *Service) forget(accountID string) {
	s.mu.Lock()
	delete(s.clients, accountID)
	s.mu.Unlock()
}

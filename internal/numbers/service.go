package numbers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sms-platform/internal/accounts"
	"sms-platform/internal/pricing"
	"sms-platform/internal/telephony"
	"sms-platform/internal/wallet"

	"github.com/google/uuid"
)

type AccountReader interface {
	Get(ctx context.Context, id string) (accounts.Account, error)
}

type Wallets interface {
	Balance(ctx context.Context, accountID string) (wallet.Wallet, error)
	SpendForPurchase(ctx context.Context, accountID string, amountMinor int64, meta map[string]string) (wallet.Transaction, error)
}

// ProviderResolver finds an account's own provider client. ok is false when the
// platform provider applies.
type ProviderResolver interface {
	ProviderFor(ctx context.Context, accountID string) (p telephony.Provider, ok bool, err error)
}

type Service struct {
	repo      Repository
	accounts  AccountReader
	wallets   Wallets
	provider  telephony.Provider
	providers ProviderResolver
	prices    *pricing.Service
	log       *slog.Logger
	clock     func() time.Time
}

func NewService(repo Repository, accts AccountReader, wallets Wallets, provider telephony.Provider, prices *pricing.Service, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:     repo,
		accounts: accts,
		wallets:  wallets,
		provider: provider,
		prices:   prices,
		log:      log,
		clock:    time.Now,
	}
}

// WithProviders makes Search and Purchase use the caller's own provider
// credentials when it has any.
func (s *Service) WithProviders(r ProviderResolver) *Service {
	s.providers = r
	return s
}

func (s *Service) providerFor(ctx context.Context, accountID string) (telephony.Provider, error) {
	if s.providers == nil {
		return s.provider, nil
	}
	p, ok, err := s.providers.ProviderFor(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.provider, nil
	}
	return p, nil
}

// Search lists numbers available at the provider. Main accounts only.
func (s *Service) Search(ctx context.Context, accountID string, req telephony.SearchRequest) ([]string, error) {
	if _, err := s.purchaser(ctx, accountID); err != nil {
		return nil, err
	}
	p, err := s.providerFor(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return p.SearchNumbers(ctx, req)
}

// Purchase buys a number at the provider and charges the first month's rent.
// If the charge fails after buying, the record is removed and the number released.
func (s *Service) Purchase(ctx context.Context, accountID, phoneNumber string) (PhoneNumber, *wallet.Transaction, error) {
	if _, err := s.purchaser(ctx, accountID); err != nil {
		return PhoneNumber{}, nil, err
	}
	e164 := NormalizeE164(phoneNumber)
	if !looksDialable(e164) {
		return PhoneNumber{}, nil, ErrInvalidNumber
	}
	if _, err := s.repo.GetByNumber(ctx, e164); err == nil {
		return PhoneNumber{}, nil, ErrNumberExists
	} else if !errors.Is(err, ErrNotFound) {
		return PhoneNumber{}, nil, err
	}

	price := s.prices.NumberRent()
	w, err := s.wallets.Balance(ctx, accountID)
	if err != nil {
		return PhoneNumber{}, nil, err
	}
	if w.BalanceMinor < price {
		return PhoneNumber{}, nil, wallet.ErrInsufficientFunds
	}

	p, err := s.providerFor(ctx, accountID)
	if err != nil {
		return PhoneNumber{}, nil, err
	}
	bought, err := p.BuyNumber(ctx, e164)
	if err != nil {
		return PhoneNumber{}, nil, err
	}

	now := s.clock().UTC()
	n := PhoneNumber{
		ID:          uuid.NewString(),
		PhoneNumber: NormalizeE164(bought.PhoneNumber),
		Country:     "US",
		OwnerID:     accountID,
		ProviderID:  bought.ProviderID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.release(ctx, p, n, "record failed")
		return PhoneNumber{}, nil, err
	}

	tx, err := s.wallets.SpendForPurchase(ctx, accountID, price, map[string]string{
		"kind":         "number",
		"phone_number": n.PhoneNumber,
		"provider_id":  n.ProviderID,
	})
	if err != nil {
		if derr := s.repo.Delete(ctx, n.ID); derr != nil {
			s.log.Error("number rollback failed", "number", n.PhoneNumber, "err", derr)
		}
		s.release(ctx, p, n, "charge failed")
		return PhoneNumber{}, nil, err
	}
	return n, &tx, nil
}

func (s *Service) release(ctx context.Context, p telephony.Provider, n PhoneNumber, reason string) {
	if n.ProviderID == "" {
		return
	}
	if err := p.ReleaseNumber(context.WithoutCancel(ctx), n.ProviderID); err != nil {
		s.log.Error("number release failed", "number", n.PhoneNumber, "provider_id", n.ProviderID, "reason", reason, "err", err)
	}
}

// AddExisting registers a number the account already holds at the provider. No charge.
func (s *Service) AddExisting(ctx context.Context, accountID, phoneNumber, country string) (PhoneNumber, error) {
	if _, err := s.purchaser(ctx, accountID); err != nil {
		return PhoneNumber{}, err
	}
	e164 := NormalizeE164(phoneNumber)
	if !looksDialable(e164) {
		return PhoneNumber{}, ErrInvalidNumber
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		country = "US"
	}
	now := s.clock().UTC()
	n := PhoneNumber{
		ID:          uuid.NewString(),
		PhoneNumber: e164,
		Country:     country,
		OwnerID:     accountID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return PhoneNumber{}, err
	}
	return n, nil
}

// ListFor returns owned numbers for main and admin accounts, assigned numbers for subs.
func (s *Service) ListFor(ctx context.Context, accountID string) ([]PhoneNumber, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a.Kind().OwnsNumbers() {
		return s.repo.ListOwnedBy(ctx, accountID)
	}
	return s.repo.ListAssignedTo(ctx, accountID)
}

// RentedNumbers lists the E.164 numbers whose rent accountID carries.
func (s *Service) RentedNumbers(ctx context.Context, accountID string) ([]string, error) {
	list, err := s.ListFor(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.PhoneNumber)
	}
	return out, nil
}

func (s *Service) CountOwned(ctx context.Context, accountID string) (int, error) {
	list, err := s.repo.ListOwnedBy(ctx, accountID)
	return len(list), err
}

// Assign hands one of ownerID's numbers to one of ownerID's sub-accounts.
func (s *Service) Assign(ctx context.Context, ownerID, numberID, subID string) (PhoneNumber, error) {
	n, err := s.repo.Get(ctx, numberID)
	if err != nil {
		return PhoneNumber{}, err
	}
	if n.OwnerID != ownerID {
		return PhoneNumber{}, ErrNotOwner
	}
	return s.assign(ctx, n, subID)
}

func (s *Service) Unassign(ctx context.Context, ownerID, numberID string) (PhoneNumber, error) {
	n, err := s.repo.Get(ctx, numberID)
	if err != nil {
		return PhoneNumber{}, err
	}
	if n.OwnerID != ownerID {
		return PhoneNumber{}, ErrNotOwner
	}
	return s.setHolders(ctx, n, n.OwnerID, "")
}

// AssignAny is the admin variant, addressed by phone number. The sub must still
// belong to the number's owner.
func (s *Service) AssignAny(ctx context.Context, phoneNumber, subID string) (PhoneNumber, error) {
	n, err := s.FindByNumber(ctx, phoneNumber)
	if err != nil {
		return PhoneNumber{}, err
	}
	return s.assign(ctx, n, subID)
}

func (s *Service) UnassignAny(ctx context.Context, phoneNumber string) (PhoneNumber, error) {
	n, err := s.FindByNumber(ctx, phoneNumber)
	if err != nil {
		return PhoneNumber{}, err
	}
	return s.setHolders(ctx, n, n.OwnerID, "")
}

// TransferOwnership moves a number to another main or admin account and clears its assignment.
func (s *Service) TransferOwnership(ctx context.Context, phoneNumber, newOwnerID string) (PhoneNumber, error) {
	n, err := s.FindByNumber(ctx, phoneNumber)
	if err != nil {
		return PhoneNumber{}, err
	}
	owner, err := s.accounts.Get(ctx, newOwnerID)
	if err != nil {
		return PhoneNumber{}, err
	}
	if !owner.Kind().OwnsNumbers() {
		return PhoneNumber{}, ErrInvalidOwner
	}
	return s.setHolders(ctx, n, owner.ID, "")
}

// UnassignAllFrom clears every number assigned to subID.
func (s *Service) UnassignAllFrom(ctx context.Context, subID string) (int, error) {
	return s.repo.UnassignAll(ctx, subID)
}

func (s *Service) List(ctx context.Context) ([]PhoneNumber, error) {
	return s.repo.List(ctx)
}

func (s *Service) FindByNumber(ctx context.Context, phoneNumber string) (PhoneNumber, error) {
	e164 := NormalizeE164(phoneNumber)
	if e164 == "" {
		return PhoneNumber{}, ErrInvalidNumber
	}
	return s.repo.GetByNumber(ctx, e164)
}

// Usable returns the number if accountID owns it or is assigned it.
func (s *Service) Usable(ctx context.Context, accountID, phoneNumber string) (PhoneNumber, error) {
	n, err := s.FindByNumber(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return PhoneNumber{}, ErrNotOwner
		}
		return PhoneNumber{}, err
	}
	if !n.UsableBy(accountID) {
		return PhoneNumber{}, ErrNotOwner
	}
	return n, nil
}

// DefaultFor picks the sending number when the caller gave none: the first owned
// number for main and admin accounts, the first assigned one for subs.
func (s *Service) DefaultFor(ctx context.Context, accountID string) (PhoneNumber, error) {
	list, err := s.ListFor(ctx, accountID)
	if err != nil {
		return PhoneNumber{}, err
	}
	if len(list) == 0 {
		return PhoneNumber{}, ErrNotFound
	}
	return list[0], nil
}

func (s *Service) assign(ctx context.Context, n PhoneNumber, subID string) (PhoneNumber, error) {
	sub, err := s.accounts.Get(ctx, subID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return PhoneNumber{}, ErrInvalidSubAccount
		}
		return PhoneNumber{}, err
	}
	if !sub.IsSubOf(n.OwnerID) {
		return PhoneNumber{}, ErrInvalidSubAccount
	}
	return s.setHolders(ctx, n, n.OwnerID, sub.ID)
}

func (s *Service) setHolders(ctx context.Context, n PhoneNumber, ownerID, assignedTo string) (PhoneNumber, error) {
	if err := s.repo.SetHolders(ctx, n.ID, ownerID, assignedTo); err != nil {
		return PhoneNumber{}, fmt.Errorf("update number %s: %w", n.PhoneNumber, err)
	}
	n.OwnerID = ownerID
	n.AssignedTo = assignedTo
	n.UpdatedAt = s.clock().UTC()
	return n, nil
}

func (s *Service) purchaser(ctx context.Context, accountID string) (accounts.Account, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return accounts.Account{}, err
	}
	if !a.Kind().CanPurchase() {
		return accounts.Account{}, ErrForbidden
	}
	return a, nil
}

package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"sms-platform/internal/auth"
	"sms-platform/internal/pricing"
	"sms-platform/internal/wallet"

	"github.com/google/uuid"
)

// Wallets is the part of the ledger the account lifecycle needs.
type Wallets interface {
	Open(ctx context.Context, accountID, parentID string, limitMinor *int64) error
	SetLimit(ctx context.Context, accountID string, limitMinor *int64) error
	SpendForPurchase(ctx context.Context, accountID string, amountMinor int64, meta map[string]string) (wallet.Transaction, error)
	Close(ctx context.Context, accountID string) error
}

type Service struct {
	repo    Repository
	wallets Wallets
	prices  *pricing.Service
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, wallets Wallets, prices *pricing.Service) *Service {
	return &Service{repo: repo, wallets: wallets, prices: prices, clock: time.Now}
}

type NewAccount struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Signup creates a main account on the free plan with an empty wallet.
func (s *Service) Signup(ctx context.Context, in NewAccount) (Account, error) {
	return s.create(ctx, in, RoleMain, "", nil)
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	a, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, auth.ErrInvalidCredentials
		}
		return Account{}, err
	}
	if err := auth.CheckPassword(a.PasswordHash, password); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	if id == "" {
		return Account{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

func (s *Service) UpdateProfile(ctx context.Context, id string, p Profile) (Account, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	a.FirstName = strings.TrimSpace(p.FirstName)
	a.LastName = strings.TrimSpace(p.LastName)
	a.Phone = strings.TrimSpace(p.Phone)
	a.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// CreateSub creates a sub-account under mainID, bounded by the plan's quota.
// limitMinor optionally caps the sub's wallet.
func (s *Service) CreateSub(ctx context.Context, mainID string, in NewAccount, limitMinor *int64) (Account, error) {
	parent, err := s.repo.Get(ctx, mainID)
	if err != nil {
		return Account{}, err
	}
	if !parent.Kind().CanManageSubs() {
		return Account{}, ErrForbidden
	}
	subs, err := s.repo.ListSubs(ctx, mainID)
	if err != nil {
		return Account{}, err
	}
	if len(subs) >= s.prices.MaxSubs(parent.Plan) {
		return Account{}, ErrSubQuotaReached
	}
	if limitMinor != nil && *limitMinor < 0 {
		return Account{}, wallet.ErrInvalidAmount
	}
	return s.create(ctx, in, RoleSub, mainID, limitMinor)
}

func (s *Service) ListSubs(ctx context.Context, mainID string) ([]Account, error) {
	return s.repo.ListSubs(ctx, mainID)
}

// SubOf loads subID and checks it belongs to mainID.
func (s *Service) SubOf(ctx context.Context, mainID, subID string) (Account, error) {
	sub, err := s.repo.Get(ctx, subID)
	if err != nil {
		return Account{}, err
	}
	if !sub.IsSubOf(mainID) {
		return Account{}, ErrNotYourSub
	}
	return sub, nil
}

// SetWalletLimit sets or clears (nil) the wallet limit of one of mainID's sub-accounts.
func (s *Service) SetWalletLimit(ctx context.Context, mainID, subID string, limitMinor *int64) error {
	if _, err := s.SubOf(ctx, mainID, subID); err != nil {
		return err
	}
	return s.wallets.SetLimit(ctx, subID, limitMinor)
}

// SetPlan switches the plan and charges the first month's rent as a purchase.
// Moving to the free plan costs nothing.
func (s *Service) SetPlan(ctx context.Context, id string, plan pricing.Plan) (Account, *wallet.Transaction, error) {
	spec, err := s.prices.Plan(plan)
	if err != nil {
		return Account{}, nil, err
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, nil, err
	}
	if !a.Kind().CanPurchase() {
		return Account{}, nil, ErrForbidden
	}
	if a.Plan == plan {
		return a, nil, nil
	}

	var charged *wallet.Transaction
	if spec.MonthlyMinor > 0 {
		tx, err := s.wallets.SpendForPurchase(ctx, id, spec.MonthlyMinor, map[string]string{
			"kind": "plan",
			"plan": string(plan),
		})
		if err != nil {
			return Account{}, nil, err
		}
		charged = &tx
	}

	a.Plan = plan
	a.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, a); err != nil {
		return Account{}, charged, err
	}
	return a, charged, nil
}

// PlanOf returns the plan an account pays for. Sub-accounts pay no plan rent of their own.
func (s *Service) PlanOf(ctx context.Context, id string) (pricing.Plan, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !a.Kind().CanPurchase() || a.Plan == "" {
		return pricing.PlanFree, nil
	}
	return a.Plan, nil
}

// EnsureAdmin creates the configured admin or promotes and re-keys an existing account.
// Sub-accounts and mains that still have subs are refused: an admin has no parent
// and no children.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Account{}, ErrInvalidArgument
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return Account{}, err
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		return s.create(ctx, NewAccount{Email: email, Password: password, FirstName: "Admin"}, RoleAdmin, "", nil)
	case err != nil:
		return Account{}, err
	}

	switch existing.Role {
	case RoleAdmin:
	case RoleMain:
		subs, err := s.repo.ListSubs(ctx, existing.ID)
		if err != nil {
			return Account{}, err
		}
		if len(subs) > 0 {
			return Account{}, ErrCannotPromote
		}
	default:
		return Account{}, ErrCannotPromote
	}

	existing.Role = RoleAdmin
	existing.PasswordHash = hash
	existing.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, existing); err != nil {
		return Account{}, err
	}
	if err := s.wallets.Open(ctx, existing.ID, "", nil); err != nil {
		return Account{}, err
	}
	return existing, nil
}

// Delete removes an account with no sub-accounts and an empty wallet.
// Number ownership checks are the caller's concern.
func (s *Service) Delete(ctx context.Context, id string) error {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.Kind().CanManageSubs() {
		subs, err := s.repo.ListSubs(ctx, id)
		if err != nil {
			return err
		}
		if len(subs) > 0 {
			return ErrHasSubAccounts
		}
	}
	if err := s.wallets.Close(ctx, id); err != nil {
		switch {
		case errors.Is(err, wallet.ErrBalanceNotZero):
			return ErrBalanceRemaining
		case !errors.Is(err, wallet.ErrAccountNotFound):
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) create(ctx context.Context, in NewAccount, role Role, parentID string, limitMinor *int64) (Account, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return Account{}, ErrInvalidArgument
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Account{}, err
	}

	now := s.clock().UTC()
	a := Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
		ParentID:     parentID,
		Plan:         pricing.PlanFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return Account{}, err
	}
	if err := s.wallets.Open(ctx, a.ID, parentID, limitMinor); err != nil {
		_ = s.repo.Delete(ctx, a.ID)
		return Account{}, err
	}
	return a, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

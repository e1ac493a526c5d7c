package payments

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"sms-platform/internal/accounts"
	"sms-platform/internal/config"
	"sms-platform/internal/wallet"

	"github.com/google/uuid"
)

type AccountReader interface {
	Get(ctx context.Context, id string) (accounts.Account, error)
}

// Wallets credits a settled checkout exactly once.
type Wallets interface {
	CreditOnce(ctx context.Context, accountID string, amountMinor int64, typ wallet.TxType, meta map[string]string, key string) (wallet.Transaction, bool, error)
}

type Service struct {
	repo    Repository
	accts   AccountReader
	wallets Wallets
	cfg     config.PaymentsConfig
	log     *slog.Logger
	clock   func() time.Time

	// GatewayURL is where JazzCash redirect forms post to.
	GatewayURL string
	// ReturnURL is the pp_ReturnURL the gateway posts the result back to.
	ReturnURL string
}

func NewService(repo Repository, accts AccountReader, wallets Wallets, cfg config.PaymentsConfig, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:       repo,
		accts:      accts,
		wallets:    wallets,
		cfg:        cfg,
		log:        log,
		clock:      time.Now,
		GatewayURL: JazzCashSandboxURL,
	}
}

func (s *Service) configured(m Method) bool {
	switch m {
	case MethodJazzCash:
		return s.cfg.JazzCashMerchantID != "" && s.cfg.JazzCashIntegritySalt != ""
	case MethodEasyPaisa:
		return s.cfg.EasyPaisaMerchantID != ""
	}
	return false
}

// Start records a pending checkout. When the method has no merchant configured
// the checkout is still returned together with ErrMethodNotConfigured.
// Only JazzCash produces a redirect form.
func (s *Service) Start(ctx context.Context, accountID string, method Method, amountMinor int64) (Checkout, *Redirect, error) {
	if amountMinor <= 0 {
		return Checkout{}, nil, wallet.ErrInvalidAmount
	}
	if _, ok := ParseMethod(string(method)); !ok {
		return Checkout{}, nil, ErrUnknownMethod
	}
	acct, err := s.accts.Get(ctx, accountID)
	if err != nil {
		return Checkout{}, nil, err
	}
	if acct.Role != accounts.RoleMain {
		return Checkout{}, nil, ErrForbidden
	}

	now := s.clock().UTC()
	c := Checkout{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		AmountMinor: amountMinor,
		Method:      method,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if method == MethodJazzCash {
		c.ProviderRef = jazzCashRef(c.ID)
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Checkout{}, nil, err
	}
	if !s.configured(method) {
		return c, nil, ErrMethodNotConfigured
	}
	if method != MethodJazzCash {
		return c, nil, nil
	}
	return c, s.jazzCashForm(c, now), nil
}

func (s *Service) jazzCashForm(c Checkout, now time.Time) *Redirect {
	fields := map[string]string{
		"pp_Version":           "1.1",
		"pp_TxnType":           "MWALLET",
		"pp_Language":          "EN",
		"pp_MerchantID":        s.cfg.JazzCashMerchantID,
		"pp_Password":          s.cfg.JazzCashPassword,
		"pp_TxnRefNo":          c.ProviderRef,
		"pp_Amount":            strconv.FormatInt(c.AmountMinor, 10),
		"pp_TxnCurrency":       "PKR",
		"pp_TxnDateTime":       now.Format(jazzCashTimeFmt),
		"pp_TxnExpiryDateTime": now.Add(24 * time.Hour).Format(jazzCashTimeFmt),
		"pp_BillReference":     "wallet",
		"pp_Description":       "Wallet top-up",
		"pp_ReturnURL":         s.ReturnURL,
	}
	fields[jazzCashHashField] = SignJazzCash(fields, s.cfg.JazzCashIntegritySalt)
	return &Redirect{URL: s.GatewayURL, Fields: fields}
}

// CompleteJazzCash applies the gateway's result post. Repeated posts for a
// settled checkout return it unchanged and never credit twice.
func (s *Service) CompleteJazzCash(ctx context.Context, fields map[string]string) (Checkout, error) {
	if !s.configured(MethodJazzCash) {
		return Checkout{}, ErrMethodNotConfigured
	}
	if !validJazzCash(fields, s.cfg.JazzCashIntegritySalt) {
		return Checkout{}, ErrBadSignature
	}
	c, err := s.repo.GetByRef(ctx, strings.TrimSpace(fields["pp_TxnRefNo"]))
	if err != nil {
		return Checkout{}, err
	}
	if c.Status != StatusPending {
		return c, nil
	}

	if fields["pp_ResponseCode"] != jazzCashSuccess {
		s.log.Info("jazzcash checkout failed", "checkout_id", c.ID, "code", fields["pp_ResponseCode"], "message", fields["pp_ResponseMessage"])
		return s.settle(ctx, c, StatusFailed)
	}
	if amt, err := strconv.ParseInt(fields["pp_Amount"], 10, 64); err != nil || amt != c.AmountMinor {
		return Checkout{}, ErrAmountMismatch
	}

	_, _, err = s.wallets.CreditOnce(ctx, c.AccountID, c.AmountMinor, wallet.TxDeposit, map[string]string{
		"checkout_id":  c.ID,
		"method":       string(c.Method),
		"provider_ref": c.ProviderRef,
	}, "checkout:"+c.ID)
	if err != nil {
		return Checkout{}, err
	}
	return s.settle(ctx, c, StatusCompleted)
}

func (s *Service) settle(ctx context.Context, c Checkout, status Status) (Checkout, error) {
	if _, err := s.repo.Settle(ctx, c.ID, status); err != nil {
		return Checkout{}, err
	}
	return s.repo.Get(ctx, c.ID)
}

func (s *Service) Get(ctx context.Context, accountID, id string) (Checkout, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Checkout{}, err
	}
	if c.AccountID != accountID {
		return Checkout{}, ErrNotFound
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, accountID string) ([]Checkout, error) {
	return s.repo.ListFor(ctx, accountID, 100)
}

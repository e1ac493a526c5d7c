package reporting

import (
	"context"
	"errors"
	"time"

	"sms-platform/internal/messaging"
	"sms-platform/internal/wallet"
)

const (
	seriesDays   = 30
	recentLimit  = 20
	ledgerWindow = 1000
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Wallets and Messages are the read sides reporting aggregates over.
type Wallets interface {
	Balance(ctx context.Context, accountID string) (wallet.Wallet, error)
	Transactions(ctx context.Context, accountID string, limit int) ([]wallet.Transaction, error)
}

type Messages interface {
	NumberIDs(ctx context.Context, accountID string) ([]string, error)
	Activity(ctx context.Context, numberIDs []string, days int) (int, []messaging.DailyCount, error)
	RecentFor(ctx context.Context, numberIDs []string, limit int) ([]messaging.Message, error)
}

type Service struct {
	wallets  Wallets
	messages Messages
}

func NewService(wallets Wallets, messages Messages) *Service {
	return &Service{wallets: wallets, messages: messages}
}

// Overview counts the numbers the account owns (main) or is assigned (sub).
func (s *Service) Overview(ctx context.Context, accountID string) (Overview, error) {
	if accountID == "" {
		return Overview{}, ErrInvalidRequest
	}
	w, err := s.wallets.Balance(ctx, accountID)
	if err != nil {
		return Overview{}, err
	}
	ids, err := s.messages.NumberIDs(ctx, accountID)
	if err != nil {
		return Overview{}, err
	}
	total, series, err := s.messages.Activity(ctx, ids, seriesDays)
	if err != nil {
		return Overview{}, err
	}
	recent, err := s.messages.RecentFor(ctx, ids, recentLimit)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		WalletBalanceMinor: w.BalanceMinor,
		WalletBalance:      wallet.FormatMinor(w.BalanceMinor),
		NumbersCount:       len(ids),
		TotalSent:          total,
		Series:             series,
		Recent:             recent,
	}, nil
}

// SpendSummary looks at the newest ledgerWindow transactions only.
func (s *Service) SpendSummary(ctx context.Context, accountID string, r TimeRange) (SpendSummary, error) {
	if accountID == "" {
		return SpendSummary{}, ErrInvalidRequest
	}
	if r.To.IsZero() {
		r.To = time.Now().UTC()
	}
	if r.From.IsZero() {
		r.From = r.To.AddDate(0, 0, -seriesDays)
	}
	if !r.To.After(r.From) {
		return SpendSummary{}, ErrInvalidRequest
	}

	txs, err := s.wallets.Transactions(ctx, accountID, ledgerWindow)
	if err != nil {
		return SpendSummary{}, err
	}

	out := SpendSummary{AccountID: accountID, Range: r}
	for _, t := range txs {
		if t.CreatedAt.Before(r.From) || !t.CreatedAt.Before(r.To) {
			continue
		}
		if t.Meta["admin_id"] != "" {
			out.AdminAdjustMinor += t.Signed()
		}
		if t.Direction == wallet.DirectionCredit {
			out.TotalCreditMinor += t.AmountMinor
			continue
		}
		out.TotalDebitMinor += t.AmountMinor
		switch t.Type {
		case wallet.TxSMS:
			out.SMSDebitMinor += t.AmountMinor
		case wallet.TxPurchase:
			out.PurchaseDebitMinor += t.AmountMinor
		case wallet.TxTransfer:
			if t.Meta["admin_id"] == "" {
				out.TransferOutMinor += t.AmountMinor
			}
		}
	}
	out.NetDeltaMinor = out.TotalCreditMinor - out.TotalDebitMinor
	return out, nil
}

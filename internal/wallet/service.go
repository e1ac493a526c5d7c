package wallet

import (
	"context"
	"errors"
	"time"

	"sms-platform/internal/pricing"
	"sms-platform/pkg/metrics"

	"github.com/google/uuid"
)

// Holdings reports what an account rents: its plan and the numbers it owns
// (main, admin) or is assigned (sub).
type Holdings interface {
	PlanOf(ctx context.Context, accountID string) (pricing.Plan, error)
	RentedNumbers(ctx context.Context, accountID string) ([]string, error)
}

// Ledger is the only component that changes balances.
//
// Every operation checks all of its preconditions before touching the store,
// then hands the store one batch. The store re-checks the balance guards
// atomically, so a precondition that races with another request still fails
// cleanly instead of producing a negative balance.
type Ledger struct {
	store    Store
	prices   *pricing.Service
	holdings Holdings
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewLedger(store Store, prices *pricing.Service, holdings Holdings) *Ledger {
	return &Ledger{store: store, prices: prices, holdings: holdings, clock: time.Now}
}

// Open creates an empty wallet for a new account. parentID is set for sub-accounts.
func (l *Ledger) Open(ctx context.Context, accountID, parentID string, limitMinor *int64) error {
	if limitMinor != nil && *limitMinor < 0 {
		return ErrInvalidAmount
	}
	return l.store.Open(ctx, Wallet{AccountID: accountID, ParentID: parentID, LimitMinor: limitMinor})
}

func (l *Ledger) Balance(ctx context.Context, accountID string) (Wallet, error) {
	return l.store.Get(ctx, accountID)
}

func (l *Ledger) Transactions(ctx context.Context, accountID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	if _, err := l.store.Get(ctx, accountID); err != nil {
		return nil, err
	}
	return l.store.Transactions(ctx, accountID, limit)
}

// SetLimit sets or clears (nil) a wallet limit.
func (l *Ledger) SetLimit(ctx context.Context, accountID string, limitMinor *int64) error {
	if limitMinor != nil && *limitMinor < 0 {
		return ErrInvalidAmount
	}
	return l.store.SetLimit(ctx, accountID, limitMinor)
}

// Close removes an empty wallet.
func (l *Ledger) Close(ctx context.Context, accountID string) error {
	return l.store.Close(ctx, accountID)
}

func (l *Ledger) Credit(ctx context.Context, accountID string, amountMinor int64, typ TxType, meta map[string]string) (Transaction, error) {
	tx, err := l.credit(ctx, accountID, amountMinor, typ, meta, "")
	metrics.RecordLedger("credit", string(typ), amountMinor, err)
	return tx, err
}

// CreditOnce credits at most once per (account, key). A repeated key returns
// the original transaction and created=false.
func (l *Ledger) CreditOnce(ctx context.Context, accountID string, amountMinor int64, typ TxType, meta map[string]string, key string) (Transaction, bool, error) {
	if key == "" {
		tx, err := l.Credit(ctx, accountID, amountMinor, typ, meta)
		return tx, err == nil, err
	}
	if existing, ok, err := l.store.FindByIdempotency(ctx, accountID, key); err != nil {
		return Transaction{}, false, err
	} else if ok {
		return existing, false, nil
	}

	tx, err := l.credit(ctx, accountID, amountMinor, typ, meta, key)
	if errors.Is(err, ErrDuplicate) {
		// Lost a race with a concurrent delivery of the same key.
		existing, ok, ferr := l.store.FindByIdempotency(ctx, accountID, key)
		if ferr != nil {
			return Transaction{}, false, ferr
		}
		if ok {
			return existing, false, nil
		}
	}
	metrics.RecordLedger("credit", string(typ), amountMinor, err)
	return tx, err == nil, err
}

func (l *Ledger) credit(ctx context.Context, accountID string, amountMinor int64, typ TxType, meta map[string]string, key string) (Transaction, error) {
	if amountMinor <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if !typ.Valid() {
		return Transaction{}, ErrInvalidTxType
	}
	if _, err := l.store.Get(ctx, accountID); err != nil {
		return Transaction{}, err
	}

	tx := l.newTx(accountID, typ, DirectionCredit, amountMinor, meta)
	tx.IdempotencyKey = key
	out, err := l.store.Apply(ctx, []Entry{{DeltaMinor: amountMinor, Tx: tx}})
	if err != nil {
		return Transaction{}, err
	}
	return out[0], nil
}

func (l *Ledger) Debit(ctx context.Context, accountID string, amountMinor int64, typ TxType, meta map[string]string) (Transaction, error) {
	tx, err := l.debit(ctx, accountID, amountMinor, typ, meta)
	metrics.RecordLedger("debit", string(typ), amountMinor, err)
	return tx, err
}

func (l *Ledger) debit(ctx context.Context, accountID string, amountMinor int64, typ TxType, meta map[string]string) (Transaction, error) {
	if amountMinor <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if !typ.Valid() {
		return Transaction{}, ErrInvalidTxType
	}
	w, err := l.store.Get(ctx, accountID)
	if err != nil {
		return Transaction{}, err
	}
	if w.BalanceMinor < amountMinor {
		return Transaction{}, ErrInsufficientFunds
	}

	tx := l.newTx(accountID, typ, DirectionDebit, amountMinor, meta)
	out, err := l.store.Apply(ctx, []Entry{{DeltaMinor: -amountMinor, Tx: tx}})
	if err != nil {
		return Transaction{}, err
	}
	return out[0], nil
}

// SpendForPurchase is a purchase debit; meta must describe what was bought.
func (l *Ledger) SpendForPurchase(ctx context.Context, accountID string, amountMinor int64, meta map[string]string) (Transaction, error) {
	if len(meta) == 0 {
		metrics.RecordLedger("purchase", string(TxPurchase), amountMinor, ErrPurchaseMetaRequired)
		return Transaction{}, ErrPurchaseMetaRequired
	}
	tx, err := l.debit(ctx, accountID, amountMinor, TxPurchase, meta)
	metrics.RecordLedger("purchase", string(TxPurchase), amountMinor, err)
	return tx, err
}

// TransferToSub moves funds from a main account to one of its sub-accounts.
// Both legs and both transactions are applied in one store batch.
func (l *Ledger) TransferToSub(ctx context.Context, mainID, subID string, amountMinor int64) (Transfer, error) {
	t, err := l.transferToSub(ctx, mainID, subID, amountMinor)
	metrics.RecordLedger("transfer", string(TxTransfer), amountMinor, err)
	return t, err
}

func (l *Ledger) transferToSub(ctx context.Context, mainID, subID string, amountMinor int64) (Transfer, error) {
	if amountMinor <= 0 {
		return Transfer{}, ErrInvalidAmount
	}
	from, err := l.store.Get(ctx, mainID)
	if err != nil {
		return Transfer{}, err
	}
	to, err := l.store.Get(ctx, subID)
	if err != nil {
		return Transfer{}, err
	}
	if to.ParentID == "" || to.ParentID != from.AccountID {
		return Transfer{}, ErrNotASubAccount
	}
	if from.BalanceMinor < amountMinor {
		return Transfer{}, ErrInsufficientFunds
	}
	if to.LimitMinor != nil && to.BalanceMinor+amountMinor > *to.LimitMinor {
		return Transfer{}, ErrLimitExceeded
	}

	out := l.newTx(mainID, TxTransfer, DirectionDebit, amountMinor, map[string]string{"to": subID})
	in := l.newTx(subID, TxTransfer, DirectionCredit, amountMinor, map[string]string{"from": mainID})
	txs, err := l.store.Apply(ctx, []Entry{
		{DeltaMinor: -amountMinor, Tx: out},
		{DeltaMinor: amountMinor, EnforceLimit: true, Tx: in},
	})
	if err != nil {
		return Transfer{}, err
	}
	return Transfer{Out: txs[0], In: txs[1]}, nil
}

// Summary is a pure read: balance, plan rent and rent per held number.
func (l *Ledger) Summary(ctx context.Context, accountID string) (Summary, error) {
	w, err := l.store.Get(ctx, accountID)
	if err != nil {
		return Summary{}, err
	}

	plan := pricing.PlanFree
	var numbers []string
	if l.holdings != nil {
		if plan, err = l.holdings.PlanOf(ctx, accountID); err != nil {
			return Summary{}, err
		}
		if numbers, err = l.holdings.RentedNumbers(ctx, accountID); err != nil {
			return Summary{}, err
		}
	}

	q := l.prices.Quote(plan, len(numbers))
	resources := make([]ResourceRent, 0, len(numbers))
	for _, n := range numbers {
		resources = append(resources, ResourceRent{Kind: "number", Ref: n, MonthlyMinor: l.prices.NumberRent()})
	}
	return Summary{
		AccountID:     accountID,
		BalanceMinor:  w.BalanceMinor,
		LimitMinor:    w.LimitMinor,
		Plan:          string(plan),
		PlanMinor:     q.PlanMinor,
		ResourceMinor: q.ResourceMinor,
		TotalMinor:    q.TotalMinor,
		Resources:     resources,
	}, nil
}

func (l *Ledger) newTx(accountID string, typ TxType, dir Direction, amountMinor int64, meta map[string]string) Transaction {
	return Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Type:        typ,
		Direction:   dir,
		AmountMinor: amountMinor,
		Meta:        meta,
		CreatedAt:   l.clock().UTC(),
	}
}

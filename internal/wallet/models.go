package wallet

import "time"

// Wallet is the money state of one account.
// Invariant: BalanceMinor >= 0 and it only changes through Store.Apply,
// which always writes a Transaction alongside the balance change.
type Wallet struct {
	AccountID string `json:"account_id"`

	// ParentID is set only for sub-accounts and never changes.
	ParentID string `json:"parent_id,omitempty"`

	BalanceMinor int64 `json:"balance_minor"`

	// LimitMinor caps the balance a parent may transfer a sub-account up to.
	LimitMinor *int64 `json:"limit_minor,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

type TxType string

const (
	TxDeposit  TxType = "deposit"
	TxTransfer TxType = "transfer"
	TxPurchase TxType = "purchase"
	TxSMS      TxType = "sms"
)

func (t TxType) Valid() bool {
	switch t {
	case TxDeposit, TxTransfer, TxPurchase, TxSMS:
		return true
	default:
		return false
	}
}

type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Transaction is an immutable ledger row. AmountMinor is always a positive magnitude;
// Direction says which way it moved the balance.
type Transaction struct {
	ID          string            `json:"id"`
	AccountID   string            `json:"account_id"`
	Type        TxType            `json:"type"`
	Direction   Direction         `json:"direction"`
	AmountMinor int64             `json:"amount_minor"`
	Meta        map[string]string `json:"meta,omitempty"`

	// IdempotencyKey is unique per account when set.
	IdempotencyKey string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Signed returns the balance delta this transaction represents.
func (t Transaction) Signed() int64 {
	if t.Direction == DirectionDebit {
		return -t.AmountMinor
	}
	return t.AmountMinor
}

// Entry is one leg of an atomic batch applied by Store.Apply.
type Entry struct {
	DeltaMinor int64

	// EnforceLimit additionally guards balance+delta <= limit when the wallet has a limit.
	EnforceLimit bool

	Tx Transaction
}

// Transfer is the pair of rows written by TransferToSub.
type Transfer struct {
	Out Transaction `json:"out"`
	In  Transaction `json:"in"`
}

type ResourceRent struct {
	Kind         string `json:"kind"`
	Ref          string `json:"ref"`
	MonthlyMinor int64  `json:"monthly_minor"`
}

// Summary is the wallet overview: balance plus the monthly rent of everything the account holds.
type Summary struct {
	AccountID     string         `json:"account_id"`
	BalanceMinor  int64          `json:"balance_minor"`
	LimitMinor    *int64         `json:"limit_minor,omitempty"`
	Plan          string         `json:"plan"`
	PlanMinor     int64          `json:"plan_rent_minor"`
	ResourceMinor int64          `json:"resource_rent_minor"`
	TotalMinor    int64          `json:"total_minor"`
	Resources     []ResourceRent `json:"per_resource"`
}

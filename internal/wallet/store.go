package wallet

import "context"

// Store persists wallets and their transactions.
//
// Apply is the only way balances change. It applies every entry or none:
// each leg is a guarded increment (balance+delta >= 0, and <= limit when
// EnforceLimit is set) written together with its Transaction.
type Store interface {
	Open(ctx context.Context, w Wallet) error
	Get(ctx context.Context, accountID string) (Wallet, error)
	Apply(ctx context.Context, entries []Entry) ([]Transaction, error)
	SetLimit(ctx context.Context, accountID string, limitMinor *int64) error
	Transactions(ctx context.Context, accountID string, limit int) ([]Transaction, error)
	FindByIdempotency(ctx context.Context, accountID, key string) (Transaction, bool, error)
	Close(ctx context.Context, accountID string) error
}

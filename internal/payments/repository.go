package payments

import "context"

type Repository interface {
	Create(ctx context.Context, c Checkout) error
	Get(ctx context.Context, id string) (Checkout, error)
	GetByRef(ctx context.Context, providerRef string) (Checkout, error)

	// Settle moves a pending checkout to status. It reports false when the
	// checkout had already left pending.
	Settle(ctx context.Context, id string, status Status) (bool, error)

	ListFor(ctx context.Context, accountID string, limit int) ([]Checkout, error)
}

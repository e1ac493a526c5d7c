package accounts

import "context"

// Repository abstracts account persistence.
// Emails are stored lower-cased and are unique.
type Repository interface {
	Create(ctx context.Context, a Account) error
	Get(ctx context.Context, id string) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	Update(ctx context.Context, a Account) error
	ListSubs(ctx context.Context, parentID string) ([]Account, error)
	List(ctx context.Context) ([]Account, error)
	Delete(ctx context.Context, id string) error
}

package credentials

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("no provider credentials configured")
	ErrInvalidArgument = errors.New("account sid and auth token are required")
	ErrForbidden       = errors.New("only main accounts can manage provider credentials")
)

type Repository interface {
	Get(ctx context.Context, accountID string) (Credentials, error)
	Upsert(ctx context.Context, c Credentials) error
	Delete(ctx context.Context, accountID string) error
}

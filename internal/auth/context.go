package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxAccountID ctxKey = iota
	ctxParentID
	ctxRole
)

// Identity is the authenticated caller.
type Identity struct {
	AccountID string
	ParentID  string
	Role      string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, ctxAccountID, id.AccountID)
	ctx = context.WithValue(ctx, ctxParentID, id.ParentID)
	ctx = context.WithValue(ctx, ctxRole, id.Role)
	return ctx
}

func AccountID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxAccountID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("account_id not in context")
}

func Role(ctx context.Context) (string, error) {
	v := ctx.Value(ctxRole)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}

// IdentityFrom returns the caller; ok is false when no account is in context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	acct, err := AccountID(ctx)
	if err != nil {
		return Identity{}, false
	}
	role, _ := Role(ctx)
	parent, _ := ctx.Value(ctxParentID).(string)
	return Identity{AccountID: acct, ParentID: parent, Role: role}, true
}

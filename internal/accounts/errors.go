package accounts

import "errors"

var (
	ErrNotFound         = errors.New("account not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrForbidden        = errors.New("operation not allowed for this account")
	ErrSubQuotaReached  = errors.New("sub-account limit for current plan reached")
	ErrNotYourSub       = errors.New("not your sub-account")
	ErrOwnsNumbers      = errors.New("account owns numbers; transfer ownership before deletion")
	ErrHasSubAccounts   = errors.New("account has sub-accounts; delete them first")
	ErrBalanceRemaining = errors.New("account wallet is not empty")
	ErrCannotPromote    = errors.New("only a main account without sub-accounts can become admin")
)

package wallet

import "errors"

var (
	ErrInvalidAmount     = errors.New("amount must be a positive value with at most 2 decimals")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrLimitExceeded     = errors.New("sub-account wallet limit exceeded")
	ErrNotASubAccount    = errors.New("target is not a sub-account of the caller")
	ErrAccountNotFound   = errors.New("account not found")

	ErrInvalidTxType        = errors.New("invalid transaction type")
	ErrPurchaseMetaRequired = errors.New("purchase metadata is required")
	ErrDuplicate            = errors.New("duplicate idempotency key")
	ErrBalanceNotZero       = errors.New("wallet balance is not zero")
)

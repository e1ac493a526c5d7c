package payments

import "errors"

var (
	ErrNotFound            = errors.New("checkout not found")
	ErrUnknownMethod       = errors.New("unknown payment method")
	ErrMethodNotConfigured = errors.New("payment method not configured")
	ErrBadSignature        = errors.New("invalid gateway signature")
	ErrAmountMismatch      = errors.New("gateway amount does not match checkout")
	ErrForbidden           = errors.New("only main accounts can top up")
)

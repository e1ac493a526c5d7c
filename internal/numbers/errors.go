package numbers

import "errors"

var (
	ErrNotFound          = errors.New("number not found")
	ErrNumberExists      = errors.New("number already exists")
	ErrInvalidNumber     = errors.New("invalid phone number")
	ErrForbidden         = errors.New("only main accounts can buy or add numbers")
	ErrNotOwner          = errors.New("not the owner of this number")
	ErrInvalidSubAccount = errors.New("invalid sub-account")
	ErrInvalidOwner      = errors.New("new owner must be a main or admin account")
)

package messaging

import "errors"

var (
	ErrInvalidArgument  = errors.New("to and body required")
	ErrNoSendingNumber  = errors.New("no sending number available")
	ErrNumberNotAllowed = errors.New("not allowed to use this number")
)

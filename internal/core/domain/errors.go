package domain

import "errors"

var (
	ErrUnknownRole           = errors.New("unknown role")
	ErrOperationNotPermitted = errors.New("operation not permitted for role")
	ErrNoSession             = errors.New("no active session")
	ErrIdentityUnknown       = errors.New("session identity unknown")
	ErrTransport             = errors.New("network error")
)

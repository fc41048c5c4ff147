package memdb

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrStoreEmailTaken    = errors.New("store email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrStoreNotFound      = errors.New("store not found")
	ErrOwnerNotFound      = errors.New("owner not found")
	ErrOwnerHasStore      = errors.New("owner already has a store")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrRatingRange        = errors.New("rating must be between 1 and 5")
)

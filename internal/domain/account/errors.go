package account

import "errors"

var (
	ErrNotFound             = errors.New("account not found")
	ErrEmailExists          = errors.New("account email already exists")
	ErrInvalidName          = errors.New("invalid account name")
	ErrInvalidEmail         = errors.New("invalid account email")
	ErrInvalidRole          = errors.New("invalid account role")
	ErrAvailabilityConflict = errors.New("driver availability changed concurrently")
)

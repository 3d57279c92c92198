package ride

import "errors"

var (
	ErrNotFound        = errors.New("ride not found")
	ErrStatusConflict  = errors.New("ride status changed concurrently")
	ErrAlreadyAssigned = errors.New("ride already has a driver assigned")
)

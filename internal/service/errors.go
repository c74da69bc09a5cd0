package service

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoHandler        = errors.New("no contract handler configured")
	ErrSyncLeaseHeld    = errors.New("a sync run is already in progress")
)

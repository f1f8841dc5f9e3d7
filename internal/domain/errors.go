package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadPayload   = errors.New("unexpected payload shape")
	ErrRateLimited  = errors.New("rate limited")
	ErrLockHeld     = errors.New("lock already held")
)

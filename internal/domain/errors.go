package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrUnknownEnvironment = errors.New("unknown environment")
	ErrFeedClosed         = errors.New("change feed closed")
)

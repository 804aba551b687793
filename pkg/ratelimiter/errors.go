package ratelimiter

import "errors"

var (
	// ErrInvalidConfig indicates a non-positive limit or window.
	ErrInvalidConfig = errors.New("ratelimiter.invalid_config")

	// ErrEmptyKey indicates Enforce was called without a key.
	ErrEmptyKey = errors.New("ratelimiter.empty_key")
)

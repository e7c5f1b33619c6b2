package subscription

import "errors"

var (
	// ErrNotOwner is returned when a subscription exists but belongs to a
	// different user. Handlers map it to 404 to avoid leaking existence.
	ErrNotOwner = errors.New("subscription not owned by user")

	// ErrInvalidInput wraps request conversion failures (bad dates,
	// unknown category). Handlers map it to 400.
	ErrInvalidInput = errors.New("invalid subscription data")
)

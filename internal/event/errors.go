package event

import "errors"

// Common errors for bus operations.
var (
	// ErrNilHandler indicates a subscription with no handler.
	ErrNilHandler = errors.New("nil handler")

	// ErrNotSubscribed indicates an unsubscribe for an unknown subscription.
	ErrNotSubscribed = errors.New("not subscribed")
)

package registry

import "errors"

var (
	// ErrInvalidFilter indicates a syntactically invalid filter expression.
	ErrInvalidFilter = errors.New("registry: invalid filter")

	// ErrUnknownSubscription indicates an Unsubscribe for a handle the
	// registry does not know, typically because it was already cancelled.
	ErrUnknownSubscription = errors.New("registry: unknown subscription")
)

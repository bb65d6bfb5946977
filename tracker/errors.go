package tracker

import "errors"

var (
	// ErrInvalidCriterion indicates a criterion that cannot be turned into a
	// registry subscription: a zero Criterion, an empty type name, a nil
	// reference, or a filter expression the registry rejects. This is a
	// programming error on the caller's side and is reported at
	// construction time, never later.
	ErrInvalidCriterion = errors.New("tracker: invalid criterion")

	// ErrNegativeTimeout indicates a negative timeout passed to
	// WaitForFirst. Zero means wait indefinitely; negative is rejected
	// before any blocking is attempted.
	ErrNegativeTimeout = errors.New("tracker: negative timeout")
)

package model

import "errors"

var (
	// ErrAddressNotFound reports that a stable path does not name a position
	// in the current hierarchy.
	ErrAddressNotFound = errors.New("address not found in model hierarchy")

	// ErrProvider wraps failures reported by (or recovered from) the provider.
	ErrProvider = errors.New("provider error")

	// ErrUnavailable reports that the provider was released or is gone.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrInvalidIndex reports an operation on an invalid or detached index.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrReadOnly reports an edit against a provider which is not a Setter.
	ErrReadOnly = errors.New("provider does not accept edits")
)

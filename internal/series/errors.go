package series

import "errors"

// Errors returned by the series package.
var (
	// ErrUnknownHandle is returned when a handle was never issued or its cache was destroyed.
	ErrUnknownHandle = errors.New("unknown source handle")

	// ErrNotAttached is returned when detaching a dependent that is not bound to a source.
	ErrNotAttached = errors.New("dependent is not attached")

	// ErrAlreadyAttached is returned when attaching a dependent that is already bound.
	ErrAlreadyAttached = errors.New("dependent is already attached")

	// ErrNilSource is returned when registering a nil source.
	ErrNilSource = errors.New("source is nil")
)

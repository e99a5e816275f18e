package store

import "errors"

var (
	// ErrNotFound indicates no fund state has been saved yet.
	ErrNotFound = errors.New("store: fund state not found")

	// ErrNilState indicates Save was called with a nil state.
	ErrNilState = errors.New("store: nil state")

	// ErrCorrupt indicates a stored record could not be decoded.
	ErrCorrupt = errors.New("store: corrupt record")
)

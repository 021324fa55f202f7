package search

import "errors"

// Sentinel kinds for search errors.
var (
	// ErrFetchFailed is the single failure kind surfaced by the Error state.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrInvalidTransition is returned when an event is not valid in the current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnknownPlayer is returned when focusing a player absent from the results.
	ErrUnknownPlayer = errors.New("player not in results")

	// ErrClosed is returned for events delivered after Close.
	ErrClosed = errors.New("search machine closed")
)

package repository

import "errors"

// Sentinel kinds for directory errors.
var (
	ErrNotFound      = errors.New("player not found")
	ErrInvalidLimit  = errors.New("invalid search limit")
	ErrInvalidPlayer = errors.New("invalid player")
	ErrSeedFormat    = errors.New("invalid player seed")
)

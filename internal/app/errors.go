package service

import (
	"errors"

	"github.com/okian/aoelookup/internal/adapters/repository"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")

	// ErrPlayerNotFound is the directory's not-found kind.
	ErrPlayerNotFound = repository.ErrNotFound
)

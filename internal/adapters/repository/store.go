// Package repository provides the player directory consulted by searches.
package repository

import (
	"context"

	"github.com/okian/aoelookup/internal/domain/model"
)

// Store provides read/write access to the player directory.
type Store interface {
	// Search returns up to limit players matching query, best match first.
	// A numeric query also matches a profile id exactly.
	Search(ctx context.Context, query string, limit int) ([]model.Player, error)

	// Get returns the player with profileID or ErrNotFound.
	Get(ctx context.Context, profileID int64) (model.Player, error)

	// Put inserts or replaces a player.
	Put(ctx context.Context, p model.Player) error

	// Count returns the number of players in the directory.
	Count(ctx context.Context) int
}

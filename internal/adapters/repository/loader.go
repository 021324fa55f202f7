package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/okian/aoelookup/internal/domain/model"
)

// seedFile is the on-disk shape of a player seed:
//
//	{"players": [{"profile_id": 1, "name": "...", "leaderboards": {...}}]}
type seedFile struct {
	Players []model.Player `json:"players"`
}

// LoadFile reads players from a JSON seed file.
func LoadFile(_ context.Context, path string) ([]model.Player, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read player seed: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSeedFormat, path, err)
	}
	return seed.Players, nil
}

// Seed puts every player into store, stopping at the first invalid one.
func Seed(ctx context.Context, store Store, players []model.Player) error {
	for i, p := range players {
		if err := store.Put(ctx, p); err != nil {
			return fmt.Errorf("seed player #%d: %w", i, err)
		}
	}
	return nil
}

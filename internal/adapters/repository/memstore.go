package repository

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/aoelookup/internal/domain/model"
	"github.com/okian/aoelookup/pkg/metrics"
)

const defaultRandomSeed = 42

// Match quality, best first.
const (
	matchProfileID = iota
	matchExactName
	matchNamePrefix
	matchNameSubstring
)

// MemoryStore is an in-memory Store. Names are matched case-insensitively;
// results are ordered by match quality, then name, then profile id.
type MemoryStore struct {
	mu      sync.RWMutex
	players map[int64]model.Player
	names   map[int64]string // lower-cased names, kept alongside players

	minLatency time.Duration
	maxLatency time.Duration
	seed       int64

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewMemoryStore creates an empty directory.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		players: make(map[int64]model.Player),
		names:   make(map[int64]string),
		seed:    defaultRandomSeed,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.rng = rand.New(rand.NewSource(s.seed)) //nolint:gosec // latency jitter only

	return s
}

// Search implements Store.
func (s *MemoryStore) Search(ctx context.Context, query string, limit int) ([]model.Player, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	start := time.Now()
	defer func() {
		metrics.RecordDirectoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []model.Player{}, nil
	}
	id, idErr := strconv.ParseInt(q, 10, 64)

	type hit struct {
		p     model.Player
		name  string
		grade int
	}

	s.mu.RLock()
	hits := make([]hit, 0)
	for pid, p := range s.players {
		name := s.names[pid]
		grade := -1
		switch {
		case idErr == nil && pid == id:
			grade = matchProfileID
		case name == q:
			grade = matchExactName
		case strings.HasPrefix(name, q):
			grade = matchNamePrefix
		case strings.Contains(name, q):
			grade = matchNameSubstring
		}
		if grade >= 0 {
			hits = append(hits, hit{p: p, name: name, grade: grade})
		}
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.grade != b.grade {
			return a.grade < b.grade
		}
		if a.name != b.name {
			return a.name < b.name
		}
		return a.p.ProfileID < b.p.ProfileID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]model.Player, len(hits))
	for i, h := range hits {
		out[i] = h.p.Clone()
	}
	return out, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, profileID int64) (model.Player, error) {
	s.mu.RLock()
	p, ok := s.players[profileID]
	s.mu.RUnlock()
	if !ok {
		return model.Player{}, fmt.Errorf("%w: profile %d", ErrNotFound, profileID)
	}
	return p.Clone(), nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, p model.Player) error {
	if p.ProfileID <= 0 {
		return fmt.Errorf("%w: profile_id must be positive", ErrInvalidPlayer)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: profile %d has no name", ErrInvalidPlayer, p.ProfileID)
	}

	s.mu.Lock()
	s.players[p.ProfileID] = p.Clone()
	s.names[p.ProfileID] = strings.ToLower(strings.TrimSpace(p.Name))
	n := len(s.players)
	s.mu.Unlock()

	metrics.UpdateDirectoryPlayers(n)
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

func (s *MemoryStore) simulateLatency(ctx context.Context) error {
	if s.maxLatency <= 0 {
		return ctx.Err()
	}

	latency := s.minLatency
	if spread := s.maxLatency - s.minLatency; spread > 0 {
		s.rngMu.Lock()
		latency += time.Duration(s.rng.Int63n(int64(spread)))
		s.rngMu.Unlock()
	}

	t := time.NewTimer(latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("directory search cancelled: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}

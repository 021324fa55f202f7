package service

import (
	"time"

	"github.com/okian/aoelookup/internal/adapters/repository"
	"github.com/okian/aoelookup/internal/domain/model"
	"github.com/okian/aoelookup/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDirectory replaces the in-memory player directory.
func WithDirectory(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.directory = store
		}
	}
}

// WithPlayersFile seeds the directory from a JSON file at Start.
func WithPlayersFile(path string) Option {
	return func(s *Service) {
		s.playersFile = path
	}
}

// WithPlayers seeds the directory with players at Start.
func WithPlayers(players []model.Player) Option {
	return func(s *Service) {
		s.seed = append(s.seed, players...)
	}
}

// WithSearchLimit caps the number of players per search.
func WithSearchLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.searchLimit = limit
		}
	}
}

// WithSearchTimeout bounds each session fetch. Zero disables it.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.searchTimeout = d
		}
	}
}

// WithSearchLatencyRange sets the simulated directory latency.
func WithSearchLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.latencyMin = minLatency
			s.latencyMax = maxLatency
		}
	}
}

// WithSessionTTL sets the idle time after which a session is discarded.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithMaxSessions caps concurrently live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithJanitorInterval sets how often idle sessions are swept.
func WithJanitorInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.janitorInterval = d
		}
	}
}

// WithClock overrides time.Now for session bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

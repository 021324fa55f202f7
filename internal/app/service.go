// Package service wires the player directory, search sessions and match
// data into the operations exposed by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/okian/aoelookup/internal/adapters/repository"
	"github.com/okian/aoelookup/internal/domain/matchdata"
	"github.com/okian/aoelookup/internal/domain/model"
	"github.com/okian/aoelookup/internal/domain/search"
	"github.com/okian/aoelookup/pkg/logger"
	"github.com/okian/aoelookup/pkg/metrics"
)

const (
	defaultSearchLimit     = 50
	defaultSearchTimeout   = 5 * time.Second
	defaultSessionTTL      = 30 * time.Minute
	defaultMaxSessions     = 10_000
	defaultJanitorInterval = time.Minute
)

// session is one client's search state plus idle bookkeeping.
type session struct {
	id       string
	machine  *search.Machine
	lastSeen atomic.Int64 // unix nanos of the last event
	watchers atomic.Int32
}

func (s *session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// Service implements the API dependencies for player lookup.
type Service struct {
	mu sync.RWMutex

	directory repository.Store
	group     singleflight.Group
	sessions  map[string]*session

	// Configuration
	playersFile     string
	seed            []model.Player
	searchLimit     int
	searchTimeout   time.Duration
	latencyMin      time.Duration
	latencyMax      time.Duration
	sessionTTL      time.Duration
	maxSessions     int
	janitorInterval time.Duration
	now             func() time.Time

	// State
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	stopCh  chan struct{}
	done    chan struct{}

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:        make(map[string]*session),
		searchLimit:     defaultSearchLimit,
		searchTimeout:   defaultSearchTimeout,
		sessionTTL:      defaultSessionTTL,
		maxSessions:     defaultMaxSessions,
		janitorInterval: defaultJanitorInterval,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start seeds the directory and starts the idle-session janitor.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting lookup service...")

	if s.directory == nil {
		s.directory = repository.NewMemoryStore(
			repository.WithLatencyRange(s.latencyMin, s.latencyMax),
		)
	}

	if s.playersFile != "" {
		players, err := repository.LoadFile(ctx, s.playersFile)
		if err != nil {
			return fmt.Errorf("load players: %w", err)
		}
		if err := repository.Seed(ctx, s.directory, players); err != nil {
			return fmt.Errorf("seed players from %s: %w", s.playersFile, err)
		}
		s.logger.Info(ctx, "player directory seeded",
			logger.String("file", s.playersFile),
			logger.Int("players", len(players)),
		)
	}
	if err := repository.Seed(ctx, s.directory, s.seed); err != nil {
		return fmt.Errorf("seed players: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go s.runJanitor(s.ctx, s.stopCh, s.done)

	s.started = true
	s.logger.Info(ctx, "lookup service started",
		logger.Int("players", s.directory.Count(ctx)),
		logger.Int("searchLimit", s.searchLimit),
		logger.Duration("sessionTTL", s.sessionTTL),
		logger.Int("maxSessions", s.maxSessions),
	)

	return nil
}

// Stop closes every session and stops the janitor.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.logger.Info(context.Background(), "stopping lookup service...")

	close(s.stopCh)
	sessions := make([]*session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sessions = append(sessions, sess)
		delete(s.sessions, id)
	}
	s.started = false
	done := s.done
	s.mu.Unlock()

	// Machines wait for their fetches, so close them without holding mu.
	for _, sess := range sessions {
		sess.machine.Close()
	}
	s.cancel()
	<-done

	metrics.UpdateSessionsActive(0)
	s.logger.Info(context.Background(), "lookup service stopped")
}

// SearchPlayers implements search.Searcher on top of the directory.
// Identical concurrent queries share one directory call; each caller still
// returns as soon as its own ctx is done.
func (s *Service) SearchPlayers(ctx context.Context, query string) ([]model.Player, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	q := strings.TrimSpace(query)
	key := strings.ToLower(q)

	ch := s.group.DoChan(key, func() (any, error) {
		// The shared call must not die with the first caller's context.
		sctx := context.WithoutCancel(ctx)
		if s.searchTimeout > 0 {
			var cancel context.CancelFunc
			sctx, cancel = context.WithTimeout(sctx, s.searchTimeout)
			defer cancel()
		}
		return s.directory.Search(sctx, q, s.searchLimit)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			metrics.RecordSearchShared()
		}
		shared := res.Val.([]model.Player)
		out := make([]model.Player, len(shared))
		for i, p := range shared {
			out[i] = p.Clone()
		}
		return out, nil
	}
}

// Player returns a player by profile id.
func (s *Service) Player(ctx context.Context, profileID int64) (model.Player, error) {
	if err := s.ensureStarted(); err != nil {
		return model.Player{}, err
	}
	return s.directory.Get(ctx, profileID)
}

// MatchData returns the ordered rating records for a player.
func (s *Service) MatchData(ctx context.Context, profileID int64) ([]matchdata.Entry, bool, error) {
	p, err := s.Player(ctx, profileID)
	if err != nil {
		return nil, false, err
	}
	entries, ok := matchdata.Entries(p.Leaderboards)
	if !ok {
		metrics.RecordMatchDataEmpty()
	}
	return entries, ok, nil
}

// CreateSession opens a search session in the Home state.
func (s *Service) CreateSession(ctx context.Context) (string, search.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return "", nil, ErrNotStarted
	}
	if len(s.sessions) >= s.maxSessions {
		metrics.RecordErrorByComponent("service", "too_many_sessions")
		return "", nil, fmt.Errorf("%w: limit %d", ErrTooManySessions, s.maxSessions)
	}

	id := uuid.NewString()
	sess := &session{
		id: id,
		machine: search.New(s.ctx, s,
			search.WithLogger(s.logger.Named("session").With(logger.String("session_id", id))),
			search.WithFetchTimeout(s.searchTimeout),
		),
	}
	sess.touch(s.now())
	s.sessions[id] = sess

	metrics.RecordSessionCreated()
	metrics.UpdateSessionsActive(len(s.sessions))
	s.logger.Debug(ctx, "session created", logger.String("session_id", id))

	return id, sess.machine.Current(), nil
}

// SessionState returns a session's current state.
func (s *Service) SessionState(ctx context.Context, id string) (search.State, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return sess.machine.Current(), nil
}

// QueryChanged forwards a search-text edit to the session.
func (s *Service) QueryChanged(ctx context.Context, id, query string) (search.State, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	state, err := sess.machine.QueryChanged(query)
	return state, closedAsMissing(id, err)
}

// FocusPlayer selects a player from the session's current results.
func (s *Service) FocusPlayer(ctx context.Context, id string, profileID int64) (search.State, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	state, err := sess.machine.FocusPlayerByID(profileID)
	return state, closedAsMissing(id, err)
}

// Unfocus returns the session from a player to its results.
func (s *Service) Unfocus(ctx context.Context, id string) (search.State, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	state, err := sess.machine.Unfocus()
	return state, closedAsMissing(id, err)
}

// Subscribe streams the session's states until cancel is called, the
// session is closed or it is evicted. A watched session is never evicted.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan search.State, func(), error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := sess.machine.Subscribe()
	sess.watchers.Add(1)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			cancel()
			sess.watchers.Add(-1)
			sess.touch(s.now())
		})
	}, nil
}

// CloseSession discards a session and cancels its in-flight fetch.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.machine.Close()
	metrics.UpdateSessionsActive(n)
	s.logger.Debug(ctx, "session closed", logger.String("session_id", id))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"sessions":    len(s.sessions),
		"maxSessions": s.maxSessions,
		"searchLimit": s.searchLimit,
	}
	if s.directory != nil {
		stats["players"] = s.directory.Count(context.Background())
	}
	return stats
}

func (s *Service) ensureStarted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// closedAsMissing reports a session closed between lookup and event, by
// CloseSession or the janitor, as not found.
func closedAsMissing(id string, err error) error {
	if errors.Is(err, search.ErrClosed) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return err
}

func (s *Service) session(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.touch(s.now())
	return sess, nil
}

func (s *Service) runJanitor(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.EvictIdle(ctx)
		}
	}
}

// EvictIdle discards unwatched sessions idle for longer than the session
// TTL and returns how many were removed. The janitor calls it periodically.
func (s *Service) EvictIdle(ctx context.Context) int {
	cutoff := s.now().Add(-s.sessionTTL).UnixNano()

	s.mu.Lock()
	var expired []*session
	for id, sess := range s.sessions {
		if sess.watchers.Load() > 0 || sess.lastSeen.Load() > cutoff {
			continue
		}
		expired = append(expired, sess)
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range expired {
		sess.machine.Close()
		metrics.RecordSessionEvicted()
		s.logger.Debug(ctx, "session evicted", logger.String("session_id", sess.id))
	}
	if len(expired) > 0 {
		metrics.UpdateSessionsActive(n)
		s.logger.Info(ctx, "evicted idle sessions", logger.Int("count", len(expired)), logger.Int("remaining", n))
	}
	return len(expired)
}

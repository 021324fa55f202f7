package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/aoelookup/internal/domain/model"
	"github.com/okian/aoelookup/pkg/logger"
	"github.com/okian/aoelookup/pkg/metrics"
)

// Searcher looks players up by free-text query. It is called on its own
// goroutine and must honor ctx cancellation where it can.
type Searcher interface {
	SearchPlayers(ctx context.Context, query string) ([]model.Player, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, query string) ([]model.Player, error)

// SearchPlayers calls f.
func (f SearcherFunc) SearchPlayers(ctx context.Context, query string) ([]model.Player, error) {
	return f(ctx, query)
}

// Machine holds one session's search state.
//
// Events (QueryChanged, FocusPlayer, Unfocus) and fetch completions all go
// through mu, so the state has a single writer at a time. Every query bumps
// gen; a fetch commits only while its generation is still current, which
// makes the most recent query the only one that can reach Success or Error.
type Machine struct {
	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	closed bool

	subs    map[int]chan State
	nextSub int

	wg sync.WaitGroup

	ctx      context.Context
	searcher Searcher
	timeout  time.Duration
	logger   logger.Logger
}

// New returns a Machine in the Home state. Fetches derive their context
// from ctx, so cancelling ctx cancels any in-flight fetch.
func New(ctx context.Context, searcher Searcher, opts ...Option) *Machine {
	m := &Machine{
		state:    Home{},
		subs:     make(map[int]chan State),
		ctx:      ctx,
		searcher: searcher,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = logger.Get().Named("search")
	}

	return m
}

// Current returns the active state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// QueryChanged handles an edit of the search text. Blank text moves to
// Home; anything else moves to Loading and issues a fetch. Either way the
// previous in-flight fetch is cancelled and its result will be discarded.
// It returns the state right after the event, or ErrClosed with the last
// state once the machine is closed.
func (m *Machine) QueryChanged(query string) (State, error) {
	q := strings.TrimSpace(query)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return m.state, ErrClosed
	}

	m.gen++
	m.cancelFetchLocked()

	if q == "" {
		m.setLocked(Home{})
		return m.state, nil
	}

	var (
		fetchCtx context.Context
		cancel   context.CancelFunc
	)
	if m.timeout > 0 {
		fetchCtx, cancel = context.WithTimeout(m.ctx, m.timeout)
	} else {
		fetchCtx, cancel = context.WithCancel(m.ctx)
	}
	m.cancel = cancel
	m.setLocked(Loading{Query: q})
	metrics.RecordSearchStarted()

	m.wg.Add(1)
	go m.fetch(fetchCtx, cancel, m.gen, q)

	return m.state, nil
}

// FocusPlayer selects p from the current results. It is only valid in
// Success and only for a player in the result list (matched by profile id);
// otherwise the state is left untouched and ErrInvalidTransition or
// ErrUnknownPlayer is returned.
func (m *Machine) FocusPlayer(p model.Player) (State, error) {
	return m.FocusPlayerByID(p.ProfileID)
}

// FocusPlayerByID is FocusPlayer keyed by profile id.
func (m *Machine) FocusPlayerByID(profileID int64) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return m.state, ErrClosed
	}

	res, ok := m.state.(Success)
	if !ok {
		return m.state, fmt.Errorf("%w: focus while %s", ErrInvalidTransition, m.state.Kind())
	}
	for _, p := range res.Players {
		if p.ProfileID == profileID {
			m.setLocked(PlayerFocus{Player: p, Results: res})
			metrics.RecordPlayerFocus()
			m.logger.Debug(m.ctx, "player focused", logger.Int64("profile_id", profileID))
			return m.state, nil
		}
	}
	return m.state, fmt.Errorf("%w: profile %d", ErrUnknownPlayer, profileID)
}

// Unfocus returns from PlayerFocus to the results it was selected from.
func (m *Machine) Unfocus() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return m.state, ErrClosed
	}

	focus, ok := m.state.(PlayerFocus)
	if !ok {
		return m.state, fmt.Errorf("%w: unfocus while %s", ErrInvalidTransition, m.state.Kind())
	}
	m.setLocked(focus.Results)
	return m.state, nil
}

// Subscribe returns a channel that receives the current state immediately
// and every later state. The channel holds only the latest state: a slow
// reader skips intermediate ones and never blocks the machine. The channel
// is closed by the returned cancel func or by Close.
func (m *Machine) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan State, 1)
	ch <- m.state
	if m.closed {
		close(ch)
		return ch, func() {}
	}

	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
}

// Close cancels any in-flight fetch, waits for fetch goroutines to return
// and closes subscriber channels. Later events are ignored.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.gen++
	m.cancelFetchLocked()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *Machine) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, query string) {
	defer m.wg.Done()
	defer cancel()

	start := time.Now()
	players, err := m.search(ctx, query)
	metrics.RecordSearchLatency(float64(time.Since(start).Milliseconds()))

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.closed {
		metrics.RecordSearchStale()
		m.logger.Debug(ctx, "discarding superseded search result",
			logger.String("query", query),
			logger.Uint64("generation", gen),
			logger.Uint64("current", m.gen),
		)
		return
	}
	m.cancel = nil

	if err != nil {
		metrics.RecordSearchCommitted(metrics.OutcomeError)
		metrics.RecordErrorByComponent("search", "fetch_failed")
		m.logger.Warn(ctx, "player search failed", logger.String("query", query), logger.Error(err))
		m.setLocked(Error{Query: query, Err: fmt.Errorf("%w: %w", ErrFetchFailed, err)})
		return
	}

	metrics.RecordSearchCommitted(metrics.OutcomeSuccess)
	m.setLocked(Success{Query: query, Players: players})
}

// search calls the collaborator, turning a panic into an error so a faulty
// Searcher leaves the session in Error instead of taking the process down.
func (m *Machine) search(ctx context.Context, query string) (players []model.Player, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("searcher panic: %v", r)
		}
	}()

	res, err := m.searcher.SearchPlayers(ctx, query)
	if err != nil {
		return nil, err
	}
	players = make([]model.Player, len(res))
	copy(players, res)
	return players, nil
}

func (m *Machine) cancelFetchLocked() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.cancel = nil
	metrics.RecordSearchCancelled()
}

func (m *Machine) setLocked(s State) {
	m.state = s
	metrics.RecordStateTransition(s.Kind().String())

	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
			// Drop the stale buffered state. Only holders of mu send, so the
			// follow-up send cannot block.
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}

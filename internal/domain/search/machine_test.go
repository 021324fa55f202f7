package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/aoelookup/internal/domain/model"
	"github.com/okian/aoelookup/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const waitTimeout = 2 * time.Second

type result struct {
	players []model.Player
	err     error
}

// call is one pending SearchPlayers invocation held by scriptedSearcher.
type call struct {
	query string
	ctx   context.Context
	reply chan result
}

// scriptedSearcher hands every call to the test, which decides when and
// how it returns. With ignoreCancel the call keeps waiting for its reply
// after ctx is cancelled, like a collaborator that cannot be interrupted.
type scriptedSearcher struct {
	calls        chan *call
	ignoreCancel bool
}

func newScriptedSearcher(ignoreCancel bool) *scriptedSearcher {
	return &scriptedSearcher{calls: make(chan *call, 16), ignoreCancel: ignoreCancel}
}

func (s *scriptedSearcher) SearchPlayers(ctx context.Context, query string) ([]model.Player, error) {
	c := &call{query: query, ctx: ctx, reply: make(chan result, 1)}
	s.calls <- c
	if s.ignoreCancel {
		r := <-c.reply
		return r.players, r.err
	}
	select {
	case r := <-c.reply:
		return r.players, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *scriptedSearcher) next() *call {
	select {
	case c := <-s.calls:
		return c
	case <-time.After(waitTimeout):
		panic("searcher was not called")
	}
}

func players(ids ...int64) []model.Player {
	out := make([]model.Player, len(ids))
	for i, id := range ids {
		out[i] = model.Player{ProfileID: id, Name: "player"}
	}
	return out
}

// waitKind blocks until the machine reports a state of kind k.
func waitKind(m *Machine, k Kind) State {
	ch, cancel := m.Subscribe()
	defer cancel()
	deadline := time.After(waitTimeout)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return m.Current()
			}
			if s.Kind() == k {
				return s
			}
		case <-deadline:
			return m.Current()
		}
	}
}

func TestMachineTransitions(t *testing.T) {
	Convey("Given a new machine", t, func() {
		searcher := newScriptedSearcher(false)
		m := New(context.Background(), searcher)
		defer m.Close()

		Convey("Then it starts in Home", func() {
			So(m.Current(), ShouldResemble, Home{})
		})

		Convey("When the query becomes non-empty", func() {
			s := mustQuery(m, "abc")

			Convey("Then it is Loading and a fetch was issued", func() {
				So(s, ShouldResemble, Loading{Query: "abc"})
				So(searcher.next().query, ShouldEqual, "abc")
			})
		})

		Convey("When the query is padded with whitespace", func() {
			m.QueryChanged("  beasty ")

			Convey("Then the trimmed text is searched", func() {
				So(searcher.next().query, ShouldEqual, "beasty")
			})
		})

		Convey("When the fetch resolves with three players and one is focused", func() {
			m.QueryChanged("abc")
			searcher.next().reply <- result{players: players(1, 2, 3)}
			s := waitKind(m, KindSuccess)

			So(s.(Success).Query, ShouldEqual, "abc")
			So(s.(Success).Players, ShouldResemble, players(1, 2, 3))

			focused, err := m.FocusPlayer(model.Player{ProfileID: 2})
			So(err, ShouldBeNil)

			Convey("Then the state is PlayerFocus for that player", func() {
				pf, ok := focused.(PlayerFocus)
				So(ok, ShouldBeTrue)
				So(pf.Player.ProfileID, ShouldEqual, 2)
				So(m.Current().Kind(), ShouldEqual, KindPlayerFocus)
			})

			Convey("Then clearing the query returns Home", func() {
				So(mustQuery(m, ""), ShouldResemble, Home{})
			})

			Convey("Then unfocus returns to the same results", func() {
				s, err := m.Unfocus()
				So(err, ShouldBeNil)
				So(s, ShouldResemble, Success{Query: "abc", Players: players(1, 2, 3)})
			})
		})

		Convey("When the fetch resolves with no players", func() {
			m.QueryChanged("nobody")
			searcher.next().reply <- result{}
			s := waitKind(m, KindSuccess)

			Convey("Then the state is Success with an empty list", func() {
				So(s.(Success).Players, ShouldBeEmpty)
				So(s.(Success).Players, ShouldNotBeNil)
			})
		})

		Convey("When the fetch fails", func() {
			m.QueryChanged("abc")
			searcher.next().reply <- result{err: errors.New("connection reset")}
			s := waitKind(m, KindError)

			Convey("Then the state is Error wrapping ErrFetchFailed", func() {
				e, ok := s.(Error)
				So(ok, ShouldBeTrue)
				So(e.Query, ShouldEqual, "abc")
				So(errors.Is(e.Err, ErrFetchFailed), ShouldBeTrue)
			})

			Convey("Then a new query recovers", func() {
				m.QueryChanged("abcd")
				searcher.next().reply <- result{players: players(4)}
				So(waitKind(m, KindSuccess).(Success).Query, ShouldEqual, "abcd")
			})
		})
	})
}

func TestMachineEmptyQueryAlwaysHome(t *testing.T) {
	Convey("Given a machine in each reachable state", t, func() {
		searcher := newScriptedSearcher(false)
		m := New(context.Background(), searcher)
		defer m.Close()

		Convey("From Loading, empty text yields Home and cancels the fetch", func() {
			m.QueryChanged("abc")
			c := searcher.next()
			So(mustQuery(m, ""), ShouldResemble, Home{})
			select {
			case <-c.ctx.Done():
			case <-time.After(waitTimeout):
				t.Fatal("fetch context was not cancelled")
			}
			So(m.Current(), ShouldResemble, Home{})
		})

		Convey("From Error, whitespace-only text yields Home", func() {
			m.QueryChanged("abc")
			searcher.next().reply <- result{err: errors.New("boom")}
			waitKind(m, KindError)
			So(mustQuery(m, "   "), ShouldResemble, Home{})
		})

		Convey("From Home, empty text stays Home", func() {
			So(mustQuery(m, ""), ShouldResemble, Home{})
		})
	})
}

func TestMachineLastQueryWins(t *testing.T) {
	Convey("Given a searcher that ignores cancellation", t, func() {
		searcher := newScriptedSearcher(true)
		m := New(context.Background(), searcher)

		Convey("When an older response arrives after a newer one committed", func() {
			m.QueryChanged("a")
			first := searcher.next()
			m.QueryChanged("ab")
			second := searcher.next()

			second.reply <- result{players: players(2)}
			waitKind(m, KindSuccess)
			first.reply <- result{players: players(1)}
			m.Close() // waits for the stale fetch to return

			Convey("Then the newer result is kept", func() {
				So(m.Current(), ShouldResemble, Success{Query: "ab", Players: players(2)})
			})
		})

		Convey("When an older failure arrives while the newer query is loading", func() {
			m.QueryChanged("a")
			first := searcher.next()
			m.QueryChanged("ab")
			second := searcher.next()

			first.reply <- result{err: errors.New("late failure")}
			second.reply <- result{players: players(5)}
			s := waitKind(m, KindSuccess)
			m.Close()

			Convey("Then the failure never surfaces", func() {
				So(s.(Success).Query, ShouldEqual, "ab")
				So(m.Current().Kind(), ShouldEqual, KindSuccess)
			})
		})

		Convey("When a response arrives after the query was cleared", func() {
			m.QueryChanged("a")
			first := searcher.next()
			m.QueryChanged("")
			first.reply <- result{players: players(1)}
			m.Close()

			Convey("Then the state stays Home", func() {
				So(m.Current(), ShouldResemble, Home{})
			})
		})

		Convey("When the first fetch context is checked after a newer query", func() {
			m.QueryChanged("a")
			first := searcher.next()
			m.QueryChanged("ab")
			second := searcher.next()

			Convey("Then it was cancelled and the newer one was not", func() {
				So(first.ctx.Err(), ShouldNotBeNil)
				So(second.ctx.Err(), ShouldBeNil)
				first.reply <- result{}
				second.reply <- result{}
				m.Close()
			})
		})
	})
}

func TestMachineFocusRules(t *testing.T) {
	Convey("Given a machine", t, func() {
		searcher := newScriptedSearcher(false)
		m := New(context.Background(), searcher)
		defer m.Close()

		Convey("When focusing from Home", func() {
			s, err := m.FocusPlayerByID(1)

			Convey("Then it is an invalid transition and nothing changes", func() {
				So(errors.Is(err, ErrInvalidTransition), ShouldBeTrue)
				So(s, ShouldResemble, Home{})
				So(m.Current(), ShouldResemble, Home{})
			})
		})

		Convey("When focusing from Loading", func() {
			m.QueryChanged("abc")
			_, err := m.FocusPlayerByID(1)

			Convey("Then it is an invalid transition", func() {
				So(errors.Is(err, ErrInvalidTransition), ShouldBeTrue)
				So(m.Current().Kind(), ShouldEqual, KindLoading)
			})
		})

		Convey("When focusing a player that is not in the results", func() {
			m.QueryChanged("abc")
			searcher.next().reply <- result{players: players(1, 2)}
			waitKind(m, KindSuccess)
			_, err := m.FocusPlayerByID(9)

			Convey("Then ErrUnknownPlayer is returned and results stay", func() {
				So(errors.Is(err, ErrUnknownPlayer), ShouldBeTrue)
				So(m.Current().Kind(), ShouldEqual, KindSuccess)
			})
		})

		Convey("When unfocusing outside PlayerFocus", func() {
			_, err := m.Unfocus()

			Convey("Then it is an invalid transition", func() {
				So(errors.Is(err, ErrInvalidTransition), ShouldBeTrue)
			})
		})
	})
}

func TestMachineTimeoutAndPanics(t *testing.T) {
	Convey("Given a machine with a short fetch timeout", t, func() {
		searcher := newScriptedSearcher(false)
		m := New(context.Background(), searcher, WithFetchTimeout(20*time.Millisecond))
		defer m.Close()

		m.QueryChanged("slow")
		searcher.next() // never answered

		Convey("Then the fetch fails with a deadline error", func() {
			s := waitKind(m, KindError)
			So(errors.Is(s.(Error).Err, ErrFetchFailed), ShouldBeTrue)
			So(errors.Is(s.(Error).Err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})

	Convey("Given a searcher that panics", t, func() {
		m := New(context.Background(), SearcherFunc(func(context.Context, string) ([]model.Player, error) {
			panic("bad payload")
		}))
		defer m.Close()

		m.QueryChanged("abc")

		Convey("Then the machine lands in Error", func() {
			s := waitKind(m, KindError)
			So(s.(Error).Err.Error(), ShouldContainSubstring, "bad payload")
		})
	})
}

func TestMachineSubscribeAndClose(t *testing.T) {
	Convey("Given a subscribed machine", t, func() {
		searcher := newScriptedSearcher(false)
		m := New(context.Background(), searcher)
		ch, cancel := m.Subscribe()

		Convey("Then the current state is delivered first", func() {
			So(<-ch, ShouldResemble, Home{})
			cancel()
			m.Close()
		})

		Convey("When several transitions happen without reading", func() {
			m.QueryChanged("a")
			m.QueryChanged("")
			m.QueryChanged("ab")

			Convey("Then only the latest state is buffered", func() {
				So(<-ch, ShouldResemble, Loading{Query: "ab"})
				cancel()
				m.Close()
			})
		})

		Convey("When the machine is closed during a fetch", func() {
			m.QueryChanged("abc")
			c := searcher.next()
			m.Close()

			Convey("Then the fetch is cancelled and subscribers are released", func() {
				So(c.ctx.Err(), ShouldNotBeNil)
				for range ch {
				}
				s, err := m.QueryChanged("x")
				So(errors.Is(err, ErrClosed), ShouldBeTrue)
				So(s, ShouldResemble, Loading{Query: "abc"})
				_, err = m.FocusPlayerByID(1)
				So(errors.Is(err, ErrClosed), ShouldBeTrue)
				cancel()
			})
		})
	})
}

func TestKindString(t *testing.T) {
	Convey("Kinds have stable names", t, func() {
		So(KindHome.String(), ShouldEqual, "home")
		So(KindLoading.String(), ShouldEqual, "loading")
		So(KindSuccess.String(), ShouldEqual, "success")
		So(KindPlayerFocus.String(), ShouldEqual, "player_focus")
		So(KindError.String(), ShouldEqual, "error")
		So(Kind(42).String(), ShouldEqual, "unknown")
	})
}

// mustQuery sends a query-change event to an open machine.
func mustQuery(m *Machine, q string) State {
	s, err := m.QueryChanged(q)
	So(err, ShouldBeNil)
	return s
}

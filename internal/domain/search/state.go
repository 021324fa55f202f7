// Package search implements the per-session player search state machine.
package search

import (
	"github.com/okian/aoelookup/internal/domain/model"
)

// Kind names the active State variant.
type Kind int

// State kinds.
const (
	KindHome Kind = iota
	KindLoading
	KindSuccess
	KindPlayerFocus
	KindError
)

// String returns the wire name of k.
func (k Kind) String() string {
	switch k {
	case KindHome:
		return "home"
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindPlayerFocus:
		return "player_focus"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// State is the sum of Home, Loading, Success, PlayerFocus and Error.
// Exactly one variant is active in a Machine at any time.
type State interface {
	Kind() Kind
	isState()
}

// Home is the initial state: no query yet, or the query was cleared.
type Home struct{}

// Loading means a fetch for Query is in flight.
type Loading struct {
	Query string
}

// Success holds the result list for Query. Players may be empty.
type Success struct {
	Query   string
	Players []model.Player
}

// PlayerFocus holds the selected player and the results it was picked from.
type PlayerFocus struct {
	Player  model.Player
	Results Success
}

// Error means the last fetch for Query failed. Err wraps ErrFetchFailed.
type Error struct {
	Query string
	Err   error
}

// Kind implements State.
func (Home) Kind() Kind { return KindHome }

// Kind implements State.
func (Loading) Kind() Kind { return KindLoading }

// Kind implements State.
func (Success) Kind() Kind { return KindSuccess }

// Kind implements State.
func (PlayerFocus) Kind() Kind { return KindPlayerFocus }

// Kind implements State.
func (Error) Kind() Kind { return KindError }

func (Home) isState()        {}
func (Loading) isState()     {}
func (Success) isState()     {}
func (PlayerFocus) isState() {}
func (Error) isState()       {}

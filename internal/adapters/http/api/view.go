package api

import (
	"github.com/okian/aoelookup/internal/domain/matchdata"
	"github.com/okian/aoelookup/internal/domain/model"
	"github.com/okian/aoelookup/internal/domain/search"
)

// MatchDataView is the detail-page payload. HasData false means the UI
// shows its "no match data" message instead of an empty list.
type MatchDataView struct {
	HasData bool              `json:"has_data"`
	Entries []matchdata.Entry `json:"entries"`
}

// StateView is the wire shape of a search state.
type StateView struct {
	State     string         `json:"state"`
	Query     string         `json:"query,omitempty"`
	Players   []model.Player `json:"players"`
	Player    *model.Player  `json:"player,omitempty"`
	MatchData *MatchDataView `json:"match_data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type sessionResponse struct {
	SessionID string    `json:"session_id"`
	State     StateView `json:"state"`
}

func newMatchDataView(entries []matchdata.Entry, hasData bool) MatchDataView {
	if entries == nil {
		entries = []matchdata.Entry{}
	}
	return MatchDataView{HasData: hasData, Entries: entries}
}

// NewStateView renders s for clients.
func NewStateView(s search.State) StateView {
	switch st := s.(type) {
	case search.Loading:
		return StateView{State: st.Kind().String(), Query: st.Query}
	case search.Success:
		return StateView{State: st.Kind().String(), Query: st.Query, Players: nonNil(st.Players)}
	case search.PlayerFocus:
		p := st.Player
		md := newMatchDataView(matchdata.Entries(p.Leaderboards))
		return StateView{
			State:     st.Kind().String(),
			Query:     st.Results.Query,
			Players:   nonNil(st.Results.Players),
			Player:    &p,
			MatchData: &md,
		}
	case search.Error:
		v := StateView{State: st.Kind().String(), Query: st.Query}
		if st.Err != nil {
			v.Error = st.Err.Error()
		}
		return v
	default:
		return StateView{State: search.KindHome.String()}
	}
}

func nonNil(players []model.Player) []model.Player {
	if players == nil {
		return []model.Player{}
	}
	return players
}

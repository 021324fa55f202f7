package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/aoelookup/internal/domain/matchdata"
	"github.com/okian/aoelookup/internal/domain/model"
)

// PlayersDependencies defines the directory reads used by PlayersHandler.
type PlayersDependencies interface {
	SearchPlayers(ctx context.Context, query string) ([]model.Player, error)
	Player(ctx context.Context, profileID int64) (model.Player, error)
	MatchData(ctx context.Context, profileID int64) ([]matchdata.Entry, bool, error)
}

// PlayersHandler serves direct player lookups outside any session.
type PlayersHandler struct {
	deps PlayersDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayersDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

type playersResponse struct {
	Query   string         `json:"query"`
	Players []model.Player `json:"players"`
}

// HandleSearch handles GET /players?query=q requests.
func (h *PlayersHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("query"))
	if q == "" {
		writeError(w, NewKind("players.search", ErrBadRequest))
		return
	}
	players, err := h.deps.SearchPlayers(r.Context(), q)
	if err != nil {
		writeError(w, Wrap("players.search", err))
		return
	}
	writeJSON(w, http.StatusOK, playersResponse{Query: q, Players: nonNil(players)})
}

// HandleGet handles GET /players/{id} requests.
func (h *PlayersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := profileIDParam(r, "players.get")
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.deps.Player(r.Context(), id)
	if err != nil {
		writeError(w, Wrap("players.get", err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleMatchData handles GET /players/{id}/matchdata requests.
func (h *PlayersHandler) HandleMatchData(w http.ResponseWriter, r *http.Request) {
	id, err := profileIDParam(r, "players.matchdata")
	if err != nil {
		writeError(w, err)
		return
	}
	entries, ok, err := h.deps.MatchData(r.Context(), id)
	if err != nil {
		writeError(w, Wrap("players.matchdata", err))
		return
	}
	writeJSON(w, http.StatusOK, newMatchDataView(entries, ok))
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/aoelookup/internal/adapters/repository"
	service "github.com/okian/aoelookup/internal/app"
	"github.com/okian/aoelookup/internal/domain/matchdata"
	"github.com/okian/aoelookup/internal/domain/model"
	"github.com/okian/aoelookup/internal/domain/search"
)

const maxBodyBytes = 64 << 10

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Direct directory reads.
	SearchPlayers(ctx context.Context, query string) ([]model.Player, error)
	Player(ctx context.Context, profileID int64) (model.Player, error)
	MatchData(ctx context.Context, profileID int64) ([]matchdata.Entry, bool, error)

	// Search sessions.
	CreateSession(ctx context.Context) (string, search.State, error)
	SessionState(ctx context.Context, id string) (search.State, error)
	QueryChanged(ctx context.Context, id, query string) (search.State, error)
	FocusPlayer(ctx context.Context, id string, profileID int64) (search.State, error)
	Unfocus(ctx context.Context, id string) (search.State, error)
	Subscribe(ctx context.Context, id string) (<-chan search.State, func(), error)
	CloseSession(ctx context.Context, id string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	playersHandler  *PlayersHandler
	sessionsHandler *SessionsHandler
	watchHandler    *WatchHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		playersHandler:  NewPlayersHandler(deps),
		sessionsHandler: NewSessionsHandler(deps),
		watchHandler:    NewWatchHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Get("/players", MetricsMiddleware(s.playersHandler.HandleSearch, "players"))
	r.Get("/players/{id}", MetricsMiddleware(s.playersHandler.HandleGet, "player"))
	r.Get("/players/{id}/matchdata", MetricsMiddleware(s.playersHandler.HandleMatchData, "matchdata"))

	r.Post("/sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions"))
	r.Get("/sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleGet, "session"))
	r.Delete("/sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleDelete, "session"))
	r.Put("/sessions/{id}/query", MetricsMiddleware(s.sessionsHandler.HandleQuery, "session_query"))
	r.Post("/sessions/{id}/focus", MetricsMiddleware(s.sessionsHandler.HandleFocus, "session_focus"))
	r.Post("/sessions/{id}/unfocus", MetricsMiddleware(s.sessionsHandler.HandleUnfocus, "session_unfocus"))
	r.Get("/sessions/{id}/watch", MetricsMiddleware(s.watchHandler.HandleWatch, "session_watch"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status and error code.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil && status != http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrBadID),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "player_not_found"
	case errors.Is(err, search.ErrInvalidTransition), errors.Is(err, search.ErrUnknownPlayer),
		errors.Is(err, search.ErrClosed):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, service.ErrTooManySessions):
		return http.StatusTooManyRequests, "too_many_sessions"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeBody reads a bounded JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest(op, errors.New("empty body"))
		}
		return badRequest(op, err)
	}
	return nil
}

// profileIDParam parses the {id} path parameter as a profile id.
func profileIDParam(r *http.Request, op string) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &Error{Op: op, Kind: ErrBadID, Err: fmt.Errorf("profile id %q", raw)}
	}
	return id, nil
}

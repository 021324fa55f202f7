package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/aoelookup/internal/domain/search"
)

// SessionsDependencies defines the session operations used by SessionsHandler.
type SessionsDependencies interface {
	CreateSession(ctx context.Context) (string, search.State, error)
	SessionState(ctx context.Context, id string) (search.State, error)
	QueryChanged(ctx context.Context, id, query string) (search.State, error)
	FocusPlayer(ctx context.Context, id string, profileID int64) (search.State, error)
	Unfocus(ctx context.Context, id string) (search.State, error)
	CloseSession(ctx context.Context, id string) error
}

// SessionsHandler drives per-client search sessions.
type SessionsHandler struct {
	deps SessionsDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionsDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

type queryRequest struct {
	Query *string `json:"query"`
}

type focusRequest struct {
	ProfileID *int64 `json:"profile_id"`
}

// HandleCreate handles POST /sessions requests.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, state, err := h.deps.CreateSession(r.Context())
	if err != nil {
		writeError(w, Wrap("sessions.create", err))
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id, State: NewStateView(state)})
}

// HandleGet handles GET /sessions/{id} requests.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	state, err := h.deps.SessionState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, Wrap("sessions.get", err))
		return
	}
	writeJSON(w, http.StatusOK, NewStateView(state))
}

// HandleDelete handles DELETE /sessions/{id} requests.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.CloseSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, Wrap("sessions.delete", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleQuery handles PUT /sessions/{id}/query requests. The response is
// the state right after the edit, usually Loading; results arrive later.
func (h *SessionsHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeBody(w, r, "sessions.query", &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Query == nil {
		writeError(w, badRequest("sessions.query", errors.New("missing query")))
		return
	}
	state, err := h.deps.QueryChanged(r.Context(), chi.URLParam(r, "id"), *req.Query)
	if err != nil {
		writeError(w, Wrap("sessions.query", err))
		return
	}
	writeJSON(w, http.StatusAccepted, NewStateView(state))
}

// HandleFocus handles POST /sessions/{id}/focus requests.
func (h *SessionsHandler) HandleFocus(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := decodeBody(w, r, "sessions.focus", &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ProfileID == nil {
		writeError(w, badRequest("sessions.focus", errors.New("missing profile_id")))
		return
	}
	state, err := h.deps.FocusPlayer(r.Context(), chi.URLParam(r, "id"), *req.ProfileID)
	if err != nil {
		writeError(w, Wrap("sessions.focus", err))
		return
	}
	writeJSON(w, http.StatusOK, NewStateView(state))
}

// HandleUnfocus handles POST /sessions/{id}/unfocus requests.
func (h *SessionsHandler) HandleUnfocus(w http.ResponseWriter, r *http.Request) {
	state, err := h.deps.Unfocus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, Wrap("sessions.unfocus", err))
		return
	}
	writeJSON(w, http.StatusOK, NewStateView(state))
}

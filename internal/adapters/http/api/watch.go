package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/okian/aoelookup/internal/domain/search"
	"github.com/okian/aoelookup/pkg/logger"
	"github.com/okian/aoelookup/pkg/metrics"
)

const writeTimeout = 3 * time.Second

// WatchDependencies defines the subscription used by WatchHandler.
type WatchDependencies interface {
	Subscribe(ctx context.Context, id string) (<-chan search.State, func(), error)
}

// WatchHandler streams a session's states over a websocket.
type WatchHandler struct {
	deps WatchDependencies
}

// NewWatchHandler creates a new watch handler.
func NewWatchHandler(deps WatchDependencies) *WatchHandler {
	return &WatchHandler{deps: deps}
}

// HandleWatch handles GET /sessions/{id}/watch requests. Each state is sent
// as a StateView text frame; the current state is sent first. The stream
// ends when the client goes away or the session is closed.
func (h *WatchHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	states, cancel, err := h.deps.Subscribe(r.Context(), id)
	if err != nil {
		writeError(w, Wrap("sessions.watch", err))
		return
	}
	defer cancel()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.Get().Named("api").Warn(r.Context(), "websocket accept failed",
			logger.String("session_id", id), logger.Error(fmt.Errorf("%w: %w", ErrUpgrade, err)))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected exit")

	metrics.AddWebsocketClients(1)
	defer metrics.AddWebsocketClients(-1)

	// Clients only listen; CloseRead handles control frames and cancels
	// ctx when the peer closes.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "session closed")
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, NewStateView(s))
			wcancel()
			if err != nil {
				return
			}
		}
	}
}

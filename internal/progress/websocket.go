package progress

import (
	"log/slog"
	"net/http"

	"github.com/ashureev/skripsi-cepat/internal/identity"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// WebSocketHandler upgrades a connection and streams the session's progress
// events until the client disconnects.
type WebSocketHandler struct {
	hub   *Hub
	isDev bool
}

// NewWebSocketHandler creates the progress WebSocket endpoint.
func NewWebSocketHandler(hub *Hub, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, isDev: isDev}
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	opts := &websocket.AcceptOptions{}
	if h.isDev {
		opts.InsecureSkipVerify = true
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Debug("WebSocket accept failed", "user_id", userID, "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// CloseRead surfaces client disconnects through context cancellation;
	// this endpoint never expects inbound messages.
	ctx := conn.CloseRead(r.Context())

	events := h.hub.subscribe(userID)
	defer h.hub.unsubscribe(userID, events)

	slog.Debug("Progress subscriber connected", "user_id", userID)
	for {
		select {
		case ev := <-events:
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				if ctx.Err() == nil {
					slog.Debug("Progress write failed", "user_id", userID, "error", err)
				}
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"convene/internal/registry"
	"convene/internal/ws"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades a participant to a websocket subscription on its
// session. Subscribers receive the full session record on connect and on
// every mutation after that; they never need to poll.
type WSHandler struct {
	Registry *registry.Registry
	Hubs     *ws.Hubs
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := q.Get("session_id")
	participantID := q.Get("participant_id")
	if sessionID == "" || participantID == "" {
		http.Error(w, "session_id and participant_id required", http.StatusBadRequest)
		return
	}

	rec, err := h.Registry.Get(r.Context(), sessionID)
	if errors.Is(err, registry.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	if _, ok := rec.ParticipantByID(participantID); !ok {
		http.Error(w, "not a participant of this session", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "failed to upgrade to websocket", http.StatusInternalServerError)
		return
	}

	c := &ws.Connection{
		Conn:          conn,
		Send:          make(chan []byte, 256),
		ParticipantID: participantID,
		SessionID:     sessionID,
	}
	h.Hubs.Subscribe(c)

	// Push the current record immediately so the subscriber starts from the
	// latest state rather than waiting for the next mutation.
	if b, err := json.Marshal(ws.UpdateEnvelope{Type: "session_update", Record: rec}); err == nil {
		c.Send <- b
	}

	go c.StartWrite()
	c.StartRead()
	h.Hubs.Unsubscribe(c)
}

package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Connection represents a websocket connection to one participant.
type Connection struct {
	Conn          *websocket.Conn
	Send          chan []byte
	ParticipantID string
	SessionID     string
}

type sessionHub struct {
	conns map[*Connection]bool
}

// Hubs owns the live subscriber set per session. One instance is created at
// startup and injected where needed. A session's hub exists only while it
// has subscribers; the last unsubscribe removes it, so the map never grows
// past the number of open connections.
type Hubs struct {
	mu   sync.Mutex
	hubs map[string]*sessionHub
	log  *logrus.Entry
}

func NewHubs(log *logrus.Entry) *Hubs {
	return &Hubs{hubs: make(map[string]*sessionHub), log: log}
}

// Subscribe adds the connection to its session's hub, creating the hub on
// first subscriber.
func (h *Hubs) Subscribe(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	hub, ok := h.hubs[c.SessionID]
	if !ok {
		hub = &sessionHub{conns: make(map[*Connection]bool)}
		h.hubs[c.SessionID] = hub
	}
	hub.conns[c] = true
	h.log.WithFields(logrus.Fields{"participant_id": c.ParticipantID, "session_id": c.SessionID}).Debug("subscriber joined")
}

// Unsubscribe removes the connection and closes its send channel. The hub
// goes away with its last subscriber. Safe to call twice.
func (h *Hubs) Unsubscribe(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	hub, ok := h.hubs[c.SessionID]
	if !ok {
		return
	}
	if hub.conns[c] {
		delete(hub.conns, c)
		close(c.Send)
	}
	if len(hub.conns) == 0 {
		delete(h.hubs, c.SessionID)
	}
	h.log.WithFields(logrus.Fields{"participant_id": c.ParticipantID, "session_id": c.SessionID}).Debug("subscriber left")
}

// Publish sends a payload to every subscriber of a session. Sessions with no
// hub have no subscribers, so nothing is created for them.
func (h *Hubs) Publish(sessionID string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	hub, ok := h.hubs[sessionID]
	if !ok {
		return
	}
	for c := range hub.conns {
		select {
		case c.Send <- payload:
		default:
			// Slow subscriber: drop the connection rather than block the
			// whole session.
			delete(hub.conns, c)
			close(c.Send)
		}
	}
	if len(hub.conns) == 0 {
		delete(h.hubs, sessionID)
	}
}

// StartWrite writes messages from the Send channel to the websocket.
func (c *Connection) StartWrite() {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// StartRead drains the connection until the client goes away. Subscribers
// never send meaningful payloads; the read loop only detects disconnects.
func (c *Connection) StartRead() {
	defer c.Conn.Close()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

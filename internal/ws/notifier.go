package ws

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"convene/internal/models"
)

// RecordSource streams session record mutations, typically the redis-backed
// store's Subscribe.
type RecordSource interface {
	Subscribe(ctx context.Context) (<-chan *models.SessionRecord, error)
}

// UpdateEnvelope is the wire shape pushed to websocket subscribers on every
// session mutation. The record is always the full updated state.
type UpdateEnvelope struct {
	Type   string                `json:"type"`
	Record *models.SessionRecord `json:"record"`
}

// Notifier forwards store mutations to the session hubs. It replaces client
// polling: every subscriber sees each write once, pushed.
type Notifier struct {
	source RecordSource
	hubs   *Hubs
	log    *logrus.Entry
}

func NewNotifier(source RecordSource, hubs *Hubs, log *logrus.Entry) *Notifier {
	return &Notifier{source: source, hubs: hubs, log: log}
}

// Run blocks until ctx is done, relaying every record mutation to the
// matching session hub.
func (n *Notifier) Run(ctx context.Context) error {
	ch, err := n.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	n.log.Info("session update notifier running")
	for rec := range ch {
		payload, err := json.Marshal(UpdateEnvelope{Type: "session_update", Record: rec})
		if err != nil {
			n.log.WithError(err).Warn("encode session update failed")
			continue
		}
		n.hubs.Publish(rec.SessionID, payload)
	}
	return nil
}

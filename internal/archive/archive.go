package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"convene/internal/models"
)

// Archive keeps an append-only history of released sessions in MySQL. It is
// optional at runtime; the registry runs without one when no DSN is
// configured.
type Archive struct {
	db  *sql.DB
	log *logrus.Entry
}

func New(db *sql.DB, log *logrus.Entry) *Archive {
	return &Archive{db: db, log: log}
}

// SaveReleased records the session's final shape at teardown time.
func (a *Archive) SaveReleased(ctx context.Context, rec *models.SessionRecord, releasedAt time.Time) error {
	var roomsJSON any
	if rec.RoomAssignments != nil {
		b, err := json.Marshal(rec.RoomAssignments)
		if err != nil {
			return fmt.Errorf("marshal assignments for session %s: %w", rec.SessionID, err)
		}
		roomsJSON = b
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO session_archive (session_id, join_code, room_type, participant_count, rooms, created_at, released_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID,
		rec.JoinCode,
		string(rec.RoomConfiguration.RoomType),
		len(rec.Participants),
		roomsJSON,
		rec.CreatedAt,
		releasedAt,
	)
	if err != nil {
		return fmt.Errorf("archive session %s: %w", rec.SessionID, err)
	}
	a.log.WithField("session_id", rec.SessionID).Debug("session archived")
	return nil
}

package archive

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"convene/internal/models"
)

func testLogEntry() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log.WithField("component", "test")
}

func TestSaveReleased(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Now().UTC().Add(-time.Hour)
	released := time.Now().UTC()
	rec := &models.SessionRecord{
		SessionID: "s1",
		JoinCode:  "ABC123",
		Participants: []models.Participant{
			{ID: "host", Name: "Hosting Person", IsHost: true},
			{ID: "p1", Name: "One"},
		},
		RoomConfiguration: models.RoomConfiguration{RoomType: models.RoomDyad},
		RoomAssignments: &models.RoomAssignments{
			Rooms:        map[string]models.RoomBinding{},
			Participants: map[string]models.ParticipantRoom{},
		},
		CreatedAt: created,
	}

	mock.ExpectExec("INSERT INTO session_archive").
		WithArgs("s1", "ABC123", "dyad", 2, sqlmock.AnyArg(), created, released).
		WillReturnResult(sqlmock.NewResult(1, 1))

	a := New(db, testLogEntry())
	require.NoError(t, a.SaveReleased(context.Background(), rec, released))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReleased_NoAssignmentWritesNullRooms(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	released := time.Now().UTC()
	rec := &models.SessionRecord{
		SessionID:    "s2",
		JoinCode:     "DEF456",
		Participants: []models.Participant{{ID: "host", IsHost: true}},
		CreatedAt:    released.Add(-time.Minute),
	}

	mock.ExpectExec("INSERT INTO session_archive").
		WithArgs("s2", "DEF456", "", 1, nil, rec.CreatedAt, released).
		WillReturnResult(sqlmock.NewResult(1, 1))

	a := New(db, testLogEntry())
	require.NoError(t, a.SaveReleased(context.Background(), rec, released))
	require.NoError(t, mock.ExpectationsWereMet())
}

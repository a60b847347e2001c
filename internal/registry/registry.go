package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"convene/internal/models"
	"convene/internal/rooms"
	"convene/internal/utils"
)

// ErrSessionClosed means the session finished its plan and accepts no new
// participants.
var ErrSessionClosed = errors.New("session closed to new participants")

// Archiver receives released sessions for long-term storage. Archive
// failures never block teardown.
type Archiver interface {
	SaveReleased(ctx context.Context, rec *models.SessionRecord, releasedAt time.Time) error
}

// Registry is the authoritative record of room assignments per session. All
// writes for a session are serialized behind a per-session lock, which is
// the mutual exclusion the old tab-local debounce flag never provided.
type Registry struct {
	store     *RedisStore
	tracker   *rooms.Tracker
	allocator *rooms.Allocator
	archive   Archiver // optional
	log       *logrus.Entry

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	newJoinCode func() string
}

func New(store *RedisStore, tracker *rooms.Tracker, allocator *rooms.Allocator, archive Archiver, log *logrus.Entry) *Registry {
	return &Registry{
		store:       store,
		tracker:     tracker,
		allocator:   allocator,
		archive:     archive,
		log:         log,
		locks:       make(map[string]*sync.Mutex),
		newJoinCode: utils.NewJoinCode,
	}
}

func (r *Registry) sessionLock(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[sessionID] = l
	}
	return l
}

// uniqueJoinCode draws codes until one resolves to no live session. The code
// space is small enough that collisions happen in practice; a taken code must
// never be handed out again while its session is live.
func (r *Registry) uniqueJoinCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code := r.newJoinCode()
		_, err := r.store.GetByJoinCode(ctx, code)
		if errors.Is(err, ErrSessionNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		r.log.WithField("join_code", code).Warn("join code collision, regenerating")
	}
	return "", errors.New("could not find a free join code")
}

// Create builds a new session with the host as its first participant.
func (r *Registry) Create(ctx context.Context, hostName string, durationMinutes int, cfg models.RoomConfiguration, schedule *models.SessionSchedule) (*models.SessionRecord, error) {
	joinCode, err := r.uniqueJoinCode(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	host := models.Participant{ID: uuid.NewString(), Name: hostName, IsHost: true}
	rec := &models.SessionRecord{
		SessionID:         uuid.NewString(),
		JoinCode:          joinCode,
		HostID:            host.ID,
		Participants:      []models.Participant{host},
		Status:            models.StatusWaiting,
		RoomConfiguration: cfg,
		DurationMinutes:   durationMinutes,
		Schedule:          schedule,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := r.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"session_id": rec.SessionID, "join_code": rec.JoinCode}).Info("session created")
	return rec, nil
}

// Join adds a named participant to the session behind a join code. Joining
// after allocation is allowed; the participant resolves a room through the
// name-based fallback until the next assignment includes them.
func (r *Registry) Join(ctx context.Context, joinCode, name string) (*models.SessionRecord, models.Participant, error) {
	rec, err := r.store.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return nil, models.Participant{}, err
	}
	p := models.Participant{ID: uuid.NewString(), Name: name}
	rec, err = r.Mutate(ctx, rec.SessionID, func(rec *models.SessionRecord) error {
		if rec.Complete {
			return ErrSessionClosed
		}
		rec.Participants = append(rec.Participants, p)
		return nil
	})
	if err != nil {
		return nil, models.Participant{}, err
	}
	return rec, p, nil
}

// Get returns the validated record for a session.
func (r *Registry) Get(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	return r.store.Get(ctx, sessionID)
}

// Mutate applies fn to the session record under the session lock and
// persists the result. The returned record is the persisted state.
func (r *Registry) Mutate(ctx context.Context, sessionID string, fn func(*models.SessionRecord) error) (*models.SessionRecord, error) {
	l := r.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	rec, err := r.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	rec.UpdatedAt = time.Now().UTC()
	if err := r.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// AssignInto allocates breakout rooms for the record's current participants
// and writes the result into the record. The caller must hold the session
// lock (Mutate does).
func (r *Registry) AssignInto(ctx context.Context, rec *models.SessionRecord, rt models.RoomType) error {
	assignment, err := r.allocator.Allocate(ctx, rec.SessionID, rec.Participants, rt)
	if err != nil {
		return err
	}
	// Rooms from a previous assignment that the new one no longer references
	// go back to the pool, so in-use always means referenced by the live
	// assignment.
	if rec.RoomAssignments != nil {
		for roomID := range rec.RoomAssignments.Rooms {
			if _, kept := assignment.Rooms[roomID]; !kept {
				r.tracker.Release(roomID)
			}
		}
	}
	rec.RoomAssignments = assignment
	rec.RoomConfiguration.RoomType = rt
	rec.Status = models.StatusRoomsAssigned
	return nil
}

// ReleaseInto releases every room the record holds. Safe on records with no
// assignment.
func (r *Registry) ReleaseInto(rec *models.SessionRecord) {
	if rec.RoomAssignments == nil {
		return
	}
	for roomID := range rec.RoomAssignments.Rooms {
		r.tracker.Release(roomID)
	}
	rec.RoomAssignments = nil
	if rec.Started {
		rec.Status = models.StatusMainRoomActive
	} else {
		rec.Status = models.StatusWaiting
	}
}

// Assign allocates rooms of the given type for a session.
func (r *Registry) Assign(ctx context.Context, sessionID string, rt models.RoomType) (*models.SessionRecord, error) {
	return r.Mutate(ctx, sessionID, func(rec *models.SessionRecord) error {
		return r.AssignInto(ctx, rec, rt)
	})
}

// Release frees the session's rooms. Missing sessions and sessions without
// an assignment are silent no-ops, so redundant teardown calls are safe.
func (r *Registry) Release(ctx context.Context, sessionID string) error {
	l := r.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	rec, err := r.store.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if rec.RoomAssignments == nil {
		return nil
	}
	r.ReleaseInto(rec)
	rec.UpdatedAt = time.Now().UTC()
	return r.store.Put(ctx, rec)
}

// Reassign is strictly release followed by assign, never an in-place patch,
// so there is no partially-consistent intermediate shape.
func (r *Registry) Reassign(ctx context.Context, sessionID string, rt models.RoomType) (*models.SessionRecord, error) {
	if err := r.Release(ctx, sessionID); err != nil {
		return nil, err
	}
	return r.Assign(ctx, sessionID, rt)
}

// GetParticipantRoom looks up a participant's room by id, then falls back to
// matching by name against the participant list recorded at assignment time.
// The fallback covers participants who joined after allocation; with
// duplicate names the first joiner with that name wins. A nil record with a
// nil error means no assignment yet — the caller reports "waiting", not an
// error.
func (r *Registry) GetParticipantRoom(ctx context.Context, sessionID, participantID, name string) (*models.ParticipantRoom, error) {
	rec, err := r.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec.RoomAssignments == nil {
		return nil, nil
	}
	if room, ok := rec.RoomAssignments.Participants[participantID]; ok {
		return &room, nil
	}
	if name != "" {
		if p, ok := rec.ParticipantByName(name); ok {
			if room, ok := rec.RoomAssignments.Participants[p.ID]; ok {
				return &room, nil
			}
		}
	}
	return nil, nil
}

// End releases the session's rooms, archives it when an archiver is
// configured, and deletes the record. Idempotent: a missing session is a
// no-op.
func (r *Registry) End(ctx context.Context, sessionID string) error {
	l := r.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	rec, err := r.store.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	released := time.Now().UTC()
	// Archive before releasing so the row still sees the final assignment.
	if r.archive != nil {
		if err := r.archive.SaveReleased(ctx, rec, released); err != nil {
			r.log.WithError(err).WithField("session_id", sessionID).Warn("session archive failed")
		}
	}
	r.ReleaseInto(rec)
	rec.Complete = true
	rec.UpdatedAt = released
	if err := r.store.Delete(ctx, rec); err != nil {
		return err
	}
	// The lock entry goes away with the record; any later call recreates
	// one and finds no session behind it.
	r.mu.Lock()
	delete(r.locks, sessionID)
	r.mu.Unlock()
	r.log.WithField("session_id", sessionID).Info("session ended")
	return nil
}

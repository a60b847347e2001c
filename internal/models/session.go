package models

import (
	"fmt"
	"time"
)

// SessionStatus tracks where a session is in its lifecycle.
type SessionStatus string

const (
	StatusWaiting        SessionStatus = "waiting"
	StatusRoomsAssigned  SessionStatus = "rooms-assigned"
	StatusDialogueActive SessionStatus = "dialogue-active"
	StatusMainRoomActive SessionStatus = "main-room-active"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusRoomsAssigned, StatusDialogueActive, StatusMainRoomActive:
		return true
	}
	return false
}

// RoomConfiguration is the host's runtime choice for configurable substages.
type RoomConfiguration struct {
	RoomType           RoomType `json:"room_type"`
	AllowRoomSwitching bool     `json:"allow_room_switching"`
}

// RoomBinding is one allocated room together with its occupants.
type RoomBinding struct {
	Room           RoomDescriptor `json:"room"`
	ParticipantIDs []string       `json:"participant_ids"`
}

// ParticipantRoom is the per-participant lookup record.
type ParticipantRoom struct {
	RoomID     string    `json:"room_id"`
	RoomURL    string    `json:"room_url"`
	RoomName   string    `json:"room_name"`
	RoomType   RoomType  `json:"room_type"`
	AssignedAt time.Time `json:"assigned_at"`
}

// RoomAssignments holds one allocation: rooms with their occupants plus the
// participant-id lookup table. The main-room entry always exists and lists
// every participant, host included.
type RoomAssignments struct {
	Rooms        map[string]RoomBinding     `json:"rooms"`
	Participants map[string]ParticipantRoom `json:"participants"`
	CreatedAt    time.Time                  `json:"created_at"`
}

// SessionRecord is the shared session record. It is the single source of
// truth: the store serializes it as JSON with last-write-wins semantics and
// republishes it to subscribers on every mutation.
type SessionRecord struct {
	SessionID         string            `json:"session_id"`
	JoinCode          string            `json:"join_code"`
	HostID            string            `json:"host_id"`
	Participants      []Participant     `json:"participants"`
	RoomAssignments   *RoomAssignments  `json:"room_assignments,omitempty"`
	Status            SessionStatus     `json:"status"`
	RoomConfiguration RoomConfiguration `json:"room_configuration"`
	DurationMinutes   int               `json:"duration_minutes"`
	Schedule          *SessionSchedule  `json:"schedule,omitempty"`
	PhaseIndex        int               `json:"phase_index"`
	SubstageIndex     int               `json:"substage_index"`
	Started           bool              `json:"started"`
	Complete          bool              `json:"complete"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Validate is run on every store read so that shape drift in the persisted
// record surfaces as an error instead of silent misbehavior.
func (r *SessionRecord) Validate() error {
	if r.SessionID == "" {
		return fmt.Errorf("session record: missing session_id")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("session record %s: invalid status %q", r.SessionID, r.Status)
	}
	if r.RoomConfiguration.RoomType != "" && !r.RoomConfiguration.RoomType.Valid() {
		return fmt.Errorf("session record %s: invalid room type %q", r.SessionID, r.RoomConfiguration.RoomType)
	}
	if r.PhaseIndex < 0 || r.SubstageIndex < 0 {
		return fmt.Errorf("session record %s: negative position %d/%d", r.SessionID, r.PhaseIndex, r.SubstageIndex)
	}
	if r.RoomAssignments != nil {
		for id, b := range r.RoomAssignments.Rooms {
			if b.Room.MaxParticipants > 0 && len(b.ParticipantIDs) > b.Room.MaxParticipants {
				return fmt.Errorf("session record %s: room %s over capacity", r.SessionID, id)
			}
		}
	}
	return nil
}

// ParticipantByID returns the participant entry for id.
func (r *SessionRecord) ParticipantByID(id string) (Participant, bool) {
	for _, p := range r.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// ParticipantByName returns the first participant with the given name, in
// join order. Names are assumed unique per session; with duplicates the
// first joiner wins.
func (r *SessionRecord) ParticipantByName(name string) (Participant, bool) {
	for _, p := range r.Participants {
		if p.Name == name {
			return p, true
		}
	}
	return Participant{}, false
}

// NonHosts returns the participants eligible for breakout partitioning.
func (r *SessionRecord) NonHosts() []Participant {
	out := make([]Participant, 0, len(r.Participants))
	for _, p := range r.Participants {
		if !p.IsHost {
			out = append(out, p)
		}
	}
	return out
}

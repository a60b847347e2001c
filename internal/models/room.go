package models

import "time"

// RoomType tags a room with its dialogue role. The capacity table is fixed:
// dyad=2, triad=3, quad=4, kiva=6, main is unbounded.
type RoomType string

const (
	RoomMain  RoomType = "main"
	RoomDyad  RoomType = "dyad"
	RoomTriad RoomType = "triad"
	RoomQuad  RoomType = "quad"
	RoomKiva  RoomType = "kiva"
)

// BreakoutTypes lists the room types usable for small-group work.
var BreakoutTypes = []RoomType{RoomDyad, RoomTriad, RoomQuad, RoomKiva}

// Capacity returns the maximum occupancy for the type. Main returns 0,
// meaning unbounded.
func (t RoomType) Capacity() int {
	switch t {
	case RoomDyad:
		return 2
	case RoomTriad:
		return 3
	case RoomQuad:
		return 4
	case RoomKiva:
		return 6
	default:
		return 0
	}
}

func (t RoomType) Valid() bool {
	switch t {
	case RoomMain, RoomDyad, RoomTriad, RoomQuad, RoomKiva:
		return true
	}
	return false
}

// RoomStatus is the lifecycle state of a room in the pool.
type RoomStatus string

const (
	RoomAvailable RoomStatus = "available"
	RoomInUse     RoomStatus = "in-use"
)

// RoomDescriptor describes one room in the pool. Descriptors are created at
// startup (or on demand by the external provider) and recycled, never deleted.
type RoomDescriptor struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	URL             string     `json:"url"`
	Type            RoomType   `json:"type"`
	MaxParticipants int        `json:"max_participants"`
	Status          RoomStatus `json:"status"`
}

// RoomUsage records which session holds a room.
type RoomUsage struct {
	RoomID     string     `json:"room_id"`
	SessionID  string     `json:"session_id"`
	AssignedAt time.Time  `json:"assigned_at"`
	Status     RoomStatus `json:"status"`
}

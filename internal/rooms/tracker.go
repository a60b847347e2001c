package rooms

import (
	"fmt"
	"sync"
	"time"

	"convene/internal/models"
)

// Stats is a point-in-time snapshot of the room pool.
type Stats struct {
	TotalCapacity   int                     `json:"total_capacity"`
	AvailableByType map[models.RoomType]int `json:"available_by_type"`
	UsedByType      map[models.RoomType]int `json:"used_by_type"`
}

// Tracker owns the live status of every catalog room. It is an explicit
// value injected into the allocator and registry; the one server process
// holds the single instance, which is what makes its view authoritative.
type Tracker struct {
	mu      sync.Mutex
	catalog *Catalog
	usage   map[string]models.RoomUsage // keyed by room id, in-use rooms only
}

func NewTracker(catalog *Catalog) *Tracker {
	return &Tracker{catalog: catalog, usage: make(map[string]models.RoomUsage)}
}

// MarkUsed binds a room to a session. Re-marking for the same session is a
// no-op; marking for a different session is an allocation conflict.
func (t *Tracker) MarkUsed(roomID, sessionID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if u, ok := t.usage[roomID]; ok {
		if u.SessionID == sessionID {
			return nil
		}
		return fmt.Errorf("room %s held by session %s: %w", roomID, u.SessionID, ErrAllocationConflict)
	}
	t.usage[roomID] = models.RoomUsage{
		RoomID:     roomID,
		SessionID:  sessionID,
		AssignedAt: time.Now().UTC(),
		Status:     models.RoomInUse,
	}
	return nil
}

// Release returns a room to the pool. Releasing an unknown or already
// available room is a silent no-op so teardown stays idempotent.
func (t *Tracker) Release(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.usage, roomID)
}

// AvailableOfType returns the catalog rooms of a type not currently in use,
// preserving catalog order.
func (t *Tracker) AvailableOfType(rt models.RoomType) []models.RoomDescriptor {
	return t.AvailableForSession(rt, "")
}

// AvailableForSession is AvailableOfType, except rooms already held by the
// given session count as available to it. Re-allocating for a session that
// still holds rooms is then just an idempotent re-mark instead of a
// spurious capacity failure.
func (t *Tracker) AvailableForSession(rt models.RoomType, sessionID string) []models.RoomDescriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []models.RoomDescriptor
	for _, r := range t.catalog.RoomsOfType(rt) {
		if u, used := t.usage[r.ID]; !used || (sessionID != "" && u.SessionID == sessionID) {
			out = append(out, r)
		}
	}
	return out
}

// Usage returns the usage entry for a room, if it is in use.
func (t *Tracker) Usage(roomID string) (models.RoomUsage, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.usage[roomID]
	return u, ok
}

// Stats reports pool totals for the stats endpoint.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Stats{
		TotalCapacity:   t.catalog.TotalCapacity(),
		AvailableByType: make(map[models.RoomType]int),
		UsedByType:      make(map[models.RoomType]int),
	}
	for _, rt := range models.BreakoutTypes {
		for _, r := range t.catalog.RoomsOfType(rt) {
			if _, used := t.usage[r.ID]; used {
				s.UsedByType[rt]++
			} else {
				s.AvailableByType[rt]++
			}
		}
	}
	return s
}

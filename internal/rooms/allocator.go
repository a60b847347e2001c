package rooms

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"convene/internal/models"
)

// Provider creates or fetches a room on the external video host. The static
// catalog URLs are used when no provider is configured.
type Provider interface {
	CreateRoom(ctx context.Context, name string, roomType models.RoomType) (models.RoomDescriptor, error)
}

// Allocator partitions participants into capacity-bounded groups and binds
// them to available catalog rooms.
type Allocator struct {
	catalog  *Catalog
	tracker  *Tracker
	provider Provider // optional
	log      *logrus.Entry

	// Shuffle randomizes group composition on each allocation. Tests leave
	// it off so partitions stay deterministic.
	Shuffle bool
}

func NewAllocator(catalog *Catalog, tracker *Tracker, provider Provider, log *logrus.Entry) *Allocator {
	return &Allocator{catalog: catalog, tracker: tracker, provider: provider, log: log}
}

// Allocate partitions the non-host participants into groups of at most the
// type's capacity and binds group i to available room i. The host never
// occupies a breakout room; everyone, host included, is listed in the main
// room entry. An empty participant list yields an assignment with only the
// main room.
//
// On any failure every room marked during this call is released again, so a
// failed allocation leaves the pool untouched.
func (a *Allocator) Allocate(ctx context.Context, sessionID string, participants []models.Participant, rt models.RoomType) (*models.RoomAssignments, error) {
	if !rt.Valid() || rt == models.RoomMain {
		return nil, fmt.Errorf("invalid breakout room type %q", rt)
	}

	var nonHosts []models.Participant
	for _, p := range participants {
		if !p.IsHost {
			nonHosts = append(nonHosts, p)
		}
	}

	capacity := a.catalog.CapacityOf(rt)
	needed := (len(nonHosts) + capacity - 1) / capacity
	available := a.tracker.AvailableForSession(rt, sessionID)
	if len(available) < needed {
		return nil, fmt.Errorf("need %d %s rooms, %d available: %w", needed, rt, len(available), ErrInsufficientCapacity)
	}

	if a.Shuffle {
		shuffled := make([]models.Participant, len(nonHosts))
		copy(shuffled, nonHosts)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		nonHosts = shuffled
	}

	now := time.Now().UTC()
	assignment := &models.RoomAssignments{
		Rooms:        make(map[string]models.RoomBinding),
		Participants: make(map[string]models.ParticipantRoom),
		CreatedAt:    now,
	}

	var marked []string
	rollback := func() {
		for _, id := range marked {
			a.tracker.Release(id)
		}
	}

	for i, group := range partition(nonHosts, capacity) {
		room := available[i]
		if a.provider != nil {
			created, err := a.provider.CreateRoom(ctx, providerRoomName(sessionID, room.Name), rt)
			if err != nil {
				rollback()
				return nil, err
			}
			room.Name = created.Name
			room.URL = created.URL
		}
		_, alreadyHeld := a.tracker.Usage(room.ID)
		if err := a.tracker.MarkUsed(room.ID, sessionID); err != nil {
			rollback()
			return nil, err
		}
		if !alreadyHeld {
			// Rooms the session held before this call stay held on failure;
			// only newly marked ones roll back.
			marked = append(marked, room.ID)
		}
		room.Status = models.RoomInUse

		ids := make([]string, len(group))
		for j, p := range group {
			ids[j] = p.ID
			assignment.Participants[p.ID] = models.ParticipantRoom{
				RoomID:     room.ID,
				RoomURL:    room.URL,
				RoomName:   room.Name,
				RoomType:   room.Type,
				AssignedAt: now,
			}
		}
		assignment.Rooms[room.ID] = models.RoomBinding{Room: room, ParticipantIDs: ids}
	}

	// The main room lists everyone so the host always has an entry without
	// consuming breakout capacity.
	main := a.catalog.MainRoom()
	allIDs := make([]string, len(participants))
	for i, p := range participants {
		allIDs[i] = p.ID
		if p.IsHost {
			assignment.Participants[p.ID] = models.ParticipantRoom{
				RoomID:     main.ID,
				RoomURL:    main.URL,
				RoomName:   main.Name,
				RoomType:   main.Type,
				AssignedAt: now,
			}
		}
	}
	assignment.Rooms[main.ID] = models.RoomBinding{Room: main, ParticipantIDs: allIDs}

	a.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"room_type":  rt,
		"groups":     len(marked),
		"members":    len(nonHosts),
	}).Info("rooms allocated")

	return assignment, nil
}

// partition splits participants into consecutive groups of at most size. The
// last group may be smaller; an empty list yields no groups.
func partition(participants []models.Participant, size int) [][]models.Participant {
	var groups [][]models.Participant
	for start := 0; start < len(participants); start += size {
		end := start + size
		if end > len(participants) {
			end = len(participants)
		}
		groups = append(groups, participants[start:end])
	}
	return groups
}

func providerRoomName(sessionID, roomName string) string {
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s", short, roomName)
}

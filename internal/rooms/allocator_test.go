package rooms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convene/internal/models"
)

func testAllocator(t *testing.T, sizes PoolSizes, prov Provider) (*Allocator, *Tracker) {
	t.Helper()
	log := testLogEntry()
	catalog := NewCatalog(sizes, "rooms.test")
	tracker := NewTracker(catalog)
	return NewAllocator(catalog, tracker, prov, log), tracker
}

func participants(n int) []models.Participant {
	var out []models.Participant
	for i := 0; i < n; i++ {
		out = append(out, models.Participant{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("person %d", i)})
	}
	return out
}

func TestAllocate_PartitionProperties(t *testing.T) {
	cases := []struct {
		n        int
		roomType models.RoomType
		rooms    int
	}{
		{n: 1, roomType: models.RoomDyad, rooms: 1},
		{n: 2, roomType: models.RoomDyad, rooms: 1},
		{n: 5, roomType: models.RoomDyad, rooms: 3},
		{n: 7, roomType: models.RoomTriad, rooms: 3},
		{n: 12, roomType: models.RoomQuad, rooms: 3},
		{n: 13, roomType: models.RoomKiva, rooms: 3},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d-into-%s", tc.n, tc.roomType), func(t *testing.T) {
			alloc, _ := testAllocator(t, PoolSizes{Dyad: 8, Triad: 8, Quad: 8, Kiva: 8}, nil)
			a, err := alloc.Allocate(context.Background(), "s1", participants(tc.n), tc.roomType)
			require.NoError(t, err)

			capacity := tc.roomType.Capacity()
			seen := make(map[string]bool)
			breakoutRooms := 0
			for _, b := range a.Rooms {
				if b.Room.Type == models.RoomMain {
					continue
				}
				breakoutRooms++
				assert.LessOrEqual(t, len(b.ParticipantIDs), capacity)
				for _, id := range b.ParticipantIDs {
					assert.False(t, seen[id], "participant %s in two rooms", id)
					seen[id] = true
				}
			}
			assert.Equal(t, tc.rooms, breakoutRooms)
			assert.Len(t, seen, tc.n)
		})
	}
}

func TestAllocate_HostOnlyInMainRoom(t *testing.T) {
	// 1 host + 6 participants into dyads: 3 rooms of exactly 2, host only
	// in main, main lists all 7.
	alloc, _ := testAllocator(t, PoolSizes{Dyad: 4}, nil)
	all := append([]models.Participant{{ID: "host", Name: "Hosting Person", IsHost: true}}, participants(6)...)

	a, err := alloc.Allocate(context.Background(), "s1", all, models.RoomDyad)
	require.NoError(t, err)

	var mainBinding *models.RoomBinding
	breakout := 0
	for _, b := range a.Rooms {
		b := b
		if b.Room.Type == models.RoomMain {
			mainBinding = &b
			continue
		}
		breakout++
		assert.Len(t, b.ParticipantIDs, 2)
		assert.NotContains(t, b.ParticipantIDs, "host")
	}
	assert.Equal(t, 3, breakout)
	require.NotNil(t, mainBinding)
	assert.Len(t, mainBinding.ParticipantIDs, 7)
	assert.Contains(t, mainBinding.ParticipantIDs, "host")

	hostRoom := a.Participants["host"]
	assert.Equal(t, models.RoomMain, hostRoom.RoomType)
}

func TestAllocate_NoParticipantsIsNotAnError(t *testing.T) {
	alloc, _ := testAllocator(t, PoolSizes{Kiva: 2}, nil)
	a, err := alloc.Allocate(context.Background(), "s1", nil, models.RoomKiva)
	require.NoError(t, err)
	// only the main room entry
	assert.Len(t, a.Rooms, 1)
	assert.Empty(t, a.Participants)
}

func TestAllocate_InsufficientCapacityLeavesPoolUntouched(t *testing.T) {
	alloc, tracker := testAllocator(t, PoolSizes{Dyad: 2}, nil)
	_, err := alloc.Allocate(context.Background(), "s1", participants(6), models.RoomDyad)
	require.ErrorIs(t, err, ErrInsufficientCapacity)
	assert.Len(t, tracker.AvailableOfType(models.RoomDyad), 2)
}

type failingProvider struct {
	failAfter int
	calls     int
}

func (p *failingProvider) CreateRoom(ctx context.Context, name string, rt models.RoomType) (models.RoomDescriptor, error) {
	p.calls++
	if p.calls > p.failAfter {
		return models.RoomDescriptor{}, errors.New("upstream down")
	}
	return models.RoomDescriptor{Name: name, URL: "https://rooms.test/" + name, Type: rt, MaxParticipants: rt.Capacity()}, nil
}

func TestAllocate_ProviderFailureRollsBackMarks(t *testing.T) {
	prov := &failingProvider{failAfter: 1}
	alloc, tracker := testAllocator(t, PoolSizes{Triad: 3}, prov)

	_, err := alloc.Allocate(context.Background(), "s1", participants(6), models.RoomTriad)
	require.Error(t, err)
	assert.Len(t, tracker.AvailableOfType(models.RoomTriad), 3)
}

func TestAllocate_ProviderURLsUsed(t *testing.T) {
	prov := &failingProvider{failAfter: 100}
	alloc, _ := testAllocator(t, PoolSizes{Dyad: 2}, prov)

	a, err := alloc.Allocate(context.Background(), "0123456789ab", participants(3), models.RoomDyad)
	require.NoError(t, err)
	for id, room := range a.Participants {
		assert.Contains(t, room.RoomURL, "https://rooms.test/01234567-", "participant %s", id)
	}
}

func TestPartition_Consecutive(t *testing.T) {
	groups := partition(participants(5), 2)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[1], 2)
	assert.Len(t, groups[2], 1)
	assert.Equal(t, "p0", groups[0][0].ID)
	assert.Equal(t, "p4", groups[2][0].ID)

	assert.Empty(t, partition(nil, 4))
}

func testLogEntry() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log.WithField("component", "test")
}

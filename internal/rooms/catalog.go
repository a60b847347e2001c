package rooms

import (
	"fmt"

	"github.com/google/uuid"

	"convene/internal/models"
)

// PoolSizes configures how many rooms of each breakout type the pool holds.
type PoolSizes struct {
	Dyad  int
	Triad int
	Quad  int
	Kiva  int
}

// DefaultPoolSizes is used when no pool configuration is supplied.
var DefaultPoolSizes = PoolSizes{Dyad: 8, Triad: 6, Quad: 5, Kiva: 4}

// Catalog is the static room table. It is built once at startup and never
// mutated; live status lives in the Tracker.
type Catalog struct {
	byType map[models.RoomType][]models.RoomDescriptor
	main   models.RoomDescriptor
}

// NewCatalog builds descriptors for every configured room. Room URLs are
// derived from the domain and the room name; the external provider may later
// replace them with provider-issued URLs at allocation time.
func NewCatalog(sizes PoolSizes, domain string) *Catalog {
	c := &Catalog{byType: make(map[models.RoomType][]models.RoomDescriptor)}
	counts := map[models.RoomType]int{
		models.RoomDyad:  sizes.Dyad,
		models.RoomTriad: sizes.Triad,
		models.RoomQuad:  sizes.Quad,
		models.RoomKiva:  sizes.Kiva,
	}
	for _, rt := range models.BreakoutTypes {
		for i := 1; i <= counts[rt]; i++ {
			name := fmt.Sprintf("%s-%d", rt, i)
			c.byType[rt] = append(c.byType[rt], models.RoomDescriptor{
				ID:              uuid.NewString(),
				Name:            name,
				URL:             roomURL(domain, name),
				Type:            rt,
				MaxParticipants: rt.Capacity(),
				Status:          models.RoomAvailable,
			})
		}
	}
	c.main = models.RoomDescriptor{
		ID:              uuid.NewString(),
		Name:            "main",
		URL:             roomURL(domain, "main"),
		Type:            models.RoomMain,
		MaxParticipants: 0, // unbounded
		Status:          models.RoomAvailable,
	}
	return c
}

func roomURL(domain, name string) string {
	return fmt.Sprintf("https://%s/%s", domain, name)
}

// RoomsOfType returns the configured rooms of a type, in fixed order.
func (c *Catalog) RoomsOfType(rt models.RoomType) []models.RoomDescriptor {
	if rt == models.RoomMain {
		return []models.RoomDescriptor{c.main}
	}
	return c.byType[rt]
}

// CapacityOf returns the capacity for a room type.
func (c *Catalog) CapacityOf(rt models.RoomType) int {
	return rt.Capacity()
}

// MainRoom returns the community room descriptor.
func (c *Catalog) MainRoom() models.RoomDescriptor {
	return c.main
}

// TotalCapacity sums the capacity of every breakout room in the catalog.
func (c *Catalog) TotalCapacity() int {
	total := 0
	for _, rt := range models.BreakoutTypes {
		total += len(c.byType[rt]) * rt.Capacity()
	}
	return total
}

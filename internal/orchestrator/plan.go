package orchestrator

import (
	"fmt"

	"convene/internal/models"
)

// RoomMode says how a substage resolves its room.
type RoomMode int

const (
	// ModeCommunity keeps everyone in the main room.
	ModeCommunity RoomMode = iota
	// ModeFixed always uses the substage's declared room type.
	ModeFixed
	// ModeConfigurable uses the host's configured room type, falling back to
	// the substage's declared default.
	ModeConfigurable
	// ModeInherit reuses whatever the phase's Dialogue substage resolved to.
	ModeInherit
)

// SubstagePlan declares one substage: its room mode and its share of the
// phase total in percent. A zero percent marks the remainder substage.
type SubstagePlan struct {
	Name     string
	Mode     RoomMode
	RoomType models.RoomType // fixed type, or default for configurable
	Percent  int
}

// PhasePlan declares one phase and its ordered substages.
type PhasePlan struct {
	Name      string
	Substages []SubstagePlan
}

// Plan is the ordered phase sequence for a session.
type Plan []PhasePlan

// DefaultPlan is the standard Connect/Explore/Discover/Closing arc. Catalyst
// and WE always run in community; Dialogue moves to breakout rooms except in
// Closing; Summary inherits the Dialogue room type.
var DefaultPlan = Plan{
	{Name: "Connect", Substages: []SubstagePlan{
		{Name: "Catalyst", Mode: ModeCommunity, Percent: 20},
		{Name: "Dialogue", Mode: ModeFixed, RoomType: models.RoomDyad, Percent: 55},
		{Name: "Summary", Mode: ModeInherit, Percent: 15},
		{Name: "WE", Mode: ModeCommunity},
	}},
	{Name: "Explore", Substages: []SubstagePlan{
		{Name: "Catalyst", Mode: ModeCommunity, Percent: 20},
		{Name: "Dialogue", Mode: ModeConfigurable, RoomType: models.RoomTriad, Percent: 55},
		{Name: "Summary", Mode: ModeInherit, Percent: 15},
		{Name: "WE", Mode: ModeCommunity},
	}},
	{Name: "Discover", Substages: []SubstagePlan{
		{Name: "Catalyst", Mode: ModeCommunity, Percent: 20},
		{Name: "Dialogue", Mode: ModeConfigurable, RoomType: models.RoomQuad, Percent: 55},
		{Name: "Summary", Mode: ModeInherit, Percent: 15},
		{Name: "WE", Mode: ModeCommunity},
	}},
	{Name: "Closing", Substages: []SubstagePlan{
		{Name: "Catalyst", Mode: ModeCommunity, Percent: 20},
		{Name: "Dialogue", Mode: ModeCommunity, Percent: 55},
		{Name: "Summary", Mode: ModeCommunity, Percent: 15},
		{Name: "WE", Mode: ModeCommunity},
	}},
}

// Position identifies one substage within the plan.
type Position struct {
	Phase    int `json:"phase"`
	Substage int `json:"substage"`
}

// Contains reports whether the position is inside the plan.
func (p Plan) Contains(pos Position) bool {
	return pos.Phase >= 0 && pos.Phase < len(p) &&
		pos.Substage >= 0 && pos.Substage < len(p[pos.Phase].Substages)
}

// Resolve returns the room type a position needs. ok is false for community
// substages, which need no allocation.
func (p Plan) Resolve(pos Position, cfg models.RoomConfiguration) (models.RoomType, bool) {
	if !p.Contains(pos) {
		return models.RoomMain, false
	}
	ss := p[pos.Phase].Substages[pos.Substage]
	switch ss.Mode {
	case ModeFixed:
		return ss.RoomType, true
	case ModeConfigurable:
		if cfg.RoomType.Valid() && cfg.RoomType != models.RoomMain {
			return cfg.RoomType, true
		}
		return ss.RoomType, true
	case ModeInherit:
		for i := pos.Substage - 1; i >= 0; i-- {
			prev := p[pos.Phase].Substages[i]
			if prev.Mode == ModeFixed || prev.Mode == ModeConfigurable {
				return p.Resolve(Position{Phase: pos.Phase, Substage: i}, cfg)
			}
		}
		return models.RoomMain, false
	default:
		return models.RoomMain, false
	}
}

// AdvanceSubstage moves to the next substage, rolling over into the next
// phase at the end of the current one. complete is true when the plan is
// exhausted.
func (p Plan) AdvanceSubstage(pos Position) (next Position, complete bool) {
	if pos.Substage+1 < len(p[pos.Phase].Substages) {
		return Position{Phase: pos.Phase, Substage: pos.Substage + 1}, false
	}
	return p.AdvancePhase(pos)
}

// AdvancePhase moves to substage 0 of the next phase. complete is true when
// already in the last phase.
func (p Plan) AdvancePhase(pos Position) (next Position, complete bool) {
	if pos.Phase+1 < len(p) {
		return Position{Phase: pos.Phase + 1}, false
	}
	return pos, true
}

func (p Plan) validatePosition(pos Position) error {
	if !p.Contains(pos) {
		return fmt.Errorf("position phase=%d substage=%d outside plan", pos.Phase, pos.Substage)
	}
	return nil
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"convene/internal/models"
)

// ErrSessionComplete means a transition was requested on a finished session.
var ErrSessionComplete = errors.New("session already complete")

// Sessions is the slice of the session registry the orchestrator drives.
type Sessions interface {
	Mutate(ctx context.Context, sessionID string, fn func(*models.SessionRecord) error) (*models.SessionRecord, error)
	AssignInto(ctx context.Context, rec *models.SessionRecord, rt models.RoomType) error
}

// Orchestrator walks a session through the plan's phases and substages,
// triggering exactly one room allocation on every entry into a non-community
// substage. Community entries never force a release; breakout rooms persist
// until the next assignment or the session's end.
type Orchestrator struct {
	plan     Plan
	sessions Sessions
	log      *logrus.Entry
}

func New(plan Plan, sessions Sessions, log *logrus.Entry) *Orchestrator {
	return &Orchestrator{plan: plan, sessions: sessions, log: log}
}

// Plan exposes the active plan, mainly for schedule computation at session
// creation.
func (o *Orchestrator) Plan() Plan {
	return o.plan
}

// Start enters phase 0, substage 0.
func (o *Orchestrator) Start(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	return o.sessions.Mutate(ctx, sessionID, func(rec *models.SessionRecord) error {
		rec.Started = true
		rec.Complete = false
		return o.enter(ctx, rec, Position{})
	})
}

// AdvanceSubstage moves to the next substage, delegating to the next phase
// at the end of the current one.
func (o *Orchestrator) AdvanceSubstage(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	return o.transition(ctx, sessionID, o.plan.AdvanceSubstage)
}

// AdvancePhase moves to substage 0 of the next phase.
func (o *Orchestrator) AdvancePhase(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	return o.transition(ctx, sessionID, o.plan.AdvancePhase)
}

func (o *Orchestrator) transition(ctx context.Context, sessionID string, step func(Position) (Position, bool)) (*models.SessionRecord, error) {
	return o.sessions.Mutate(ctx, sessionID, func(rec *models.SessionRecord) error {
		if rec.Complete {
			return ErrSessionComplete
		}
		// The stored position may have drifted outside the plan (bad write,
		// plan change between deploys); refuse to step from it rather than
		// index into the plan blindly.
		pos := Position{Phase: rec.PhaseIndex, Substage: rec.SubstageIndex}
		if err := o.plan.validatePosition(pos); err != nil {
			return fmt.Errorf("session %s: %w", rec.SessionID, err)
		}
		next, complete := step(pos)
		if complete {
			// Terminal transition fires once and allocates nothing.
			rec.Complete = true
			o.log.WithField("session_id", rec.SessionID).Info("session complete")
			return nil
		}
		return o.enter(ctx, rec, next)
	})
}

// JumpTo is the operator override: it moves straight to the target substage
// and recomputes its allocation, bypassing normal ordering.
func (o *Orchestrator) JumpTo(ctx context.Context, sessionID string, pos Position) (*models.SessionRecord, error) {
	if err := o.plan.validatePosition(pos); err != nil {
		return nil, err
	}
	return o.sessions.Mutate(ctx, sessionID, func(rec *models.SessionRecord) error {
		rec.Started = true
		rec.Complete = false
		return o.enter(ctx, rec, pos)
	})
}

// enter records the new position and performs the substage's allocation, if
// any.
func (o *Orchestrator) enter(ctx context.Context, rec *models.SessionRecord, pos Position) error {
	rec.PhaseIndex = pos.Phase
	rec.SubstageIndex = pos.Substage

	rt, breakout := o.plan.Resolve(pos, rec.RoomConfiguration)
	if !breakout {
		rec.Status = models.StatusMainRoomActive
		return nil
	}
	if err := o.sessions.AssignInto(ctx, rec, rt); err != nil {
		return err
	}
	rec.Status = models.StatusDialogueActive
	o.log.WithFields(logrus.Fields{
		"session_id": rec.SessionID,
		"phase":      o.plan[pos.Phase].Name,
		"substage":   o.plan[pos.Phase].Substages[pos.Substage].Name,
		"room_type":  rt,
	}).Info("breakout substage entered")
	return nil
}

package orchestrator

import "convene/internal/models"

// durationTiers maps a total session duration to nominal phase minutes for
// Connect, Explore, Discover and Closing. A request matching the tier
// nominal takes the row verbatim; anything else scales the row, with the
// rounding remainder landing in the last phase.
type durationTier struct {
	limit   int
	minutes []int
}

var durationTiers = []durationTier{
	{limit: 60, minutes: []int{15, 20, 20, 5}},
	{limit: 90, minutes: []int{25, 30, 30, 5}},
	{limit: 120, minutes: []int{35, 40, 40, 5}},
	{limit: 180, minutes: []int{50, 60, 60, 10}},
	{limit: 240, minutes: []int{65, 80, 80, 15}},
}

func tierFor(totalMinutes int) durationTier {
	for _, t := range durationTiers {
		if totalMinutes <= t.limit {
			return t
		}
	}
	return durationTiers[len(durationTiers)-1]
}

// ComputeSchedule apportions a total session duration across the plan.
// Phase minutes sum exactly to totalMinutes and substage minutes sum
// exactly to their phase: all rounding drift is absorbed by the last phase
// and the last substage (WE).
func (p Plan) ComputeSchedule(totalMinutes int) *models.SessionSchedule {
	tier := tierFor(totalMinutes)
	nominal := 0
	for _, m := range tier.minutes {
		nominal += m
	}

	schedule := &models.SessionSchedule{TotalMinutes: totalMinutes}
	allocated := 0
	for i, phase := range p {
		var phaseMinutes int
		if i == len(p)-1 {
			phaseMinutes = totalMinutes - allocated
		} else {
			phaseMinutes = totalMinutes * tier.minutes[i] / nominal
		}
		allocated += phaseMinutes

		ps := models.PhaseSchedule{Name: phase.Name, Minutes: phaseMinutes}
		used := 0
		for j, ss := range phase.Substages {
			var m int
			if j == len(phase.Substages)-1 {
				m = phaseMinutes - used
			} else {
				m = phaseMinutes * ss.Percent / 100
			}
			used += m
			ps.Substages = append(ps.Substages, models.SubstageSchedule{Name: ss.Name, Minutes: m})
		}
		schedule.Phases = append(schedule.Phases, ps)
	}
	return schedule
}

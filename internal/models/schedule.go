package models

// SubstageSchedule is the computed time budget for one substage.
type SubstageSchedule struct {
	Name    string `json:"name"`
	Minutes int    `json:"minutes"`
}

// PhaseSchedule is the computed time budget for one phase.
type PhaseSchedule struct {
	Name      string             `json:"name"`
	Minutes   int                `json:"minutes"`
	Substages []SubstageSchedule `json:"substages"`
}

// SessionSchedule is the full per-phase time budget for a session. Phase
// minutes sum exactly to TotalMinutes and substage minutes sum exactly to
// their phase.
type SessionSchedule struct {
	TotalMinutes int             `json:"total_minutes"`
	Phases       []PhaseSchedule `json:"phases"`
}

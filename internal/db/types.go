package db

import (
	"time"

	"github.com/google/uuid"
)

// Transition outcome values as stored in stage_transitions.outcome
const (
	OutcomeConfirmed  = "confirmed"
	OutcomeRolledBack = "rolled_back"
	OutcomeSuperseded = "superseded"
)

// DefaultTransitionListLimit caps ListTransitions when no limit is given.
const DefaultTransitionListLimit = 100

// TransitionEntry is one journaled stage transition
type TransitionEntry struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Seq         int64     `json:"seq"`
	FromPhaseID uuid.UUID `json:"from_phase_id"`
	FromStageID uuid.UUID `json:"from_stage_id"`
	ToPhaseID   uuid.UUID `json:"to_phase_id"`
	ToStageID   uuid.UUID `json:"to_stage_id"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	CreatedAt   time.Time `json:"created_at"`
}

package transition

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/directory"
)

// Outcome is how a transition finished.
type Outcome string

const (
	// OutcomeNoop: the target was the current stage; nothing was sent.
	OutcomeNoop Outcome = "noop"
	// OutcomeConfirmed: the server accepted the move.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeRolledBack: the move failed and the last confirmed assignment was restored.
	OutcomeRolledBack Outcome = "rolled_back"
	// OutcomeSuperseded: a newer transition for the same candidate was issued
	// before this one completed, so this completion did not touch local state.
	OutcomeSuperseded Outcome = "superseded"
)

// Snapshot is the candidate's assignment captured right before the optimistic mutation.
type Snapshot struct {
	CandidateID     uuid.UUID `json:"candidate_id"`
	PreviousPhaseID uuid.UUID `json:"previous_phase_id"`
	PreviousStageID uuid.UUID `json:"previous_stage_id"`
}

// Assignment returns the snapshotted assignment.
func (s Snapshot) Assignment() directory.Assignment {
	return directory.Assignment{PhaseID: s.PreviousPhaseID, StageID: s.PreviousStageID}
}

// Result describes a completed transition.
type Result struct {
	CandidateID uuid.UUID            `json:"candidate_id"`
	Seq         uint64               `json:"seq"`
	Outcome     Outcome              `json:"outcome"`
	Assignment  directory.Assignment `json:"assignment"`
	Err         error                `json:"-"`
	ReloadErr   error                `json:"-"`
}

// PendingTransition is an optimistic move waiting for the server's verdict.
type PendingTransition struct {
	Snapshot Snapshot
	Seq      uint64
	Target   directory.Assignment

	done   chan struct{}
	result Result
}

func newPending(snap Snapshot, seq uint64, target directory.Assignment) *PendingTransition {
	return &PendingTransition{Snapshot: snap, Seq: seq, Target: target, done: make(chan struct{})}
}

func resolvedNoop(c directory.Candidate) *PendingTransition {
	snap := Snapshot{CandidateID: c.ID, PreviousPhaseID: c.PhaseID, PreviousStageID: c.StageID}
	p := newPending(snap, 0, c.Assignment)
	p.resolve(Result{CandidateID: c.ID, Outcome: OutcomeNoop, Assignment: c.Assignment})
	return p
}

func (p *PendingTransition) resolve(r Result) {
	p.result = r
	close(p.done)
}

// Done is closed once the transition has completed.
func (p *PendingTransition) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the transition completes or ctx ends. The returned error is
// only ever ctx's error; the transition's own failure is in Result.Err.
func (p *PendingTransition) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Result returns the outcome without blocking; ok is false while in flight.
func (p *PendingTransition) Result() (Result, bool) {
	select {
	case <-p.done:
		return p.result, true
	default:
		return Result{}, false
	}
}

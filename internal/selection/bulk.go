package selection

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/transition"
)

// Transitioner starts a stage transition for one candidate.
type Transitioner interface {
	Transition(ctx context.Context, candidateID, targetStageID uuid.UUID) (*transition.PendingTransition, error)
}

// MoveAction moves every selected candidate to stageID and waits for the server's
// verdict on each. Moves are independent: one rejection does not stop the others.
func MoveAction(t Transitioner, stageID uuid.UUID) Action {
	return func(ctx context.Context, ids []uuid.UUID) error {
		failures := make(map[uuid.UUID]error)
		pending := make([]*transition.PendingTransition, 0, len(ids))

		for _, id := range ids {
			p, err := t.Transition(ctx, id, stageID)
			if err != nil {
				failures[id] = err
				continue
			}
			pending = append(pending, p)
		}

		for _, p := range pending {
			res, err := p.Wait(ctx)
			if err != nil {
				return &Error{Message: "bulk move interrupted", Cause: err}
			}
			if res.Outcome == transition.OutcomeRolledBack {
				failures[res.CandidateID] = res.Err
			}
		}

		if len(failures) > 0 {
			return &BulkError{Failures: failures}
		}
		return nil
	}
}

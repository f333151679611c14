package transition

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ValidationError is a precondition violation. It is only reachable through a
// programming error (a target outside the candidate's phase, an unknown candidate),
// never through a legal user gesture, and no network call is made.
type ValidationError struct {
	CandidateID uuid.UUID
	StageID     uuid.UUID
	Message     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transition of candidate %s to stage %s: %s", e.CandidateID, e.StageID, e.Message)
}

// Rejection is implemented by remote errors carrying a domain reason, such as an
// unauthorized stage. The reason is surfaced verbatim.
type Rejection interface {
	error
	RejectionReason() string
}

// RejectedError means the candidate service refused the move.
type RejectedError struct {
	CandidateID uuid.UUID
	Reason      string
	Cause       error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("server rejected move of candidate %s: %s", e.CandidateID, e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return e.Cause
}

// NetworkError means the candidate service could not be reached, or did not answer in time.
type NetworkError struct {
	CandidateID uuid.UUID
	TimedOut    bool
	Cause       error
}

func (e *NetworkError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("timed out moving candidate %s: %v", e.CandidateID, e.Cause)
	}
	return fmt.Sprintf("could not reach server to move candidate %s: %v", e.CandidateID, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// classify maps a remote failure onto the rejected/network taxonomy.
func classify(candidateID uuid.UUID, err error) error {
	var rej Rejection
	if errors.As(err, &rej) {
		return &RejectedError{CandidateID: candidateID, Reason: rej.RejectionReason(), Cause: err}
	}
	return &NetworkError{
		CandidateID: candidateID,
		TimedOut:    errors.Is(err, context.DeadlineExceeded),
		Cause:       err,
	}
}

package workflow

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrPhaseNotFound is the cause of a SourceError for a phase the source does not know.
var ErrPhaseNotFound = errors.New("phase not found")

// ConfigurationError means a phase's stage data cannot back a board. It is fatal for
// the affected board view; no partial board is rendered.
type ConfigurationError struct {
	PhaseID uuid.UUID
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("workflow configuration error for phase %s: %s: %v", e.PhaseID, e.Message, e.Cause)
	}
	return fmt.Sprintf("workflow configuration error for phase %s: %s", e.PhaseID, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// LinkResolutionError means a success stage's next phase could not be resolved.
// Callers degrade silently to the stage's own candidates.
type LinkResolutionError struct {
	StageID     uuid.UUID
	NextPhaseID uuid.UUID
	Cause       error
}

func (e *LinkResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve next phase %s of stage %s: %v", e.NextPhaseID, e.StageID, e.Cause)
}

func (e *LinkResolutionError) Unwrap() error {
	return e.Cause
}

// SourceError wraps a failure of the remote workflow source.
type SourceError struct {
	PhaseID uuid.UUID
	Message string
	Cause   error
}

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("workflow source error for phase %s: %s: %v", e.PhaseID, e.Message, e.Cause)
	}
	return fmt.Sprintf("workflow source error for phase %s: %s", e.PhaseID, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

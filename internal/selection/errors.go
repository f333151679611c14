// Package selection tracks multi-select state for board rows and runs bulk actions
// over the selected candidates.
package selection

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Error represents a failed bulk action
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// BulkError collects the per-candidate failures of a bulk action.
type BulkError struct {
	Failures map[uuid.UUID]error
}

func (e *BulkError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("bulk action failed for %d candidate(s):\n", len(e.Failures)))
	for i, id := range e.candidateIDs() {
		sb.WriteString(fmt.Sprintf("  %d. %s: %v\n", i+1, id, e.Failures[id]))
	}
	return sb.String()
}

// candidateIDs returns the failed ids in a stable order.
func (e *BulkError) candidateIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(e.Failures))
	for id := range e.Failures {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}

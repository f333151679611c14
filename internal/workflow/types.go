// Package workflow describes a company's recruitment phases and the stages inside them.
//
// A phase's stage list is immutable once loaded: the board core only reads it.
//
//	Applied (initial) ──► Interview ──► Hired (success) ──next_phase──► Onboarding (initial)
//	                              └──► Rejected (fail)
package workflow

import (
	"fmt"

	"github.com/google/uuid"
)

// StageType values mirror the stage_type enum of the candidate service.
type StageType string

const (
	StageInitial StageType = "initial"
	StageNormal  StageType = "normal"
	StageSuccess StageType = "success"
	StageFail    StageType = "fail"
)

// ParseStageType converts a raw string to a StageType, returning an error for
// unknown values.
func ParseStageType(s string) (StageType, error) {
	st := StageType(s)
	switch st {
	case StageInitial, StageNormal, StageSuccess, StageFail:
		return st, nil
	}
	return "", fmt.Errorf("unknown stage type %q", s)
}

// UnmarshalText rejects stage types outside the closed set.
func (t *StageType) UnmarshalText(text []byte) error {
	parsed, err := ParseStageType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DisplayBucket decides how a stage is rendered on the board, never whether it is reachable.
type DisplayBucket string

const (
	BucketColumn DisplayBucket = "column"
	BucketRow    DisplayBucket = "row"
	BucketHidden DisplayBucket = "hidden"
)

// ParseDisplayBucket converts a raw string to a DisplayBucket.
func ParseDisplayBucket(s string) (DisplayBucket, error) {
	b := DisplayBucket(s)
	switch b {
	case BucketColumn, BucketRow, BucketHidden:
		return b, nil
	}
	return "", fmt.Errorf("unknown display bucket %q", s)
}

// UnmarshalText rejects display buckets outside the closed set.
func (b *DisplayBucket) UnmarshalText(text []byte) error {
	parsed, err := ParseDisplayBucket(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Phase is a named group of stages scoped to a company.
type Phase struct {
	ID           uuid.UUID `json:"id"`
	CompanyID    uuid.UUID `json:"company_id"`
	Name         string    `json:"name" validate:"required"`
	SortOrder    int       `json:"sort_order"`
	WorkflowType string    `json:"workflow_type" validate:"required"`
}

// Style is presentation-only.
type Style struct {
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// Stage is a single pipeline position within a phase.
type Stage struct {
	ID          uuid.UUID     `json:"id"`
	PhaseID     uuid.UUID     `json:"phase_id"`
	Name        string        `json:"name" validate:"required"`
	Order       int           `json:"order" validate:"gte=0"`
	Type        StageType     `json:"stage_type" validate:"required"`
	Bucket      DisplayBucket `json:"display_bucket" validate:"required"`
	Style       Style         `json:"style"`
	NextPhaseID *uuid.UUID    `json:"next_phase_id,omitempty"`
}

// LinksToPhase reports whether the stage promotes candidates into another phase.
func (s Stage) LinksToPhase() bool {
	return s.Type == StageSuccess && s.NextPhaseID != nil && *s.NextPhaseID != uuid.Nil
}

// EntryPhase returns the phase with the minimum sort order for the given workflow type.
func EntryPhase(phases []Phase, workflowType string) (Phase, bool) {
	var (
		entry Phase
		found bool
	)
	for _, p := range phases {
		if p.WorkflowType != workflowType {
			continue
		}
		if !found || p.SortOrder < entry.SortOrder {
			entry = p
			found = true
		}
	}
	return entry, found
}

// Package buckets computes what the board shows for each rendered stage.
package buckets

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/directory"
	"github.com/jonathan/pipeline-board/internal/logger"
	"github.com/jonathan/pipeline-board/internal/workflow"
)

// Entry is one card in a bucket. Borrowed cards are shown in a success stage's
// bucket but are really assigned to the linked phase's initial stage.
type Entry struct {
	directory.Candidate
	Borrowed bool `json:"borrowed"`
}

// Bucket is the rendered content of one stage.
type Bucket struct {
	Stage   workflow.Stage `json:"stage"`
	Entries []Entry        `json:"entries"`
}

// Board is a phase rendered into buckets.
type Board struct {
	Phase   workflow.Phase   `json:"phase"`
	Columns []Bucket         `json:"columns"`
	Rows    []Bucket         `json:"rows"`
	Hidden  []workflow.Stage `json:"hidden"`
}

// Locate returns the bucket showing a candidate's card.
func (b *Board) Locate(candidateID uuid.UUID) (Bucket, Entry, bool) {
	for _, group := range [][]Bucket{b.Columns, b.Rows} {
		for _, bucket := range group {
			for _, e := range bucket.Entries {
				if e.ID == candidateID {
					return bucket, e, true
				}
			}
		}
	}
	return Bucket{}, Entry{}, false
}

// Resolver renders buckets from the workflow catalog and the directory.
type Resolver struct {
	catalog *workflow.Catalog
	dir     directory.Reader
	log     *logger.Logger
}

// NewResolver creates a resolver over a session catalog and a directory view.
func NewResolver(catalog *workflow.Catalog, dir directory.Reader, log *logger.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		dir:     dir,
		log:     logger.OrNop(log).With("component", "buckets.Resolver"),
	}
}

// Bucket returns the ordered cards for one stage of def: its direct assignees,
// then, for a linked success stage, the occupants of the next phase's initial stage.
func (r *Resolver) Bucket(ctx context.Context, def *workflow.Definition, stage workflow.Stage) Bucket {
	own := r.dir.InStage(directory.Assignment{PhaseID: def.Phase().ID, StageID: stage.ID})
	entries := make([]Entry, 0, len(own))
	for _, c := range own {
		entries = append(entries, Entry{Candidate: c})
	}

	initial, linked, err := r.catalog.LinkedInitial(ctx, stage)
	if err != nil {
		r.log.Debug("next phase unresolved, showing own candidates only", "stage_id", stage.ID, "error", err)
		return Bucket{Stage: stage, Entries: entries}
	}
	if linked {
		borrowed := r.dir.InStage(directory.Assignment{PhaseID: initial.PhaseID, StageID: initial.ID})
		for _, c := range borrowed {
			entries = append(entries, Entry{Candidate: c, Borrowed: true})
		}
	}
	return Bucket{Stage: stage, Entries: entries}
}

// Board renders a whole phase. A *workflow.ConfigurationError for the phase is
// returned as is and no partial board is produced.
func (r *Resolver) Board(ctx context.Context, phaseID uuid.UUID) (*Board, error) {
	def, err := r.catalog.Definition(ctx, phaseID)
	if err != nil {
		return nil, err
	}

	board := &Board{Phase: def.Phase()}
	for _, s := range def.Stages() {
		switch s.Bucket {
		case workflow.BucketColumn:
			board.Columns = append(board.Columns, r.Bucket(ctx, def, s))
		case workflow.BucketRow:
			board.Rows = append(board.Rows, r.Bucket(ctx, def, s))
		case workflow.BucketHidden:
			board.Hidden = append(board.Hidden, s)
		default:
			return nil, &workflow.ConfigurationError{
				PhaseID: phaseID,
				Message: fmt.Sprintf("stage %s has unknown display bucket %q", s.ID, s.Bucket),
			}
		}
	}
	return board, nil
}

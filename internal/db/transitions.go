package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/transition"
)

// -----------------------------------------------------------------------------
// Transition Journal Methods
// -----------------------------------------------------------------------------

var _ transition.Journal = (*DB)(nil)

// RecordTransition stores a completed transition
func (db *DB) RecordTransition(ctx context.Context, rec transition.Record) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO stage_transitions
		   (candidate_id, seq, from_phase, from_stage, to_phase, to_stage, outcome, error, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.CandidateID, int64(rec.Seq),
		rec.From.PhaseID, rec.From.StageID,
		rec.To.PhaseID, rec.To.StageID,
		string(rec.Outcome), rec.Error,
		rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record transition for candidate %s: %w", rec.CandidateID, err)
	}
	return nil
}

// ListTransitions returns a candidate's journaled transitions, newest first
func (db *DB) ListTransitions(ctx context.Context, candidateID uuid.UUID, limit int) ([]TransitionEntry, error) {
	if limit <= 0 {
		limit = DefaultTransitionListLimit
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, candidate_id, seq, from_phase, from_stage, to_phase, to_stage,
		        outcome, error, started_at, finished_at, created_at
		 FROM stage_transitions
		 WHERE candidate_id = $1
		 ORDER BY finished_at DESC
		 LIMIT $2`,
		candidateID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	defer rows.Close()

	var entries []TransitionEntry
	for rows.Next() {
		var e TransitionEntry
		if err := rows.Scan(&e.ID, &e.CandidateID, &e.Seq,
			&e.FromPhaseID, &e.FromStageID, &e.ToPhaseID, &e.ToStageID,
			&e.Outcome, &e.Error, &e.StartedAt, &e.FinishedAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transitions: %w", err)
	}
	return entries, nil
}

// Package drag turns a single pointer-drag session into a stage transition.
//
//	Idle ──Begin(c)──► Dragging(c) ──Drop(target)──► Idle
//	                        └──────Cancel / Drop(nil)──► Idle
package drag

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/directory"
	"github.com/jonathan/pipeline-board/internal/transition"
	"github.com/jonathan/pipeline-board/internal/workflow"
)

// ErrDragInProgress is returned by Begin while another drag is active.
var ErrDragInProgress = errors.New("a drag is already in progress")

// ErrNotDragging is returned by Drop when no drag is active.
var ErrNotDragging = errors.New("no drag in progress")

// ErrUnknownCandidate is returned for a dragged or targeted card missing from the directory.
var ErrUnknownCandidate = errors.New("candidate not in directory")

// ErrInvalidTarget is returned for a drop target of unknown kind.
var ErrInvalidTarget = errors.New("invalid drop target")

// State of the controller.
type State string

const (
	StateIdle     State = "idle"
	StateDragging State = "dragging"
)

// TargetKind says what the pointer was released over.
type TargetKind string

const (
	// TargetStage is a stage's container (column or row).
	TargetStage TargetKind = "stage"
	// TargetCard is another candidate's card.
	TargetCard TargetKind = "card"
)

// Target is where a card was dropped.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

// Transitioner is the transition operation the controller delegates to.
type Transitioner interface {
	Transition(ctx context.Context, candidateID, targetStageID uuid.UUID) (*transition.PendingTransition, error)
}

// Controller tracks the one active drag session.
type Controller struct {
	engine  Transitioner
	dir     directory.Reader
	catalog *workflow.Catalog

	mu       sync.Mutex
	state    State
	dragging uuid.UUID
}

// NewController creates an idle controller.
func NewController(engine Transitioner, dir directory.Reader, catalog *workflow.Catalog) *Controller {
	return &Controller{engine: engine, dir: dir, catalog: catalog, state: StateIdle}
}

// State returns the current state and, while dragging, the dragged candidate.
func (c *Controller) State() (State, uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.dragging
}

// Begin starts dragging a candidate's card.
func (c *Controller) Begin(candidateID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDragging {
		return ErrDragInProgress
	}
	if _, ok := c.dir.Get(candidateID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCandidate, candidateID)
	}
	c.state = StateDragging
	c.dragging = candidateID
	return nil
}

// Cancel abandons the active drag, if any.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.dragging = uuid.Nil
}

// Drop ends the drag over target. A nil target (released outside any drop zone)
// returns to Idle with a nil PendingTransition.
func (c *Controller) Drop(ctx context.Context, target *Target) (*transition.PendingTransition, error) {
	c.mu.Lock()
	if c.state != StateDragging {
		c.mu.Unlock()
		return nil, ErrNotDragging
	}
	candidateID := c.dragging
	c.reset()
	c.mu.Unlock()

	if target == nil {
		return nil, nil
	}
	stageID, err := c.ResolveTarget(*target)
	if err != nil {
		return nil, err
	}
	return c.engine.Transition(ctx, candidateID, stageID)
}

// ResolveTarget returns the stage a drop means. Dropping on a card joins that
// card's actual stage, even when the card is borrowed into another phase's bucket.
func (c *Controller) ResolveTarget(target Target) (uuid.UUID, error) {
	switch target.Kind {
	case TargetStage:
		return target.ID, nil
	case TargetCard:
		other, ok := c.dir.Get(target.ID)
		if !ok {
			return uuid.Nil, fmt.Errorf("drop target card: %w: %s", ErrUnknownCandidate, target.ID)
		}
		return other.StageID, nil
	default:
		return uuid.Nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidTarget, target.Kind)
	}
}

// MoveToStage is the non-drag "move to stage" selector. It goes straight to the
// transition engine without gesture resolution.
func (c *Controller) MoveToStage(ctx context.Context, candidateID, stageID uuid.UUID) (*transition.PendingTransition, error) {
	return c.engine.Transition(ctx, candidateID, stageID)
}

// MoveOptions lists the stages offered by the selector for a candidate: the next
// stage in order plus every hidden stage of the candidate's phase.
func (c *Controller) MoveOptions(ctx context.Context, candidateID uuid.UUID) ([]workflow.Stage, error) {
	cand, ok := c.dir.Get(candidateID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCandidate, candidateID)
	}
	def, err := c.catalog.Definition(ctx, cand.PhaseID)
	if err != nil {
		return nil, err
	}

	var out []workflow.Stage
	seen := make(map[uuid.UUID]bool)
	if next, ok := def.NextInOrder(cand.StageID); ok {
		out = append(out, next)
		seen[next.ID] = true
	}
	for _, s := range def.Hidden() {
		if s.ID == cand.StageID || seen[s.ID] {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

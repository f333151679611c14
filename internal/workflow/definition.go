package workflow

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Definition is the validated, ordered stage list of one phase.
type Definition struct {
	phase   Phase
	stages  []Stage
	byID    map[uuid.UUID]int
	initial int
	columns []Stage
	rows    []Stage
	hidden  []Stage
}

// NewDefinition validates the stages of a phase and builds its derived views.
// Any structural problem is returned as a *ConfigurationError.
func NewDefinition(phase Phase, stages []Stage) (*Definition, error) {
	if phase.ID == uuid.Nil {
		return nil, &ConfigurationError{Message: "phase has no id"}
	}
	if err := validate.Struct(phase); err != nil {
		return nil, &ConfigurationError{PhaseID: phase.ID, Message: "phase is incomplete", Cause: err}
	}
	if len(stages) == 0 {
		return nil, &ConfigurationError{PhaseID: phase.ID, Message: "phase has no stages"}
	}

	sorted := make([]Stage, len(stages))
	copy(sorted, stages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	d := &Definition{
		phase:   phase,
		stages:  sorted,
		byID:    make(map[uuid.UUID]int, len(sorted)),
		initial: -1,
	}

	orders := make(map[int]uuid.UUID, len(sorted))
	for i, s := range sorted {
		if err := d.checkStage(s); err != nil {
			return nil, err
		}
		if _, dup := d.byID[s.ID]; dup {
			return nil, d.configErr(fmt.Sprintf("duplicate stage id %s", s.ID))
		}
		if other, dup := orders[s.Order]; dup {
			return nil, d.configErr(fmt.Sprintf("stages %s and %s share order %d", other, s.ID, s.Order))
		}
		orders[s.Order] = s.ID
		d.byID[s.ID] = i

		switch s.Type {
		case StageInitial:
			if d.initial >= 0 {
				return nil, d.configErr(fmt.Sprintf("more than one initial stage (%s, %s)", sorted[d.initial].ID, s.ID))
			}
			d.initial = i
		case StageSuccess:
		case StageNormal, StageFail:
			if s.NextPhaseID != nil {
				return nil, d.configErr(fmt.Sprintf("stage %s links to a next phase but is %s-typed", s.ID, s.Type))
			}
		default:
			return nil, d.configErr(fmt.Sprintf("stage %s has unknown type %q", s.ID, s.Type))
		}

		switch s.Bucket {
		case BucketColumn:
			d.columns = append(d.columns, s)
		case BucketRow:
			d.rows = append(d.rows, s)
		case BucketHidden:
			d.hidden = append(d.hidden, s)
		default:
			return nil, d.configErr(fmt.Sprintf("stage %s has unknown display bucket %q", s.ID, s.Bucket))
		}
	}

	if d.initial < 0 {
		return nil, d.configErr("phase has no initial stage")
	}
	return d, nil
}

func (d *Definition) checkStage(s Stage) error {
	if s.ID == uuid.Nil {
		return d.configErr("stage has no id")
	}
	if s.PhaseID != d.phase.ID {
		return d.configErr(fmt.Sprintf("stage %s belongs to phase %s", s.ID, s.PhaseID))
	}
	if err := validate.Struct(s); err != nil {
		return &ConfigurationError{PhaseID: d.phase.ID, Message: fmt.Sprintf("stage %s is incomplete", s.ID), Cause: err}
	}
	return nil
}

func (d *Definition) configErr(msg string) *ConfigurationError {
	return &ConfigurationError{PhaseID: d.phase.ID, Message: msg}
}

// Phase returns the phase this definition describes.
func (d *Definition) Phase() Phase { return d.phase }

// Stages returns every stage ordered by Order, hidden ones included.
func (d *Definition) Stages() []Stage { return append([]Stage(nil), d.stages...) }

// Columns returns column-bucket stages in order.
func (d *Definition) Columns() []Stage { return append([]Stage(nil), d.columns...) }

// Rows returns row-bucket stages in order.
func (d *Definition) Rows() []Stage { return append([]Stage(nil), d.rows...) }

// Hidden returns stages that are not rendered as drop targets.
func (d *Definition) Hidden() []Stage { return append([]Stage(nil), d.hidden...) }

// Initial returns the phase's entry stage.
func (d *Definition) Initial() Stage { return d.stages[d.initial] }

// Stage looks up a stage of this phase by id.
func (d *Definition) Stage(id uuid.UUID) (Stage, bool) {
	i, ok := d.byID[id]
	if !ok {
		return Stage{}, false
	}
	return d.stages[i], true
}

// Contains reports whether the stage id belongs to this phase.
func (d *Definition) Contains(id uuid.UUID) bool {
	_, ok := d.byID[id]
	return ok
}

// NextInOrder returns the stage that follows id, if any.
func (d *Definition) NextInOrder(id uuid.UUID) (Stage, bool) {
	i, ok := d.byID[id]
	if !ok || i+1 >= len(d.stages) {
		return Stage{}, false
	}
	return d.stages[i+1], true
}

// SuccessLinks returns the success stages that promote into another phase.
func (d *Definition) SuccessLinks() []Stage {
	var out []Stage
	for _, s := range d.stages {
		if s.LinksToPhase() {
			out = append(out, s)
		}
	}
	return out
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/directory"
	"github.com/jonathan/pipeline-board/internal/drag"
	"github.com/jonathan/pipeline-board/internal/transition"
)

var validate = validator.New()

// TransitionRequest is the body of POST /candidates/{id}/transition
type TransitionRequest struct {
	StageID uuid.UUID `json:"stage_id" validate:"required"`
}

// DragBeginRequest is the body of POST /drag/begin
type DragBeginRequest struct {
	CandidateID uuid.UUID `json:"candidate_id" validate:"required"`
}

// DragDropRequest is the body of POST /drag/drop. A null target means the card
// was released outside any drop zone.
type DragDropRequest struct {
	Target *DropTarget `json:"target"`
}

// DropTarget is a stage container or another candidate's card
type DropTarget struct {
	Kind string    `json:"kind" validate:"required,oneof=stage card"`
	ID   uuid.UUID `json:"id" validate:"required"`
}

// SelectionRequest is the body of POST /selection
type SelectionRequest struct {
	Op          string    `json:"op" validate:"required,oneof=select deselect toggle"`
	CandidateID uuid.UUID `json:"candidate_id" validate:"required"`
}

// BulkMoveRequest is the body of POST /selection/move
type BulkMoveRequest struct {
	StageID uuid.UUID `json:"stage_id" validate:"required"`
}

// TransitionResponse describes a transition, pending or completed
type TransitionResponse struct {
	CandidateID uuid.UUID             `json:"candidate_id"`
	Seq         uint64                `json:"seq"`
	Previous    directory.Assignment  `json:"previous"`
	Target      directory.Assignment  `json:"target"`
	Pending     bool                  `json:"pending"`
	Outcome     transition.Outcome    `json:"outcome,omitempty"`
	Assignment  *directory.Assignment `json:"assignment,omitempty"`
	Error       string                `json:"error,omitempty"`
}

func newTransitionResponse(p *transition.PendingTransition) TransitionResponse {
	resp := TransitionResponse{
		CandidateID: p.Snapshot.CandidateID,
		Seq:         p.Seq,
		Previous:    p.Snapshot.Assignment(),
		Target:      p.Target,
		Pending:     true,
	}
	if res, ok := p.Result(); ok {
		resp.withResult(res)
	}
	return resp
}

func (r *TransitionResponse) withResult(res transition.Result) {
	r.Pending = false
	r.Outcome = res.Outcome
	a := res.Assignment
	r.Assignment = &a
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
}

// decodeRequest reads a JSON body into dst and validates it.
func decodeRequest(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ErrValidation{Field: fe.Field(), Message: "failed '" + fe.Tag() + "' check"}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

// pathUUID parses a UUID path parameter.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: name, Message: "invalid UUID"}
	}
	return id, nil
}

// parseQueryInt parses an integer query parameter with default and max values
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}

func (t *DropTarget) toDrag() *drag.Target {
	if t == nil {
		return nil
	}
	return &drag.Target{Kind: drag.TargetKind(t.Kind), ID: t.ID}
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/selection"
)

// SelectionResponse is the current selection and visible list
type SelectionResponse struct {
	Selected []uuid.UUID `json:"selected"`
	Visible  []uuid.UUID `json:"visible"`
}

func (s *Server) selectionResponse(w http.ResponseWriter) {
	set := s.session.Selection
	resp := SelectionResponse{Selected: set.Selected(), Visible: set.Visible()}
	if resp.Selected == nil {
		resp.Selected = []uuid.UUID{}
	}
	if resp.Visible == nil {
		resp.Visible = []uuid.UUID{}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleGetSelection returns the selection
func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	s.selectionResponse(w)
}

// handleUpdateSelection selects, deselects or toggles one candidate
func (s *Server) handleUpdateSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := decodeRequest(r, &req); err != nil {
		s.failure(w, err)
		return
	}

	set := s.session.Selection
	switch req.Op {
	case "select":
		if !set.Select(req.CandidateID) {
			s.failure(w, &ErrValidation{Field: "candidate_id", Message: "candidate is not visible"})
			return
		}
	case "deselect":
		set.Deselect(req.CandidateID)
	case "toggle":
		set.Toggle(req.CandidateID)
	}
	s.selectionResponse(w)
}

// handleClearSelection empties the selection
func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request) {
	s.session.Selection.Clear()
	s.selectionResponse(w)
}

// handleFilter recomputes the visible list. An empty body shows everyone.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var f selection.Filter
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			s.failure(w, &ErrValidation{Field: "body", Message: "invalid request body: " + err.Error()})
			return
		}
	}

	visible := s.session.Filter(f)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"candidates": visible,
		"total":      len(visible),
	})
}

// handleSelectAll selects exactly the visible list
func (s *Server) handleSelectAll(w http.ResponseWriter, _ *http.Request) {
	s.session.Selection.SelectAll()
	s.selectionResponse(w)
}

// handleBulkMove moves every selected candidate and waits for all verdicts.
// The selection is cleared only if every move was confirmed.
func (s *Server) handleBulkMove(w http.ResponseWriter, r *http.Request) {
	var req BulkMoveRequest
	if err := decodeRequest(r, &req); err != nil {
		s.failure(w, err)
		return
	}

	moved := s.session.Selection.Len()
	err := s.session.Selection.Run(r.Context(), selection.MoveAction(s.session.Engine, req.StageID))

	var bulk *selection.BulkError
	if errors.As(err, &bulk) {
		failures := make(map[string]string, len(bulk.Failures))
		for id, ferr := range bulk.Failures {
			failures[id.String()] = ferr.Error()
		}
		s.jsonResponse(w, HTTPStatus(err), map[string]any{
			"error":    "some moves failed",
			"failures": failures,
			"moved":    moved - len(bulk.Failures),
		})
		return
	}
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"moved": moved})
}

package server

import (
	"net/http"

	"github.com/google/uuid"
)

// handleDragState reports whether a card is being dragged
func (s *Server) handleDragState(w http.ResponseWriter, _ *http.Request) {
	state, candidateID := s.session.Drag.State()
	resp := map[string]any{"state": state}
	if candidateID != uuid.Nil {
		resp["candidate_id"] = candidateID
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleDragBegin picks up a card
func (s *Server) handleDragBegin(w http.ResponseWriter, r *http.Request) {
	var req DragBeginRequest
	if err := decodeRequest(r, &req); err != nil {
		s.failure(w, err)
		return
	}
	if err := s.session.Drag.Begin(req.CandidateID); err != nil {
		s.failure(w, err)
		return
	}
	s.handleDragState(w, r)
}

// handleDragDrop releases the card over a target, or outside any target
func (s *Server) handleDragDrop(w http.ResponseWriter, r *http.Request) {
	var req DragDropRequest
	if err := decodeRequest(r, &req); err != nil {
		s.failure(w, err)
		return
	}

	p, err := s.session.Drag.Drop(r.Context(), req.Target.toDrag())
	if err != nil {
		s.failure(w, err)
		return
	}
	if p == nil {
		s.jsonResponse(w, http.StatusOK, map[string]string{"status": "cancelled"})
		return
	}

	resp := newTransitionResponse(p)
	status := http.StatusOK
	if resp.Pending {
		status = http.StatusAccepted
	}
	s.jsonResponse(w, status, resp)
}

// handleDragCancel abandons the active drag
func (s *Server) handleDragCancel(w http.ResponseWriter, r *http.Request) {
	s.session.Drag.Cancel()
	s.handleDragState(w, r)
}

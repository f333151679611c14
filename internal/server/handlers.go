package server

import (
	"context"
	"net/http"
	"time"
)

// waitTimeout bounds ?wait=true requests; the transition itself keeps running.
const waitTimeout = 60 * time.Second

// handleBoard renders a phase into columns, rows and hidden stages
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	phaseID, err := pathUUID(r, "phase_id")
	if err != nil {
		s.failure(w, err)
		return
	}

	b, err := s.session.Board(r.Context(), phaseID)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, b)
}

// handleReload refetches candidates and drops cached phase definitions
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.session.Catalog.Invalidate()
	if err := s.session.Engine.Reconcile(r.Context()); err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]int{
		"candidates": s.session.Directory.Store().Len(),
	})
}

// handleTransition moves a candidate. The move is applied locally before the
// response; ?wait=true also waits for the server's verdict.
func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	candidateID, err := pathUUID(r, "id")
	if err != nil {
		s.failure(w, err)
		return
	}
	var req TransitionRequest
	if err := decodeRequest(r, &req); err != nil {
		s.failure(w, err)
		return
	}

	p, err := s.session.Engine.Transition(r.Context(), candidateID, req.StageID)
	if err != nil {
		s.failure(w, err)
		return
	}

	resp := newTransitionResponse(p)
	if r.URL.Query().Get("wait") == "true" && resp.Pending {
		ctx, cancel := context.WithTimeout(r.Context(), waitTimeout)
		defer cancel()
		res, err := p.Wait(ctx)
		if err != nil {
			s.jsonResponse(w, http.StatusAccepted, resp)
			return
		}
		resp.withResult(res)
	}

	if resp.Pending {
		s.jsonResponse(w, http.StatusAccepted, resp)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleMoveOptions lists the stages offered by the "move to" selector
func (s *Server) handleMoveOptions(w http.ResponseWriter, r *http.Request) {
	candidateID, err := pathUUID(r, "id")
	if err != nil {
		s.failure(w, err)
		return
	}

	stages, err := s.session.Drag.MoveOptions(r.Context(), candidateID)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"stages": stages})
}

// handleTargets lists every stage the candidate may legally move to
func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	candidateID, err := pathUUID(r, "id")
	if err != nil {
		s.failure(w, err)
		return
	}

	stages, err := s.session.Engine.Targets(r.Context(), candidateID)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"stages": stages})
}

// handleHistory lists journaled transitions for a candidate
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.failure(w, &ErrNotConfigured{Feature: "transition journal"})
		return
	}
	candidateID, err := pathUUID(r, "id")
	if err != nil {
		s.failure(w, err)
		return
	}
	limit := parseQueryInt(r, "limit", 50, 500)

	entries, err := s.history.ListTransitions(r.Context(), candidateID, limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"transitions": entries,
		"limit":       limit,
	})
}

// handleNotifications drains rollback notifications, oldest first
func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	items := s.session.Inbox.Drain()
	if items == nil {
		s.jsonResponse(w, http.StatusOK, map[string]any{"notifications": []any{}})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"notifications": items})
}

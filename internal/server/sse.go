package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent("error", map[string]string{"error": message}) //nolint:errcheck
}

// handleTransitionStream moves a candidate and streams its progress:
// "applied" once the board shows the move, then "result" with the server's verdict.
func (s *Server) handleTransitionStream(w http.ResponseWriter, r *http.Request) {
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

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	p, err := s.session.Engine.Transition(r.Context(), candidateID, req.StageID)
	if err != nil {
		sse.WriteError(err.Error())
		return
	}

	resp := newTransitionResponse(p)
	if err := sse.WriteEvent("applied", resp); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), waitTimeout)
	defer cancel()
	res, err := p.Wait(ctx)
	if err != nil {
		// client went away or gave up; the transition completes regardless
		sse.WriteError(err.Error())
		return
	}
	resp.withResult(res)
	sse.WriteEvent("result", resp) //nolint:errcheck
}

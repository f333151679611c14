package server

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrag_DropOnCardJoinsItsStage(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/drag/begin", DragBeginRequest{CandidateID: s.sample.Ada})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "dragging", decode[map[string]any](t, w)["state"])

	w = s.do(t, http.MethodPost, "/drag/drop", DragDropRequest{
		Target: &DropTarget{Kind: "card", ID: s.sample.Grace},
	})
	require.Contains(t, []int{http.StatusOK, http.StatusAccepted}, w.Code, w.Body.String())

	resp := decode[TransitionResponse](t, w)
	assert.Equal(t, s.sample.Interview, resp.Target.StageID)

	s.session.Engine.Wait()
	c, _ := s.session.Directory.Store().Get(s.sample.Ada)
	assert.Equal(t, s.sample.Interview, c.StageID)

	w = s.do(t, http.MethodGet, "/drag", nil)
	assert.Equal(t, "idle", decode[map[string]any](t, w)["state"])
}

func TestDrag_DropOnBorrowedCardPromotes(t *testing.T) {
	s := newTestServer(t)

	// Linus is shown in Hired but is assigned to Onboarding's initial stage
	w := s.do(t, http.MethodPost, "/drag/begin", DragBeginRequest{CandidateID: s.sample.Xavier})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/drag/drop", DragDropRequest{
		Target: &DropTarget{Kind: "card", ID: s.sample.Linus},
	})
	require.Contains(t, []int{http.StatusOK, http.StatusAccepted}, w.Code, w.Body.String())

	resp := decode[TransitionResponse](t, w)
	assert.Equal(t, s.sample.Onboarding, resp.Target.PhaseID)
	assert.Equal(t, s.sample.OnboardStart, resp.Target.StageID)
}

func TestDrag_DropOutsideCancels(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/drag/begin", DragBeginRequest{CandidateID: s.sample.Ada}).Code)

	w := s.do(t, http.MethodPost, "/drag/drop", DragDropRequest{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decode[map[string]string](t, w)["status"])
	assert.Zero(t, s.service.ChangeStageCalls())
}

func TestDrag_StateErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/drag/drop", DragDropRequest{})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/drag/begin", DragBeginRequest{CandidateID: uuid.New()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/drag/begin", DragBeginRequest{CandidateID: s.sample.Ada}).Code)
	w = s.do(t, http.MethodPost, "/drag/begin", DragBeginRequest{CandidateID: s.sample.Grace})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/drag/drop", map[string]any{
		"target": map[string]string{"kind": "lane", "id": s.sample.Applied.String()},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/drag/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", decode[map[string]any](t, w)["state"])
}

package server

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pipeline-board/internal/selection"
)

func TestSelection_SelectAllUnderFilter(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/selection/filter", selection.Filter{Name: "foo"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["total"])

	w = s.do(t, http.MethodPost, "/selection/all", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[SelectionResponse](t, w)
	assert.ElementsMatch(t, []uuid.UUID{s.sample.Bob, s.sample.Marge}, resp.Selected)
}

func TestSelection_UpdateAndClear(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/selection/filter", nil).Code)

	w := s.do(t, http.MethodPost, "/selection", SelectionRequest{Op: "select", CandidateID: s.sample.Ada})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{s.sample.Ada}, decode[SelectionResponse](t, w).Selected)

	w = s.do(t, http.MethodPost, "/selection", SelectionRequest{Op: "toggle", CandidateID: s.sample.Grace})
	assert.Len(t, decode[SelectionResponse](t, w).Selected, 2)

	w = s.do(t, http.MethodPost, "/selection", SelectionRequest{Op: "deselect", CandidateID: s.sample.Ada})
	assert.Equal(t, []uuid.UUID{s.sample.Grace}, decode[SelectionResponse](t, w).Selected)

	w = s.do(t, http.MethodDelete, "/selection", nil)
	assert.Empty(t, decode[SelectionResponse](t, w).Selected)
}

func TestSelection_SelectHiddenRejected(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/selection/filter", selection.Filter{Name: "foo"}).Code)

	w := s.do(t, http.MethodPost, "/selection", SelectionRequest{Op: "select", CandidateID: s.sample.Ada})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/selection", SelectionRequest{Op: "explode", CandidateID: s.sample.Ada})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelection_BulkMove(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/selection/filter", selection.Filter{Name: "foo"}).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/selection/all", nil).Code)

	w := s.do(t, http.MethodPost, "/selection/move", BulkMoveRequest{StageID: s.sample.Archived})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["moved"])

	for _, id := range []uuid.UUID{s.sample.Bob, s.sample.Marge} {
		c, ok := s.session.Directory.Store().Get(id)
		require.True(t, ok)
		assert.Equal(t, s.sample.Archived, c.StageID)
	}
	assert.Zero(t, s.session.Selection.Len())
}

func TestSelection_BulkMovePartialFailure(t *testing.T) {
	s := newTestServer(t)
	s.service.RejectStage(s.sample.Archived, "archiving is locked")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/selection/filter", selection.Filter{Name: "foo"}).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/selection/all", nil).Code)

	w := s.do(t, http.MethodPost, "/selection/move", BulkMoveRequest{StageID: s.sample.Archived})
	require.Equal(t, http.StatusConflict, w.Code)

	resp := decode[struct {
		Failures map[string]string `json:"failures"`
		Moved    int               `json:"moved"`
	}](t, w)
	assert.Len(t, resp.Failures, 2)
	assert.Zero(t, resp.Moved)

	// selection kept for retry
	assert.Equal(t, 2, s.session.Selection.Len())
}

func TestSelection_BulkMoveNothingSelected(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/selection/move", BulkMoveRequest{StageID: s.sample.Archived})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "nothing selected")
}

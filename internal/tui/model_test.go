package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pipeline-board/internal/board"
	"github.com/jonathan/pipeline-board/internal/directory"
	"github.com/jonathan/pipeline-board/internal/drag"
	"github.com/jonathan/pipeline-board/internal/fixture"
	"github.com/jonathan/pipeline-board/internal/transition"
)

type harness struct {
	m       *Model
	sample  fixture.Sample
	service *fixture.Service
	session *board.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sample := fixture.NewSample()
	service := sample.Service()

	session, err := board.NewSession(service, board.Config{
		CompanyID:         sample.CompanyID,
		TransitionTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, session.Load(context.Background(), sample.Screening, sample.Onboarding))
	t.Cleanup(session.Close)

	h := &harness{
		m:       New(context.Background(), session, sample.Screening, sample.Onboarding),
		sample:  sample,
		service: service,
		session: session,
	}
	h.run(h.m.Init())
	require.NotNil(t, h.m.board)
	return h
}

// run executes cmd and feeds its messages back into the model until quiet.
func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			h.run(c)
		}
	case nil:
	default:
		_, next := h.m.Update(msg)
		h.run(next)
	}
}

func (h *harness) press(k tea.KeyMsg) {
	_, cmd := h.m.Update(k)
	h.run(cmd)
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
)

// focusCard puts the cursor on a candidate's card.
func (h *harness) focusCard(t *testing.T, id uuid.UUID) {
	t.Helper()
	for li, lane := range h.m.lanes() {
		for ci, e := range lane.Entries {
			if e.ID == id {
				h.m.lane, h.m.card = li, ci
				return
			}
		}
	}
	t.Fatalf("card %s not on board", id)
}

// focusLane puts the cursor past the last card of a stage's lane.
func (h *harness) focusLane(t *testing.T, stageID uuid.UUID) {
	t.Helper()
	for li, lane := range h.m.lanes() {
		if lane.Stage.ID == stageID {
			h.m.lane, h.m.card = li, len(lane.Entries)
			return
		}
	}
	t.Fatalf("lane %s not on board", stageID)
}

func (h *harness) assignment(t *testing.T, id uuid.UUID) directory.Assignment {
	t.Helper()
	c, ok := h.session.Directory.Store().Get(id)
	require.True(t, ok)
	return c.Assignment
}

func TestInit_LoadsFirstPhase(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, h.sample.Screening, h.m.board.Phase.ID)
	assert.Len(t, h.m.board.Columns, 3)
	assert.Len(t, h.m.board.Rows, 1)

	view := h.m.View()
	assert.Contains(t, view, "Screening")
	assert.Contains(t, view, "Hidden: Archived")
	assert.Contains(t, view, "Linus Pauling")
}

func TestView_BeforeLoad(t *testing.T) {
	m := New(context.Background(), nil)
	assert.Contains(t, m.View(), "Loading board")
}

func TestGrabAndDrop_OnStage(t *testing.T) {
	h := newHarness(t)

	h.focusCard(t, h.sample.Ada)
	h.press(keySpace)
	state, held := h.session.Drag.State()
	assert.Equal(t, drag.StateDragging, state)
	assert.Equal(t, h.sample.Ada, held)
	assert.Contains(t, h.m.status, "Holding Ada Lovelace")

	h.focusLane(t, h.sample.Rejected)
	h.press(keySpace)

	assert.Equal(t, h.sample.Rejected, h.assignment(t, h.sample.Ada).StageID)
	assert.Equal(t, "Move confirmed", h.m.status)
	assert.Equal(t, 1, h.service.ChangeStageCalls())

	state, _ = h.session.Drag.State()
	assert.Equal(t, drag.StateIdle, state)

	bucket, _, ok := h.m.board.Locate(h.sample.Ada)
	require.True(t, ok)
	assert.Equal(t, h.sample.Rejected, bucket.Stage.ID)
}

func TestGrabAndDrop_OnBorrowedCardPromotes(t *testing.T) {
	h := newHarness(t)

	h.focusCard(t, h.sample.Ada)
	h.press(keySpace)
	h.focusCard(t, h.sample.Linus)
	h.press(keySpace)

	a := h.assignment(t, h.sample.Ada)
	assert.Equal(t, h.sample.Onboarding, a.PhaseID)
	assert.Equal(t, h.sample.OnboardStart, a.StageID)

	bucket, entry, ok := h.m.board.Locate(h.sample.Ada)
	require.True(t, ok)
	assert.Equal(t, h.sample.Hired, bucket.Stage.ID)
	assert.True(t, entry.Borrowed)
}

func TestGrabAndDrop_SameStageIsNoop(t *testing.T) {
	h := newHarness(t)

	h.focusCard(t, h.sample.Ada)
	h.press(keySpace)
	h.focusCard(t, h.sample.Bob)
	h.press(keySpace)

	assert.Equal(t, "Already in that stage", h.m.status)
	assert.Zero(t, h.service.ChangeStageCalls())
}

func TestEscCancelsDrag(t *testing.T) {
	h := newHarness(t)

	h.focusCard(t, h.sample.Grace)
	h.press(keySpace)
	h.press(keyEsc)

	state, _ := h.session.Drag.State()
	assert.Equal(t, drag.StateIdle, state)
	assert.Equal(t, "Drag cancelled", h.m.status)
	assert.Zero(t, h.service.ChangeStageCalls())
}

func TestGrab_EmptyLane(t *testing.T) {
	h := newHarness(t)

	h.focusLane(t, h.sample.Interview)
	h.press(keySpace)

	state, _ := h.session.Drag.State()
	assert.Equal(t, drag.StateIdle, state)
	assert.Equal(t, "Nothing to pick up", h.m.status)
}

func TestMoveMenu(t *testing.T) {
	h := newHarness(t)

	h.focusCard(t, h.sample.Ada)
	h.press(runes("m"))
	require.Equal(t, ModeMoveMenu, h.m.mode)
	require.NotEmpty(t, h.m.options)
	assert.Contains(t, h.m.View(), "Move to")

	idx := -1
	for i, s := range h.m.options {
		if s.ID == h.sample.Interview {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	for range idx {
		h.press(runes("j"))
	}
	h.press(keyEnter)

	assert.Equal(t, ModeBoard, h.m.mode)
	assert.Equal(t, h.sample.Interview, h.assignment(t, h.sample.Ada).StageID)
}

func TestMoveMenu_EscCloses(t *testing.T) {
	h := newHarness(t)

	h.focusCard(t, h.sample.Grace)
	h.press(runes("m"))
	h.press(keyEsc)

	assert.Equal(t, ModeBoard, h.m.mode)
	assert.Nil(t, h.m.options)
	assert.Zero(t, h.service.ChangeStageCalls())
}

func TestRejectedMoveShowsNotification(t *testing.T) {
	h := newHarness(t)
	h.service.RejectStage(h.sample.Rejected, "stage is closed")

	h.focusCard(t, h.sample.Ada)
	h.press(keySpace)
	h.focusLane(t, h.sample.Rejected)
	h.press(keySpace)

	assert.Equal(t, "Move reverted", h.m.status)
	assert.Equal(t, h.sample.Applied, h.assignment(t, h.sample.Ada).StageID)
	require.Len(t, h.m.notes, 1)
	assert.Equal(t, transition.NotificationRejected, h.m.notes[0].Kind)
	assert.Contains(t, h.m.View(), h.m.notes[0].Message)
}

func TestSelectionKeys(t *testing.T) {
	h := newHarness(t)

	h.focusCard(t, h.sample.Ada)
	h.press(runes("x"))
	assert.True(t, h.session.Selection.IsSelected(h.sample.Ada))
	assert.Contains(t, h.m.View(), "[x] Ada Lovelace")

	h.press(runes("x"))
	assert.False(t, h.session.Selection.IsSelected(h.sample.Ada))

	h.press(runes("a"))
	assert.Equal(t, 6, h.session.Selection.Len())

	h.press(runes("X"))
	assert.Zero(t, h.session.Selection.Len())
}

func TestBulkMove(t *testing.T) {
	h := newHarness(t)

	h.session.Selection.Select(h.sample.Ada)
	h.session.Selection.Select(h.sample.Bob)
	h.focusLane(t, h.sample.Rejected)
	h.press(runes("b"))

	assert.Equal(t, "Moved 2 candidate(s)", h.m.status)
	assert.Equal(t, h.sample.Rejected, h.assignment(t, h.sample.Ada).StageID)
	assert.Equal(t, h.sample.Rejected, h.assignment(t, h.sample.Bob).StageID)
	assert.Zero(t, h.session.Selection.Len())
}

func TestBulkMove_NothingSelected(t *testing.T) {
	h := newHarness(t)

	h.focusLane(t, h.sample.Rejected)
	h.press(runes("b"))

	assert.Equal(t, "Nothing selected", h.m.status)
	assert.Zero(t, h.service.ChangeStageCalls())
}

func TestNextPhase(t *testing.T) {
	h := newHarness(t)

	h.press(keyTab)
	assert.Equal(t, h.sample.Onboarding, h.m.board.Phase.ID)

	h.press(keyTab)
	assert.Equal(t, h.sample.Screening, h.m.board.Phase.ID)
}

func TestReload(t *testing.T) {
	h := newHarness(t)
	before := h.service.ListCalls()

	h.press(runes("r"))

	assert.Greater(t, h.service.ListCalls(), before)
	assert.NotNil(t, h.m.board)
	assert.NoError(t, h.m.err)
}

func TestCursorStaysInBounds(t *testing.T) {
	h := newHarness(t)

	for range 10 {
		h.press(runes("l"))
	}
	assert.Equal(t, len(h.m.lanes())-1, h.m.lane)

	for range 10 {
		h.press(runes("j"))
	}
	lane := h.m.lanes()[h.m.lane]
	assert.LessOrEqual(t, h.m.card, max(0, len(lane.Entries)-1))

	for range 10 {
		h.press(runes("h"))
	}
	assert.Zero(t, h.m.lane)
}

func TestQuit(t *testing.T) {
	h := newHarness(t)

	_, cmd := h.m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

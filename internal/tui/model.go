// Package tui is a keyboard-driven terminal board. Cards are picked up and
// dropped through the drag controller, so the terminal follows the same rules
// as a pointer drag: dropping on a card joins that card's actual stage.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/board"
	"github.com/jonathan/pipeline-board/internal/buckets"
	"github.com/jonathan/pipeline-board/internal/drag"
	"github.com/jonathan/pipeline-board/internal/selection"
	"github.com/jonathan/pipeline-board/internal/transition"
	"github.com/jonathan/pipeline-board/internal/workflow"
)

// maxNotes is how many rollback notifications stay on screen.
const maxNotes = 3

// Mode is the current input mode.
type Mode int

const (
	ModeBoard Mode = iota
	ModeMoveMenu
)

// Model is the Bubbletea model for the board.
type Model struct {
	ctx      context.Context
	session  *board.Session
	phaseIDs []uuid.UUID
	phaseIdx int

	board *buckets.Board
	lane  int // index into lanes()
	card  int // index into the lane's entries

	mode     Mode
	options  []workflow.Stage
	optIdx   int
	optFor   uuid.UUID
	notes    []transition.Notification
	status   string
	err      error
	keys     KeyMap
	help     help.Model
	showHelp bool
	width    int
}

// New creates a board model over the given phases; the first is shown first.
func New(ctx context.Context, session *board.Session, phaseIDs ...uuid.UUID) *Model {
	return &Model{
		ctx:      ctx,
		session:  session,
		phaseIDs: phaseIDs,
		keys:     DefaultKeyMap(),
		help:     help.New(),
	}
}

// boardMsg carries a freshly rendered board.
type boardMsg struct {
	board *buckets.Board
	err   error
}

// transitionMsg is sent when a transition completes.
type transitionMsg struct {
	result transition.Result
}

// bulkMsg is sent when a bulk move completes.
type bulkMsg struct {
	moved int
	err   error
}

// Init loads the first board.
func (m *Model) Init() tea.Cmd {
	m.session.Filter(selection.Filter{})
	return tea.Batch(m.loadBoard(), tea.SetWindowTitle("Pipeline board"))
}

func (m *Model) phaseID() uuid.UUID {
	if len(m.phaseIDs) == 0 {
		return uuid.Nil
	}
	return m.phaseIDs[m.phaseIdx]
}

func (m *Model) loadBoard() tea.Cmd {
	phaseID := m.phaseID()
	return func() tea.Msg {
		b, err := m.session.Board(m.ctx, phaseID)
		return boardMsg{board: b, err: err}
	}
}

func (m *Model) reload() tea.Cmd {
	return func() tea.Msg {
		m.session.Catalog.Invalidate()
		if err := m.session.Engine.Reconcile(m.ctx); err != nil {
			return boardMsg{err: err}
		}
		m.session.Filter(selection.Filter{})
		b, err := m.session.Board(m.ctx, m.phaseID())
		return boardMsg{board: b, err: err}
	}
}

func waitFor(ctx context.Context, p *transition.PendingTransition) tea.Cmd {
	return func() tea.Msg {
		res, err := p.Wait(ctx)
		if err != nil {
			return transitionMsg{result: transition.Result{CandidateID: p.Snapshot.CandidateID, Err: err}}
		}
		return transitionMsg{result: res}
	}
}

// lanes are the columns followed by the rows.
func (m *Model) lanes() []buckets.Bucket {
	if m.board == nil {
		return nil
	}
	out := make([]buckets.Bucket, 0, len(m.board.Columns)+len(m.board.Rows))
	out = append(out, m.board.Columns...)
	return append(out, m.board.Rows...)
}

// current returns the lane and card under the cursor.
func (m *Model) current() (buckets.Bucket, *buckets.Entry, bool) {
	lanes := m.lanes()
	if m.lane < 0 || m.lane >= len(lanes) {
		return buckets.Bucket{}, nil, false
	}
	lane := lanes[m.lane]
	if m.card >= 0 && m.card < len(lane.Entries) {
		return lane, &lane.Entries[m.card], true
	}
	return lane, nil, true
}

func (m *Model) clamp() {
	lanes := m.lanes()
	m.lane = max(0, min(m.lane, len(lanes)-1))
	if len(lanes) == 0 {
		m.card = 0
		return
	}
	m.card = max(0, min(m.card, len(lanes[m.lane].Entries)-1))
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case boardMsg:
		m.err = msg.err
		if msg.err == nil {
			m.board = msg.board
			m.clamp()
		}
		return m, nil

	case transitionMsg:
		m.pullNotes()
		res := msg.result
		switch {
		case res.Outcome == transition.OutcomeConfirmed:
			m.status = "Move confirmed"
		case res.Outcome == transition.OutcomeRolledBack:
			m.status = "Move reverted"
		case res.Err != nil:
			m.status = "Move interrupted: " + res.Err.Error()
		}
		return m, m.loadBoard()

	case bulkMsg:
		m.pullNotes()
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Moved %d candidate(s)", msg.moved)
		}
		return m, m.loadBoard()

	case tea.KeyMsg:
		if m.mode == ModeMoveMenu {
			return m.updateMenu(msg)
		}
		return m.updateBoard(msg)
	}
	return m, nil
}

func (m *Model) pullNotes() {
	m.notes = append(m.notes, m.session.Inbox.Drain()...)
	if over := len(m.notes) - maxNotes; over > 0 {
		m.notes = m.notes[over:]
	}
}

func (m *Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, m.keys.Left):
		if m.lane > 0 {
			m.lane--
			m.clamp()
		}

	case key.Matches(msg, m.keys.Right):
		if m.lane < len(m.lanes())-1 {
			m.lane++
			m.clamp()
		}

	case key.Matches(msg, m.keys.Up):
		if m.card > 0 {
			m.card--
		}

	case key.Matches(msg, m.keys.Down):
		m.card++
		m.clamp()

	case key.Matches(msg, m.keys.Grab):
		return m, m.grabOrDrop()

	case key.Matches(msg, m.keys.Cancel):
		if state, _ := m.session.Drag.State(); state == drag.StateDragging {
			m.session.Drag.Cancel()
			m.status = "Drag cancelled"
		}

	case key.Matches(msg, m.keys.MoveTo):
		m.openMenu()

	case key.Matches(msg, m.keys.Toggle):
		if _, entry, ok := m.current(); ok && entry != nil {
			m.session.Selection.Toggle(entry.ID)
		}

	case key.Matches(msg, m.keys.SelectAll):
		n := m.session.Selection.SelectAll()
		m.status = fmt.Sprintf("Selected %d candidate(s)", n)

	case key.Matches(msg, m.keys.Clear):
		m.session.Selection.Clear()

	case key.Matches(msg, m.keys.BulkMove):
		return m, m.bulkMove()

	case key.Matches(msg, m.keys.NextPhase):
		if len(m.phaseIDs) > 1 {
			m.phaseIdx = (m.phaseIdx + 1) % len(m.phaseIDs)
			m.lane, m.card = 0, 0
			return m, m.loadBoard()
		}

	case key.Matches(msg, m.keys.Reload):
		m.status = "Reloading…"
		return m, m.reload()
	}
	return m, nil
}

// grabOrDrop picks up the card under the cursor, or drops the held card on the
// card or stage under the cursor.
func (m *Model) grabOrDrop() tea.Cmd {
	lane, entry, ok := m.current()
	if !ok {
		return nil
	}

	if state, _ := m.session.Drag.State(); state == drag.StateIdle {
		if entry == nil {
			m.status = "Nothing to pick up"
			return nil
		}
		if err := m.session.Drag.Begin(entry.ID); err != nil {
			m.status = err.Error()
			return nil
		}
		m.status = fmt.Sprintf("Holding %s; press space over a stage or card to drop", entry.Name)
		return nil
	}

	target := drag.Target{Kind: drag.TargetStage, ID: lane.Stage.ID}
	if entry != nil {
		target = drag.Target{Kind: drag.TargetCard, ID: entry.ID}
	}
	p, err := m.session.Drag.Drop(m.ctx, &target)
	return m.started(p, err)
}

// started reacts to a transition that was just issued.
func (m *Model) started(p *transition.PendingTransition, err error) tea.Cmd {
	if err != nil {
		m.status = err.Error()
		return nil
	}
	if p == nil {
		return nil
	}
	if res, done := p.Result(); done && res.Outcome == transition.OutcomeNoop {
		m.status = "Already in that stage"
		return nil
	}
	m.status = "Moving…"
	return tea.Batch(m.loadBoard(), waitFor(m.ctx, p))
}

func (m *Model) openMenu() {
	_, entry, ok := m.current()
	if !ok || entry == nil {
		m.status = "No card under cursor"
		return
	}
	opts, err := m.session.Drag.MoveOptions(m.ctx, entry.ID)
	if err != nil {
		m.status = err.Error()
		return
	}
	if len(opts) == 0 {
		m.status = "No stages to move to"
		return
	}
	m.mode = ModeMoveMenu
	m.options = opts
	m.optIdx = 0
	m.optFor = entry.ID
}

func (m *Model) closeMenu() {
	m.mode = ModeBoard
	m.options = nil
	m.optFor = uuid.Nil
}

func (m *Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.MoveTo):
		m.closeMenu()
	case key.Matches(msg, m.keys.Up):
		if m.optIdx > 0 {
			m.optIdx--
		}
	case key.Matches(msg, m.keys.Down):
		if m.optIdx < len(m.options)-1 {
			m.optIdx++
		}
	case key.Matches(msg, m.keys.Confirm):
		candidateID, stageID := m.optFor, m.options[m.optIdx].ID
		m.closeMenu()
		p, err := m.session.Drag.MoveToStage(m.ctx, candidateID, stageID)
		return m, m.started(p, err)
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// bulkMove moves every selected candidate to the stage of the lane under the cursor.
func (m *Model) bulkMove() tea.Cmd {
	lane, _, ok := m.current()
	if !ok {
		return nil
	}
	n := m.session.Selection.Len()
	if n == 0 {
		m.status = "Nothing selected"
		return nil
	}
	m.status = fmt.Sprintf("Moving %d candidate(s) to %s…", n, lane.Stage.Name)
	action := selection.MoveAction(m.session.Engine, lane.Stage.ID)
	return func() tea.Msg {
		err := m.session.Selection.Run(m.ctx, action)
		return bulkMsg{moved: n, err: err}
	}
}

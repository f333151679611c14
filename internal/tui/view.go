package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/buckets"
	"github.com/jonathan/pipeline-board/internal/drag"
)

// View renders the board.
func (m *Model) View() string {
	var b strings.Builder

	if m.board == nil {
		if m.err != nil {
			b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
			b.WriteString("\n")
		} else {
			b.WriteString(statusStyle.Render("Loading board…"))
			b.WriteString("\n")
		}
		b.WriteString(m.help.View(m.keys))
		return b.String()
	}

	b.WriteString(titleStyle.Render(m.board.Phase.Name))
	b.WriteString("\n")

	_, held := m.session.Drag.State()
	nCols := len(m.board.Columns)

	if nCols > 0 {
		b.WriteString(m.renderLanes(m.board.Columns, 0, held))
		b.WriteString("\n")
	}
	if len(m.board.Rows) > 0 {
		b.WriteString(m.renderLanes(m.board.Rows, nCols, held))
		b.WriteString("\n")
	}
	if len(m.board.Hidden) > 0 {
		names := make([]string, len(m.board.Hidden))
		for i, s := range m.board.Hidden {
			names[i] = s.Name
		}
		b.WriteString(statusStyle.Render("Hidden: " + strings.Join(names, ", ")))
		b.WriteString("\n")
	}

	if m.mode == ModeMoveMenu {
		b.WriteString(m.renderMenu())
		b.WriteString("\n")
	}

	for _, n := range m.notes {
		b.WriteString(noteStyle.Render("! " + n.Message))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	if line := m.statusLine(); line != "" {
		b.WriteString(statusStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderLanes draws buckets side by side; offset is the lane index of the first.
func (m *Model) renderLanes(group []buckets.Bucket, offset int, held uuid.UUID) string {
	rendered := make([]string, len(group))
	for i, bucket := range group {
		active := offset+i == m.lane
		rendered[i] = m.renderLane(bucket, active, held)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m *Model) renderLane(bucket buckets.Bucket, active bool, held uuid.UUID) string {
	var b strings.Builder
	title := bucket.Stage.Name
	if bucket.Stage.Style.Icon != "" {
		title = bucket.Stage.Style.Icon + " " + title
	}
	b.WriteString(laneTitleStyle.Render(fmt.Sprintf("%s (%d)", title, len(bucket.Entries))))

	if len(bucket.Entries) == 0 {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render("empty"))
	}
	for i, e := range bucket.Entries {
		b.WriteString("\n")
		b.WriteString(m.renderCard(e, active && i == m.card, e.ID == held))
	}

	return laneAccent(bucket.Stage.Style.Color, active).Render(b.String())
}

func (m *Model) renderCard(e buckets.Entry, cursor, held bool) string {
	box := "[ ]"
	if m.session.Selection.IsSelected(e.ID) {
		box = "[x]"
	}
	line := box + " " + e.Name
	if e.Borrowed {
		line = borrowedStyle.Render(line + " ↪")
	}
	switch {
	case held:
		return heldStyle.Render(line)
	case cursor:
		return cursorStyle.Render(line)
	default:
		return line
	}
}

func (m *Model) renderMenu() string {
	var b strings.Builder
	b.WriteString(laneTitleStyle.Render("Move to"))
	for i, s := range m.options {
		prefix := "  "
		if i == m.optIdx {
			prefix = "> "
		}
		b.WriteString("\n")
		b.WriteString(prefix + s.Name)
	}
	return menuStyle.Render(b.String())
}

func (m *Model) statusLine() string {
	if state, _ := m.session.Drag.State(); state == drag.StateDragging && m.status == "" {
		return "Holding a card"
	}
	return m.status
}

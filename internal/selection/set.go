package selection

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/directory"
)

// Set is the multi-select state of the board's row list. Selection is scoped to
// the visible list, but ids that stop being visible are not pruned automatically:
// callers must tolerate selected ids that are absent from the current view, or
// call Prune.
type Set struct {
	mu       sync.Mutex
	visible  []uuid.UUID
	isShown  map[uuid.UUID]bool
	selected map[uuid.UUID]bool
	order    []uuid.UUID
}

// NewSet creates an empty selection.
func NewSet() *Set {
	return &Set{
		isShown:  make(map[uuid.UUID]bool),
		selected: make(map[uuid.UUID]bool),
	}
}

// SetVisible replaces the visible list.
func (s *Set) SetVisible(ids []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = append([]uuid.UUID(nil), ids...)
	s.isShown = make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		s.isShown[id] = true
	}
}

// Refresh recomputes the visible list from the directory and a filter and returns it.
func (s *Set) Refresh(dir directory.Reader, f Filter) []directory.Candidate {
	visible := f.Apply(dir)
	ids := make([]uuid.UUID, len(visible))
	for i, c := range visible {
		ids[i] = c.ID
	}
	s.SetVisible(ids)
	return visible
}

// Visible returns the current visible list.
func (s *Set) Visible() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.visible...)
}

// Select adds a visible candidate. It reports false for ids outside the view.
func (s *Set) Select(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isShown[id] {
		return false
	}
	s.add(id)
	return true
}

func (s *Set) add(id uuid.UUID) {
	if s.selected[id] {
		return
	}
	s.selected[id] = true
	s.order = append(s.order, id)
}

// Deselect removes a candidate from the selection.
func (s *Set) Deselect(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(id)
}

func (s *Set) remove(id uuid.UUID) {
	if !s.selected[id] {
		return
	}
	delete(s.selected, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Toggle flips a candidate's selection and returns whether it is now selected.
func (s *Set) Toggle(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected[id] {
		s.remove(id)
		return false
	}
	if !s.isShown[id] {
		return false
	}
	s.add(id)
	return true
}

// SelectAll selects exactly the visible list, replacing any previous selection.
func (s *Set) SelectAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[uuid.UUID]bool, len(s.visible))
	s.order = nil
	for _, id := range s.visible {
		s.add(id)
	}
	return len(s.order)
}

// Clear empties the selection.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[uuid.UUID]bool)
	s.order = nil
}

// Prune drops selected ids that are no longer visible and returns how many were dropped.
func (s *Set) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var dropped []uuid.UUID
	for _, id := range s.order {
		if !s.isShown[id] {
			dropped = append(dropped, id)
		}
	}
	for _, id := range dropped {
		s.remove(id)
	}
	return len(dropped)
}

// Selected returns the selected ids in selection order.
func (s *Set) Selected() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.order...)
}

// IsSelected reports whether id is selected.
func (s *Set) IsSelected(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[id]
}

// Len returns the number of selected ids.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Action is a bulk action over selected candidate ids.
type Action func(ctx context.Context, ids []uuid.UUID) error

// Run executes action over the current selection and clears it on success.
// On failure the selection is left intact so the user can retry.
func (s *Set) Run(ctx context.Context, action Action) error {
	ids := s.Selected()
	if len(ids) == 0 {
		return &Error{Message: "nothing selected"}
	}
	if err := action(ctx, ids); err != nil {
		return err
	}
	s.Clear()
	return nil
}

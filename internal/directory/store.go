// Package directory holds the candidates of a company and their current pipeline
// assignment, as last reported by the candidate service.
package directory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Assignment is the (phase, stage) pair a candidate occupies. It is always
// replaced as a unit so the stage never points into another phase.
type Assignment struct {
	PhaseID uuid.UUID `json:"phase_id"`
	StageID uuid.UUID `json:"current_stage_id"`
}

// Candidate is a candidate together with its pipeline assignment.
type Candidate struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Priority int       `json:"priority"`
	Tags     []string  `json:"tags,omitempty"`
	Assignment
}

// Reader is the read-only view used by rendering, drag resolution and selection.
type Reader interface {
	Get(id uuid.UUID) (Candidate, bool)
	List() []Candidate
	InStage(a Assignment) []Candidate
}

// Store is the owned candidate map. Reads are safe from any goroutine; writes
// are whole-record replacements made by the transition engine and by reloads.
type Store struct {
	mu      sync.RWMutex
	order   []uuid.UUID
	records map[uuid.UUID]Candidate
}

var _ Reader = (*Store)(nil)

// NewStore creates a store seeded with candidates in retrieval order.
func NewStore(candidates []Candidate) *Store {
	s := &Store{records: make(map[uuid.UUID]Candidate)}
	s.ReplaceAll(candidates, nil)
	return s
}

// Get returns a copy of a candidate.
func (s *Store) Get(id uuid.UUID) (Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.records[id]
	return clone(c), ok
}

// List returns every candidate in retrieval order.
func (s *Store) List() []Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Candidate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.records[id]))
	}
	return out
}

// InStage returns candidates assigned exactly to a, in retrieval order.
func (s *Store) InStage(a Assignment) []Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Candidate
	for _, id := range s.order {
		if c := s.records[id]; c.Assignment == a {
			out = append(out, clone(c))
		}
	}
	return out
}

// Len returns the number of candidates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// SwapAssignment replaces a candidate's assignment and returns the previous one.
func (s *Store) SwapAssignment(id uuid.UUID, next Assignment) (Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.records[id]
	if !ok {
		return Assignment{}, fmt.Errorf("candidate %s not in directory", id)
	}
	prev := c.Assignment
	c.Assignment = next
	s.records[id] = c
	return prev, nil
}

// ReplaceAll swaps in a fresh candidate list. Records for which keep returns true
// retain their local assignment; a kept candidate missing from the fresh list
// stays in the store at the end of the order.
func (s *Store) ReplaceAll(candidates []Candidate, keep func(uuid.UUID) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make(map[uuid.UUID]Candidate, len(candidates))
	order := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := records[c.ID]; dup {
			continue
		}
		if keep != nil && keep(c.ID) {
			if local, ok := s.records[c.ID]; ok {
				c.Assignment = local.Assignment
			}
		}
		records[c.ID] = clone(c)
		order = append(order, c.ID)
	}
	if keep != nil {
		for _, id := range s.order {
			if _, present := records[id]; !present && keep(id) {
				records[id] = s.records[id]
				order = append(order, id)
			}
		}
	}
	s.records = records
	s.order = order
}

func clone(c Candidate) Candidate {
	if c.Tags != nil {
		c.Tags = append([]string(nil), c.Tags...)
	}
	return c
}

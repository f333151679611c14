// Package fixture is an in-memory candidate service backed by a JSON board file.
// It serves the same four operations as the REST client, which makes it usable
// as an offline board source and as the remote side in tests.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/directory"
	"github.com/jonathan/pipeline-board/internal/schemas"
	"github.com/jonathan/pipeline-board/internal/workflow"
)

// StageSpec is a stage as written in a board file. RejectReason makes the service
// refuse moves into the stage, the way a role-gated stage would.
type StageSpec struct {
	workflow.Stage
	RejectReason string `json:"reject_reason,omitempty"`
}

// PhaseSpec is a phase and its stages as written in a board file.
type PhaseSpec struct {
	workflow.Phase
	Stages []StageSpec `json:"stages"`
}

// File is the board file layout.
type File struct {
	CompanyID  uuid.UUID             `json:"company_id"`
	Phases     []PhaseSpec           `json:"phases"`
	Candidates []directory.Candidate `json:"candidates"`
}

// RejectedError is the service refusing a command.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return e.Reason }

// RejectionReason returns the refusal text verbatim.
func (e *RejectedError) RejectionReason() string { return e.Reason }

// Service is the in-memory candidate service.
type Service struct {
	mu         sync.Mutex
	companyID  uuid.UUID
	phases     map[uuid.UUID]workflow.Phase
	stages     map[uuid.UUID][]workflow.Stage
	stageIndex map[uuid.UUID]workflow.Stage
	rejects    map[uuid.UUID]string
	candidates []directory.Candidate

	latency     time.Duration
	failNext    error
	changeCalls int
	listCalls   int
}

// Load reads and validates a board file.
func Load(path string) (*Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates board file content against the board schema and builds a service.
func Parse(data []byte) (*Service, error) {
	if err := schemas.ValidateBoard(data); err != nil {
		return nil, fmt.Errorf("invalid board file: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse board file: %w", err)
	}
	return New(f), nil
}

// New builds a service from an in-memory board description.
func New(f File) *Service {
	s := &Service{
		companyID:  f.CompanyID,
		phases:     make(map[uuid.UUID]workflow.Phase),
		stages:     make(map[uuid.UUID][]workflow.Stage),
		stageIndex: make(map[uuid.UUID]workflow.Stage),
		rejects:    make(map[uuid.UUID]string),
	}
	for _, p := range f.Phases {
		phase := p.Phase
		phase.CompanyID = f.CompanyID
		s.phases[phase.ID] = phase
		for _, spec := range p.Stages {
			st := spec.Stage
			st.PhaseID = phase.ID
			s.stages[phase.ID] = append(s.stages[phase.ID], st)
			s.stageIndex[st.ID] = st
			if spec.RejectReason != "" {
				s.rejects[st.ID] = spec.RejectReason
			}
		}
	}
	s.candidates = append(s.candidates, f.Candidates...)
	return s
}

// CompanyID returns the company the board belongs to.
func (s *Service) CompanyID() uuid.UUID { return s.companyID }

// Phases returns every phase ordered by sort order.
func (s *Service) Phases() []workflow.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]workflow.Phase, 0, len(s.phases))
	for _, p := range s.phases {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// SetLatency delays every command and listing by d.
func (s *Service) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// FailNext makes the next ChangeStage return err without applying it.
func (s *Service) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// RejectStage makes moves into stageID fail with reason.
func (s *Service) RejectStage(stageID uuid.UUID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejects[stageID] = reason
}

// ChangeStageCalls returns how many stage-change commands were received.
func (s *Service) ChangeStageCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changeCalls
}

// ListCalls returns how many candidate listings were served.
func (s *Service) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *Service) wait(ctx context.Context) error {
	s.mu.Lock()
	d := s.latency
	s.mu.Unlock()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListCandidatesByCompany returns the company's candidates in board-file order.
func (s *Service) ListCandidatesByCompany(ctx context.Context, companyID uuid.UUID) ([]directory.Candidate, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if companyID != s.companyID {
		return nil, nil
	}
	out := make([]directory.Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out, nil
}

// ChangeStage moves a candidate within its phase or into the initial stage of a
// phase linked from one of its phase's success stages.
func (s *Service) ChangeStage(ctx context.Context, candidateID, newStageID uuid.UUID) (*directory.Candidate, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changeCalls++

	if err := s.failNext; err != nil {
		s.failNext = nil
		return nil, err
	}
	idx := -1
	for i, c := range s.candidates {
		if c.ID == candidateID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &RejectedError{Reason: "candidate not found"}
	}
	target, ok := s.stageIndex[newStageID]
	if !ok {
		return nil, &RejectedError{Reason: "unknown stage"}
	}
	if reason, gated := s.rejects[newStageID]; gated {
		return nil, &RejectedError{Reason: reason}
	}
	c := s.candidates[idx]
	if target.PhaseID != c.PhaseID && !s.promotesInto(c.PhaseID, target) {
		return nil, &RejectedError{Reason: "invalid stage for candidate's phase"}
	}
	c.Assignment = directory.Assignment{PhaseID: target.PhaseID, StageID: target.ID}
	s.candidates[idx] = c
	out := c
	return &out, nil
}

func (s *Service) promotesInto(fromPhase uuid.UUID, target workflow.Stage) bool {
	if target.Type != workflow.StageInitial {
		return false
	}
	for _, st := range s.stages[fromPhase] {
		if st.LinksToPhase() && *st.NextPhaseID == target.PhaseID {
			return true
		}
	}
	return false
}

// GetPhase returns a phase of the company, or nil when it does not exist.
func (s *Service) GetPhase(ctx context.Context, companyID, phaseID uuid.UUID) (*workflow.Phase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.phases[phaseID]
	if !ok || companyID != s.companyID {
		return nil, nil
	}
	return &p, nil
}

// ListStagesByPhase returns the stages of a phase of the given workflow type.
func (s *Service) ListStagesByPhase(ctx context.Context, phaseID uuid.UUID, workflowType string) ([]workflow.Stage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.phases[phaseID]; !ok || (workflowType != "" && p.WorkflowType != workflowType) {
		return nil, nil
	}
	return append([]workflow.Stage(nil), s.stages[phaseID]...), nil
}

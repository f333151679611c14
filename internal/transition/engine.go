// Package transition applies stage transitions optimistically against the
// candidate service and rolls them back when the service refuses or cannot be reached.
//
// Every Transition call runs in two phases:
//
//	snapshot + local swap ──► ChangeStage ──ok──► confirm, reconcile reload
//	                                     └─err─► restore last confirmed assignment, notify
//
// Per-candidate sequence numbers make overlapping transitions deterministic: only
// the latest issued transition for a candidate may finalize or restore its local state.
package transition

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/directory"
	"github.com/jonathan/pipeline-board/internal/logger"
	"github.com/jonathan/pipeline-board/internal/workflow"
)

// DefaultTimeout bounds how long a move may stay unconfirmed before it is rolled back.
const DefaultTimeout = 30 * time.Second

// DefaultJournalTimeout bounds one journal write. A slow journal delays a
// transition's completion by at most this much.
const DefaultJournalTimeout = 5 * time.Second

// DefaultReloadTimeout bounds the reconciliation reload after a confirmed move.
const DefaultReloadTimeout = 30 * time.Second

// Commander is the authoritative stage-change command of the candidate service.
type Commander interface {
	ChangeStage(ctx context.Context, candidateID, newStageID uuid.UUID) (*directory.Candidate, error)
}

// Reloader refreshes the directory store from the candidate service. keep is
// called with the store locked for each candidate whose local assignment must survive.
type Reloader interface {
	Reload(ctx context.Context, keep func(uuid.UUID) bool) error
}

// Record is a completed transition as written to a Journal.
type Record struct {
	CandidateID uuid.UUID
	Seq         uint64
	From        directory.Assignment
	To          directory.Assignment
	Outcome     Outcome
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Journal persists completed transitions.
type Journal interface {
	RecordTransition(ctx context.Context, rec Record) error
}

// Config holds optional engine collaborators and limits.
type Config struct {
	Timeout        time.Duration
	ReloadTimeout  time.Duration
	JournalTimeout time.Duration
	Notifier       Notifier
	Journal        Journal
	Logger         *logger.Logger
}

// flight tracks the outstanding transitions of one candidate.
type flight struct {
	latest    uint64
	pending   int
	confirmed directory.Assignment
}

// Engine validates and applies stage transitions.
type Engine struct {
	store    *directory.Store
	catalog  *workflow.Catalog
	cmd      Commander
	reloader Reloader
	notifier Notifier
	journal  Journal
	log      *logger.Logger

	timeout        time.Duration
	reloadTimeout  time.Duration
	journalTimeout time.Duration

	mu      sync.Mutex
	seq     uint64
	flights map[uuid.UUID]*flight
	// active mirrors the keys of flights; read without mu while the store is locked
	active sync.Map

	wg sync.WaitGroup
}

// NewEngine wires an engine. reloader may be nil to skip reconciliation.
func NewEngine(store *directory.Store, catalog *workflow.Catalog, cmd Commander, reloader Reloader, cfg Config) *Engine {
	log := logger.OrNop(cfg.Logger)
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ReloadTimeout <= 0 {
		cfg.ReloadTimeout = DefaultReloadTimeout
	}
	if cfg.JournalTimeout <= 0 {
		cfg.JournalTimeout = DefaultJournalTimeout
	}
	if cfg.Notifier == nil {
		cfg.Notifier = LogNotifier{Log: log}
	}
	return &Engine{
		store:          store,
		catalog:        catalog,
		cmd:            cmd,
		reloader:       reloader,
		notifier:       cfg.Notifier,
		journal:        cfg.Journal,
		log:            log.With("component", "transition.Engine"),
		timeout:        cfg.Timeout,
		reloadTimeout:  cfg.ReloadTimeout,
		journalTimeout: cfg.JournalTimeout,
		flights:        make(map[uuid.UUID]*flight),
	}
}

// Transition moves a candidate to targetStageID. The local assignment changes
// before this returns; the returned PendingTransition completes once the server
// has answered. A target equal to the current stage resolves immediately as a
// no-op without any network call.
func (e *Engine) Transition(ctx context.Context, candidateID, targetStageID uuid.UUID) (*PendingTransition, error) {
	c, ok := e.store.Get(candidateID)
	if !ok {
		return nil, &ValidationError{CandidateID: candidateID, StageID: targetStageID, Message: "candidate not in directory"}
	}
	if c.StageID == targetStageID {
		return resolvedNoop(c), nil
	}

	target, err := e.resolveTarget(ctx, c, targetStageID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.seq++
	seq := e.seq
	f := e.flights[candidateID]
	if f == nil {
		// marked before the swap so a concurrent reload cannot overwrite it
		e.active.Store(candidateID, struct{}{})
	}
	prev, err := e.store.SwapAssignment(candidateID, target)
	if err != nil {
		if f == nil {
			e.active.Delete(candidateID)
		}
		e.mu.Unlock()
		return nil, &ValidationError{CandidateID: candidateID, StageID: targetStageID, Message: err.Error()}
	}
	if f == nil {
		f = &flight{confirmed: prev}
		e.flights[candidateID] = f
	}
	f.latest = seq
	f.pending++
	e.mu.Unlock()

	snap := Snapshot{CandidateID: candidateID, PreviousPhaseID: prev.PhaseID, PreviousStageID: prev.StageID}
	p := newPending(snap, seq, target)
	e.log.Debug("transition applied locally",
		"candidate_id", candidateID, "seq", seq,
		"from_stage", prev.StageID, "to_stage", target.StageID, "to_phase", target.PhaseID)

	e.wg.Add(1)
	go e.await(context.WithoutCancel(ctx), p, c.Name)
	return p, nil
}

// resolveTarget checks that the stage is reachable from the phase the candidate is
// actually assigned to: one of its own stages, or the initial stage of a phase
// linked from one of its success stages.
func (e *Engine) resolveTarget(ctx context.Context, c directory.Candidate, stageID uuid.UUID) (directory.Assignment, error) {
	def, err := e.catalog.Definition(ctx, c.PhaseID)
	if err != nil {
		return directory.Assignment{}, err
	}
	if def.Contains(stageID) {
		return directory.Assignment{PhaseID: c.PhaseID, StageID: stageID}, nil
	}
	for _, link := range def.SuccessLinks() {
		initial, ok, err := e.catalog.LinkedInitial(ctx, link)
		if err != nil || !ok {
			continue
		}
		if initial.ID == stageID {
			return directory.Assignment{PhaseID: initial.PhaseID, StageID: initial.ID}, nil
		}
	}
	return directory.Assignment{}, &ValidationError{
		CandidateID: c.ID,
		StageID:     stageID,
		Message:     "stage is not reachable from the candidate's phase",
	}
}

// Targets lists every stage the candidate may be moved to, own phase first.
func (e *Engine) Targets(ctx context.Context, candidateID uuid.UUID) ([]workflow.Stage, error) {
	c, ok := e.store.Get(candidateID)
	if !ok {
		return nil, &ValidationError{CandidateID: candidateID, Message: "candidate not in directory"}
	}
	def, err := e.catalog.Definition(ctx, c.PhaseID)
	if err != nil {
		return nil, err
	}
	out := def.Stages()
	for _, link := range def.SuccessLinks() {
		if initial, ok, err := e.catalog.LinkedInitial(ctx, link); err == nil && ok {
			out = append(out, initial)
		}
	}
	return out, nil
}

func (e *Engine) await(ctx context.Context, p *PendingTransition, name string) {
	defer e.wg.Done()
	started := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	updated, err := e.cmd.ChangeStage(callCtx, p.Snapshot.CandidateID, p.Target.StageID)
	cancel()

	res := e.complete(p, updated, err)

	if err != nil && res.Outcome == OutcomeRolledBack {
		e.notifier.Notify(newNotification(p.Snapshot.CandidateID, name, res.Err))
	}
	if err == nil && e.reloader != nil {
		reloadCtx, cancelReload := context.WithTimeout(ctx, e.reloadTimeout)
		res.ReloadErr = e.Reconcile(reloadCtx)
		cancelReload()
		if res.ReloadErr != nil {
			e.log.Warn("reconciliation reload failed", "candidate_id", p.Snapshot.CandidateID, "error", res.ReloadErr)
		}
		if c, ok := e.store.Get(p.Snapshot.CandidateID); ok && res.Outcome == OutcomeConfirmed {
			res.Assignment = c.Assignment
		}
	}
	e.record(ctx, p, res, started)
	p.resolve(res)
}

// complete applies the server's verdict to local state under the engine lock.
func (e *Engine) complete(p *PendingTransition, updated *directory.Candidate, callErr error) Result {
	id := p.Snapshot.CandidateID
	res := Result{CandidateID: id, Seq: p.Seq}

	e.mu.Lock()
	defer e.mu.Unlock()

	f := e.flights[id]
	f.pending--
	latest := f.latest == p.Seq
	defer func() {
		if f.pending == 0 {
			delete(e.flights, id)
			e.active.Delete(id)
		}
	}()

	if callErr != nil {
		res.Err = classify(id, callErr)
		if !latest {
			res.Outcome = OutcomeSuperseded
			e.log.Info("stale transition failed, newer transition pending", "candidate_id", id, "seq", p.Seq, "error", res.Err)
			return res
		}
		if _, err := e.store.SwapAssignment(id, f.confirmed); err != nil {
			e.log.Warn("rollback target vanished from directory", "candidate_id", id, "error", err)
		}
		res.Outcome = OutcomeRolledBack
		res.Assignment = f.confirmed
		e.log.Info("transition rolled back", "candidate_id", id, "seq", p.Seq, "error", res.Err)
		return res
	}

	confirmed := p.Target
	if updated != nil && updated.StageID != uuid.Nil && updated.PhaseID != uuid.Nil {
		confirmed = updated.Assignment
	}
	f.confirmed = confirmed
	if !latest {
		res.Outcome = OutcomeSuperseded
		e.log.Info("stale transition confirmed, newer transition pending", "candidate_id", id, "seq", p.Seq)
		return res
	}
	if _, err := e.store.SwapAssignment(id, confirmed); err != nil {
		e.log.Warn("confirmed candidate vanished from directory", "candidate_id", id, "error", err)
	}
	res.Outcome = OutcomeConfirmed
	res.Assignment = confirmed
	e.log.Debug("transition confirmed", "candidate_id", id, "seq", p.Seq)
	return res
}

func (e *Engine) record(ctx context.Context, p *PendingTransition, res Result, started time.Time) {
	if e.journal == nil {
		return
	}
	rec := Record{
		CandidateID: p.Snapshot.CandidateID,
		Seq:         p.Seq,
		From:        p.Snapshot.Assignment(),
		To:          p.Target,
		Outcome:     res.Outcome,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	ctx, cancel := context.WithTimeout(ctx, e.journalTimeout)
	defer cancel()
	if err := e.journal.RecordTransition(ctx, rec); err != nil {
		e.log.Warn("failed to journal transition", "candidate_id", rec.CandidateID, "error", err)
	}
}

// Reconcile reloads the directory from the candidate service. Candidates with an
// unconfirmed transition keep their local assignment; the transition's own
// completion decides their state.
func (e *Engine) Reconcile(ctx context.Context) error {
	if e.reloader == nil {
		return nil
	}
	return e.reloader.Reload(ctx, e.inFlight)
}

func (e *Engine) inFlight(id uuid.UUID) bool {
	_, ok := e.active.Load(id)
	return ok
}

// InFlight reports whether a candidate has an unconfirmed transition.
func (e *Engine) InFlight(candidateID uuid.UUID) bool {
	return e.inFlight(candidateID)
}

// Wait blocks until every in-flight transition has completed.
func (e *Engine) Wait() {
	e.wg.Wait()
}

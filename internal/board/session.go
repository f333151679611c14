// Package board wires one board session: the workflow catalog, the candidate
// directory, the bucket resolver, the transition engine, the drag controller and
// the selection, all sharing a single directory store.
package board

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/buckets"
	"github.com/jonathan/pipeline-board/internal/directory"
	"github.com/jonathan/pipeline-board/internal/drag"
	"github.com/jonathan/pipeline-board/internal/logger"
	"github.com/jonathan/pipeline-board/internal/selection"
	"github.com/jonathan/pipeline-board/internal/transition"
	"github.com/jonathan/pipeline-board/internal/workflow"
)

// Remote is the candidate service as seen by a board session.
type Remote interface {
	workflow.Source
	directory.Lister
	transition.Commander
}

// Config holds session settings.
type Config struct {
	CompanyID         uuid.UUID
	TransitionTimeout time.Duration
	ReloadMaxElapsed  time.Duration
	Journal           transition.Journal
	Notifier          transition.Notifier
	Logger            *logger.Logger
}

// Session is everything one open board needs.
type Session struct {
	CompanyID uuid.UUID
	Catalog   *workflow.Catalog
	Directory *directory.Directory
	Resolver  *buckets.Resolver
	Engine    *transition.Engine
	Drag      *drag.Controller
	Selection *selection.Set
	Inbox     *transition.Inbox

	log *logger.Logger
}

// NewSession wires a session. Call Load before rendering.
func NewSession(remote Remote, cfg Config) (*Session, error) {
	if remote == nil {
		return nil, fmt.Errorf("board session requires a remote")
	}
	if cfg.CompanyID == uuid.Nil {
		return nil, fmt.Errorf("board session requires a company id")
	}
	log := logger.OrNop(cfg.Logger).With("company_id", cfg.CompanyID)

	var dirOpts []directory.Option
	if cfg.ReloadMaxElapsed != 0 {
		dirOpts = append(dirOpts, directory.WithReloadMaxElapsed(cfg.ReloadMaxElapsed))
	}
	dir := directory.New(remote, cfg.CompanyID, log, dirOpts...)
	catalog := workflow.NewCatalog(remote, cfg.CompanyID, log)

	inbox := transition.NewInbox(transition.DefaultInboxSize)
	notifier := transition.Fanout{inbox, transition.LogNotifier{Log: log}}
	if cfg.Notifier != nil {
		notifier = append(notifier, cfg.Notifier)
	}

	engine := transition.NewEngine(dir.Store(), catalog, remote, dir, transition.Config{
		Timeout:  cfg.TransitionTimeout,
		Notifier: notifier,
		Journal:  cfg.Journal,
		Logger:   log,
	})

	return &Session{
		CompanyID: cfg.CompanyID,
		Catalog:   catalog,
		Directory: dir,
		Resolver:  buckets.NewResolver(catalog, dir.Store(), log),
		Engine:    engine,
		Drag:      drag.NewController(engine, dir.Store(), catalog),
		Selection: selection.NewSet(),
		Inbox:     inbox,
		log:       log,
	}, nil
}

// Load fetches the candidate list and preloads the given phases.
func (s *Session) Load(ctx context.Context, phaseIDs ...uuid.UUID) error {
	if err := s.Engine.Reconcile(ctx); err != nil {
		return err
	}
	if len(phaseIDs) > 0 {
		if err := s.Catalog.Preload(ctx, phaseIDs...); err != nil {
			return err
		}
	}
	s.log.Info("board session loaded", "candidates", s.Directory.Store().Len(), "phases", len(phaseIDs))
	return nil
}

// Board renders a phase.
func (s *Session) Board(ctx context.Context, phaseID uuid.UUID) (*buckets.Board, error) {
	return s.Resolver.Board(ctx, phaseID)
}

// Filter recomputes the selection's visible list and returns it.
func (s *Session) Filter(f selection.Filter) []directory.Candidate {
	return s.Selection.Refresh(s.Directory.Store(), f)
}

// Close waits for in-flight transitions to finish.
func (s *Session) Close() {
	s.Engine.Wait()
}

package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/pipeline-board/internal/logger"
)

// Source is the remote side of workflow configuration.
type Source interface {
	GetPhase(ctx context.Context, companyID, phaseID uuid.UUID) (*Phase, error)
	ListStagesByPhase(ctx context.Context, phaseID uuid.UUID, workflowType string) ([]Stage, error)
}

// DefaultPreloadConcurrency bounds parallel phase fetches in Preload.
const DefaultPreloadConcurrency = 4

type catalogEntry struct {
	def *Definition
	err error
}

// Catalog caches phase definitions for one board session. Each phase is fetched
// at most once until Invalidate is called; failures are cached too so a broken
// link is not refetched on every render.
type Catalog struct {
	source    Source
	companyID uuid.UUID
	log       *logger.Logger

	mu         sync.RWMutex
	entries    map[uuid.UUID]catalogEntry
	stageOwner map[uuid.UUID]uuid.UUID

	group singleflight.Group
}

// NewCatalog creates an empty session cache for a company.
func NewCatalog(source Source, companyID uuid.UUID, log *logger.Logger) *Catalog {
	return &Catalog{
		source:     source,
		companyID:  companyID,
		log:        logger.OrNop(log).With("component", "workflow.Catalog"),
		entries:    make(map[uuid.UUID]catalogEntry),
		stageOwner: make(map[uuid.UUID]uuid.UUID),
	}
}

// CompanyID returns the company this catalog serves.
func (c *Catalog) CompanyID() uuid.UUID { return c.companyID }

// Definition returns the cached definition of a phase, fetching it on first use.
func (c *Catalog) Definition(ctx context.Context, phaseID uuid.UUID) (*Definition, error) {
	c.mu.RLock()
	e, ok := c.entries[phaseID]
	c.mu.RUnlock()
	if ok {
		return e.def, e.err
	}

	v, _, _ := c.group.Do(phaseID.String(), func() (interface{}, error) {
		def, err := c.fetch(ctx, phaseID)
		if err != nil && isContextErr(err) {
			// do not cache a caller's cancellation
			return catalogEntry{err: err}, nil
		}
		c.store(phaseID, def, err)
		return catalogEntry{def: def, err: err}, nil
	})
	e = v.(catalogEntry)
	return e.def, e.err
}

func (c *Catalog) fetch(ctx context.Context, phaseID uuid.UUID) (*Definition, error) {
	phase, err := c.source.GetPhase(ctx, c.companyID, phaseID)
	if err != nil {
		return nil, &SourceError{PhaseID: phaseID, Message: "failed to get phase", Cause: err}
	}
	if phase == nil {
		return nil, &SourceError{PhaseID: phaseID, Message: "failed to get phase", Cause: ErrPhaseNotFound}
	}
	stages, err := c.source.ListStagesByPhase(ctx, phaseID, phase.WorkflowType)
	if err != nil {
		return nil, &SourceError{PhaseID: phaseID, Message: "failed to list stages", Cause: err}
	}
	def, err := NewDefinition(*phase, stages)
	if err != nil {
		c.log.Warn("phase definition rejected", "phase_id", phaseID, "error", err)
		return nil, err
	}
	c.log.Debug("phase definition loaded", "phase_id", phaseID, "stages", len(stages))
	return def, nil
}

func (c *Catalog) store(phaseID uuid.UUID, def *Definition, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[phaseID] = catalogEntry{def: def, err: err}
	if def != nil {
		for _, s := range def.stages {
			c.stageOwner[s.ID] = phaseID
		}
	}
}

// Preload fetches several phases concurrently. The first error is returned, but
// every phase that did load stays cached.
func (c *Catalog) Preload(ctx context.Context, phaseIDs ...uuid.UUID) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultPreloadConcurrency)
	for _, id := range phaseIDs {
		g.Go(func() error {
			_, err := c.Definition(gCtx, id)
			return err
		})
	}
	return g.Wait()
}

// PhaseOf returns the phase owning a stage among the phases loaded so far.
func (c *Catalog) PhaseOf(stageID uuid.UUID) (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.stageOwner[stageID]
	return id, ok
}

// LinkedInitial resolves the initial stage of the phase a success stage promotes into.
// ok is false when the stage has no link. An unresolvable link is reported as a
// *LinkResolutionError so callers can degrade instead of failing.
func (c *Catalog) LinkedInitial(ctx context.Context, s Stage) (Stage, bool, error) {
	if !s.LinksToPhase() {
		return Stage{}, false, nil
	}
	def, err := c.Definition(ctx, *s.NextPhaseID)
	if err != nil {
		return Stage{}, false, &LinkResolutionError{StageID: s.ID, NextPhaseID: *s.NextPhaseID, Cause: err}
	}
	return def.Initial(), true, nil
}

// Invalidate clears the session cache.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uuid.UUID]catalogEntry)
	c.stageOwner = make(map[uuid.UUID]uuid.UUID)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

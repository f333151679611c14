package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves phases from memory and counts lookups.
type fakeSource struct {
	mu       sync.Mutex
	phases   map[uuid.UUID]Phase
	stages   map[uuid.UUID][]Stage
	failures map[uuid.UUID]error
	delay    time.Duration

	phaseCalls atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		phases:   make(map[uuid.UUID]Phase),
		stages:   make(map[uuid.UUID][]Stage),
		failures: make(map[uuid.UUID]error),
	}
}

func (f *fakeSource) add(p Phase, stages ...Stage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phases[p.ID] = p
	f.stages[p.ID] = stages
}

func (f *fakeSource) fail(phaseID uuid.UUID, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[phaseID] = err
}

func (f *fakeSource) GetPhase(ctx context.Context, _, phaseID uuid.UUID) (*Phase, error) {
	f.phaseCalls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures[phaseID]; err != nil {
		return nil, err
	}
	p, ok := f.phases[phaseID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeSource) ListStagesByPhase(_ context.Context, phaseID uuid.UUID, _ string) ([]Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Stage(nil), f.stages[phaseID]...), nil
}

// linkedPhases builds Screening (Applied, Hired → Onboarding) and Onboarding (Start).
func linkedPhases(src *fakeSource) (screening, onboarding Phase, hired, start Stage) {
	screening = testPhase()
	onboarding = Phase{ID: uuid.New(), Name: "Onboarding", SortOrder: 2, WorkflowType: "candidate-application"}

	start = stageOf(onboarding, "Start", 0, StageInitial, BucketColumn)
	hired = stageOf(screening, "Hired", 1, StageSuccess, BucketColumn)
	hired.NextPhaseID = &onboarding.ID

	src.add(screening, stageOf(screening, "Applied", 0, StageInitial, BucketColumn), hired)
	src.add(onboarding, start)
	return screening, onboarding, hired, start
}

func TestCatalog_CachesDefinitions(t *testing.T) {
	src := newFakeSource()
	screening, _, _, _ := linkedPhases(src)
	c := NewCatalog(src, uuid.New(), nil)

	def, err := c.Definition(context.Background(), screening.ID)
	require.NoError(t, err)
	assert.Equal(t, "Screening", def.Phase().Name)

	again, err := c.Definition(context.Background(), screening.ID)
	require.NoError(t, err)
	assert.Same(t, def, again)
	assert.EqualValues(t, 1, src.phaseCalls.Load())
}

func TestCatalog_ConcurrentLookupsShareOneFetch(t *testing.T) {
	src := newFakeSource()
	src.delay = 20 * time.Millisecond
	screening, _, _, _ := linkedPhases(src)
	c := NewCatalog(src, uuid.New(), nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Definition(context.Background(), screening.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, src.phaseCalls.Load())
}

func TestCatalog_MissingPhase(t *testing.T) {
	src := newFakeSource()
	c := NewCatalog(src, uuid.New(), nil)

	_, err := c.Definition(context.Background(), uuid.New())
	require.Error(t, err)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.ErrorIs(t, err, ErrPhaseNotFound)
}

func TestCatalog_CachesFailuresUntilInvalidate(t *testing.T) {
	src := newFakeSource()
	screening, _, _, _ := linkedPhases(src)
	boom := errors.New("service unavailable")
	src.fail(screening.ID, boom)
	c := NewCatalog(src, uuid.New(), nil)

	_, err := c.Definition(context.Background(), screening.ID)
	require.ErrorIs(t, err, boom)
	_, err = c.Definition(context.Background(), screening.ID)
	require.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, src.phaseCalls.Load())

	src.fail(screening.ID, nil)
	c.Invalidate()

	_, err = c.Definition(context.Background(), screening.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.phaseCalls.Load())
}

func TestCatalog_DoesNotCacheCancellation(t *testing.T) {
	src := newFakeSource()
	src.delay = 50 * time.Millisecond
	screening, _, _, _ := linkedPhases(src)
	c := NewCatalog(src, uuid.New(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Definition(ctx, screening.ID)
	require.ErrorIs(t, err, context.Canceled)

	src.delay = 0
	_, err = c.Definition(context.Background(), screening.ID)
	assert.NoError(t, err)
}

func TestCatalog_ConfigurationErrorIsCached(t *testing.T) {
	src := newFakeSource()
	p := testPhase()
	src.add(p, stageOf(p, "Interview", 0, StageNormal, BucketColumn))
	c := NewCatalog(src, uuid.New(), nil)

	_, err := c.Definition(context.Background(), p.ID)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	_, err = c.Definition(context.Background(), p.ID)
	require.ErrorAs(t, err, &cfgErr)
	assert.EqualValues(t, 1, src.phaseCalls.Load())
}

func TestCatalog_PreloadAndPhaseOf(t *testing.T) {
	src := newFakeSource()
	screening, onboarding, hired, start := linkedPhases(src)
	c := NewCatalog(src, uuid.New(), nil)

	require.NoError(t, c.Preload(context.Background(), screening.ID, onboarding.ID))

	owner, ok := c.PhaseOf(hired.ID)
	require.True(t, ok)
	assert.Equal(t, screening.ID, owner)

	owner, ok = c.PhaseOf(start.ID)
	require.True(t, ok)
	assert.Equal(t, onboarding.ID, owner)

	_, ok = c.PhaseOf(uuid.New())
	assert.False(t, ok)

	c.Invalidate()
	_, ok = c.PhaseOf(hired.ID)
	assert.False(t, ok)
}

func TestCatalog_PreloadReportsFailure(t *testing.T) {
	src := newFakeSource()
	screening, _, hired, _ := linkedPhases(src)
	c := NewCatalog(src, uuid.New(), nil)

	err := c.Preload(context.Background(), screening.ID, uuid.New())
	require.ErrorIs(t, err, ErrPhaseNotFound)

	_, ok := c.PhaseOf(hired.ID)
	assert.True(t, ok, "phases that loaded stay cached")
	assert.EqualValues(t, 2, src.phaseCalls.Load())
}

func TestCatalog_LinkedInitial(t *testing.T) {
	src := newFakeSource()
	_, onboarding, hired, start := linkedPhases(src)
	c := NewCatalog(src, uuid.New(), nil)

	got, ok, err := c.LinkedInitial(context.Background(), hired)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, start.ID, got.ID)
	assert.Equal(t, onboarding.ID, got.PhaseID)

	plain := stageOf(onboarding, "Start", 0, StageInitial, BucketColumn)
	_, ok, err = c.LinkedInitial(context.Background(), plain)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalog_LinkedInitialUnresolvable(t *testing.T) {
	src := newFakeSource()
	p := testPhase()
	dangling := uuid.New()
	hired := stageOf(p, "Hired", 1, StageSuccess, BucketColumn)
	hired.NextPhaseID = &dangling
	c := NewCatalog(src, uuid.New(), nil)

	_, ok, err := c.LinkedInitial(context.Background(), hired)
	assert.False(t, ok)

	var linkErr *LinkResolutionError
	require.ErrorAs(t, err, &linkErr)
	assert.Equal(t, dangling, linkErr.NextPhaseID)
	assert.ErrorIs(t, err, ErrPhaseNotFound)
}

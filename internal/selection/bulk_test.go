package selection

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pipeline-board/internal/directory"
	"github.com/jonathan/pipeline-board/internal/fixture"
	"github.com/jonathan/pipeline-board/internal/transition"
	"github.com/jonathan/pipeline-board/internal/workflow"
)

func newEngine(t *testing.T) (*transition.Engine, *directory.Directory, *fixture.Service, fixture.Sample) {
	t.Helper()
	sample := fixture.NewSample()
	service := sample.Service()
	dir := directory.New(service, sample.CompanyID, nil)
	require.NoError(t, dir.Reload(context.Background(), nil))
	catalog := workflow.NewCatalog(service, sample.CompanyID, nil)
	engine := transition.NewEngine(dir.Store(), catalog, service, dir, transition.Config{Timeout: 2 * time.Second})
	t.Cleanup(engine.Wait)
	return engine, dir, service, sample
}

func TestMoveAction_MovesEverySelected(t *testing.T) {
	engine, dir, service, sample := newEngine(t)
	s := NewSet()
	s.Refresh(dir.Store(), Filter{Name: "foo"})
	require.Equal(t, 2, s.SelectAll())

	require.NoError(t, s.Run(context.Background(), MoveAction(engine, sample.Archived)))

	for _, id := range []uuid.UUID{sample.Bob, sample.Marge} {
		c, _ := dir.Store().Get(id)
		assert.Equal(t, sample.Archived, c.StageID)
	}
	assert.Equal(t, 2, service.ChangeStageCalls())
	assert.Zero(t, s.Len())
}

func TestMoveAction_PartialFailure(t *testing.T) {
	engine, dir, service, sample := newEngine(t)
	s := NewSet()
	s.Refresh(dir.Store(), Filter{})
	s.Select(sample.Ada)
	s.Select(sample.Linus)

	// Linus is in Onboarding; Interview is not reachable from there
	err := s.Run(context.Background(), MoveAction(engine, sample.Interview))

	var bulk *BulkError
	require.ErrorAs(t, err, &bulk)
	require.Len(t, bulk.Failures, 1)
	var invalid *transition.ValidationError
	assert.ErrorAs(t, bulk.Failures[sample.Linus], &invalid)

	ada, _ := dir.Store().Get(sample.Ada)
	assert.Equal(t, sample.Interview, ada.StageID)
	assert.Equal(t, 1, service.ChangeStageCalls())
	assert.Equal(t, 2, s.Len(), "selection kept for retry")
	assert.Contains(t, err.Error(), "1 candidate(s)")
}

func TestMoveAction_RolledBackCountsAsFailure(t *testing.T) {
	engine, dir, service, sample := newEngine(t)
	service.RejectStage(sample.Rejected, "requires a reason")
	s := NewSet()
	s.Refresh(dir.Store(), Filter{})
	s.Select(sample.Ada)
	s.Select(sample.Grace)

	err := s.Run(context.Background(), MoveAction(engine, sample.Rejected))

	var bulk *BulkError
	require.ErrorAs(t, err, &bulk)
	assert.Len(t, bulk.Failures, 2)
	var rejected *transition.RejectedError
	assert.ErrorAs(t, bulk.Failures[sample.Ada], &rejected)

	ada, _ := dir.Store().Get(sample.Ada)
	assert.Equal(t, sample.Applied, ada.StageID)
}

func TestMoveAction_InterruptedWait(t *testing.T) {
	engine, dir, service, sample := newEngine(t)
	service.SetLatency(500 * time.Millisecond)
	s := NewSet()
	s.Refresh(dir.Store(), Filter{})
	s.Select(sample.Ada)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Run(ctx, MoveAction(engine, sample.Interview))

	var selErr *Error
	require.ErrorAs(t, err, &selErr)
	assert.Equal(t, "bulk move interrupted", selErr.Message)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

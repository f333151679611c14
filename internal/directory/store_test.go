package directory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(name string, a Assignment, tags ...string) Candidate {
	return Candidate{ID: uuid.New(), Name: name, Tags: tags, Assignment: a}
}

func TestStore_ListKeepsRetrievalOrder(t *testing.T) {
	a := Assignment{PhaseID: uuid.New(), StageID: uuid.New()}
	zed, amy, bo := candidate("Zed", a), candidate("Amy", a), candidate("Bo", a)

	s := NewStore([]Candidate{zed, amy, bo})

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Zed", "Amy", "Bo"}, []string{list[0].Name, list[1].Name, list[2].Name})
	assert.Equal(t, 3, s.Len())
}

func TestStore_DropsDuplicates(t *testing.T) {
	a := Assignment{PhaseID: uuid.New(), StageID: uuid.New()}
	c := candidate("Ada", a)
	dup := c
	dup.Name = "Ada again"

	s := NewStore([]Candidate{c, dup})

	assert.Equal(t, 1, s.Len())
	got, ok := s.Get(c.ID)
	require.True(t, ok)
	assert.Equal(t, "Ada", got.Name)
}

func TestStore_InStageMatchesWholeAssignment(t *testing.T) {
	phase := uuid.New()
	applied := Assignment{PhaseID: phase, StageID: uuid.New()}
	other := Assignment{PhaseID: uuid.New(), StageID: applied.StageID}

	in := candidate("In", applied)
	s := NewStore([]Candidate{in, candidate("Elsewhere", other)})

	got := s.InStage(applied)
	require.Len(t, got, 1)
	assert.Equal(t, in.ID, got[0].ID)
	assert.Empty(t, s.InStage(Assignment{PhaseID: phase, StageID: uuid.New()}))
}

func TestStore_GetReturnsCopy(t *testing.T) {
	c := candidate("Ada", Assignment{}, "backend")
	s := NewStore([]Candidate{c})

	got, _ := s.Get(c.ID)
	got.Tags[0] = "mutated"
	got.Name = "mutated"

	again, _ := s.Get(c.ID)
	assert.Equal(t, "backend", again.Tags[0])
	assert.Equal(t, "Ada", again.Name)

	_, ok := s.Get(uuid.New())
	assert.False(t, ok)
}

func TestStore_SwapAssignment(t *testing.T) {
	from := Assignment{PhaseID: uuid.New(), StageID: uuid.New()}
	to := Assignment{PhaseID: uuid.New(), StageID: uuid.New()}
	c := candidate("Ada", from)
	s := NewStore([]Candidate{c})

	prev, err := s.SwapAssignment(c.ID, to)
	require.NoError(t, err)
	assert.Equal(t, from, prev)

	got, _ := s.Get(c.ID)
	assert.Equal(t, to, got.Assignment)

	_, err = s.SwapAssignment(uuid.New(), to)
	assert.Error(t, err)
}

func TestStore_ReplaceAllKeepsLocalAssignments(t *testing.T) {
	server := Assignment{PhaseID: uuid.New(), StageID: uuid.New()}
	local := Assignment{PhaseID: server.PhaseID, StageID: uuid.New()}

	moving := candidate("Moving", server)
	idle := candidate("Idle", server)
	s := NewStore([]Candidate{moving, idle})
	_, err := s.SwapAssignment(moving.ID, local)
	require.NoError(t, err)
	_, err = s.SwapAssignment(idle.ID, local)
	require.NoError(t, err)

	keep := func(id uuid.UUID) bool { return id == moving.ID }
	s.ReplaceAll([]Candidate{moving, idle}, keep)

	got, _ := s.Get(moving.ID)
	assert.Equal(t, local, got.Assignment, "in-flight candidate keeps its optimistic stage")
	got, _ = s.Get(idle.ID)
	assert.Equal(t, server, got.Assignment, "settled candidate takes the server's stage")
}

func TestStore_ReplaceAllRetainsKeptMissingCandidates(t *testing.T) {
	a := Assignment{PhaseID: uuid.New(), StageID: uuid.New()}
	kept, gone, fresh := candidate("Kept", a), candidate("Gone", a), candidate("Fresh", a)
	s := NewStore([]Candidate{kept, gone})

	s.ReplaceAll([]Candidate{fresh}, func(id uuid.UUID) bool { return id == kept.ID })

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, fresh.ID, list[0].ID)
	assert.Equal(t, kept.ID, list[1].ID)
	_, ok := s.Get(gone.ID)
	assert.False(t, ok)
}

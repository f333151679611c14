package workflow

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPhase() Phase {
	return Phase{ID: uuid.New(), Name: "Screening", SortOrder: 1, WorkflowType: "candidate-application"}
}

func stageOf(p Phase, name string, order int, t StageType, b DisplayBucket) Stage {
	return Stage{ID: uuid.New(), PhaseID: p.ID, Name: name, Order: order, Type: t, Bucket: b}
}

func TestNewDefinition_OrdersAndBuckets(t *testing.T) {
	p := testPhase()
	applied := stageOf(p, "Applied", 0, StageInitial, BucketColumn)
	interview := stageOf(p, "Interview", 1, StageNormal, BucketColumn)
	rejected := stageOf(p, "Rejected", 5, StageFail, BucketRow)
	archived := stageOf(p, "Archived", 9, StageNormal, BucketHidden)

	def, err := NewDefinition(p, []Stage{archived, rejected, interview, applied})
	require.NoError(t, err)

	names := func(stages []Stage) []string {
		out := make([]string, len(stages))
		for i, s := range stages {
			out[i] = s.Name
		}
		return out
	}
	assert.Equal(t, []string{"Applied", "Interview", "Rejected", "Archived"}, names(def.Stages()))
	assert.Equal(t, []string{"Applied", "Interview"}, names(def.Columns()))
	assert.Equal(t, []string{"Rejected"}, names(def.Rows()))
	assert.Equal(t, []string{"Archived"}, names(def.Hidden()))
	assert.Equal(t, applied.ID, def.Initial().ID)
	assert.Equal(t, p, def.Phase())

	next, ok := def.NextInOrder(applied.ID)
	require.True(t, ok)
	assert.Equal(t, interview.ID, next.ID)
	_, ok = def.NextInOrder(archived.ID)
	assert.False(t, ok)

	assert.True(t, def.Contains(rejected.ID))
	assert.False(t, def.Contains(uuid.New()))
	got, ok := def.Stage(archived.ID)
	require.True(t, ok)
	assert.Equal(t, "Archived", got.Name)
}

func TestNewDefinition_SuccessLinks(t *testing.T) {
	p := testPhase()
	next := uuid.New()
	hired := stageOf(p, "Hired", 2, StageSuccess, BucketColumn)
	hired.NextPhaseID = &next
	terminal := stageOf(p, "Done", 3, StageSuccess, BucketColumn)

	def, err := NewDefinition(p, []Stage{stageOf(p, "Applied", 0, StageInitial, BucketColumn), hired, terminal})
	require.NoError(t, err)

	links := def.SuccessLinks()
	require.Len(t, links, 1)
	assert.Equal(t, hired.ID, links[0].ID)
	assert.True(t, hired.LinksToPhase())
	assert.False(t, terminal.LinksToPhase())
}

func TestNewDefinition_Errors(t *testing.T) {
	p := testPhase()
	initial := func() Stage { return stageOf(p, "Applied", 0, StageInitial, BucketColumn) }
	next := uuid.New()

	tests := []struct {
		name    string
		phase   Phase
		stages  func() []Stage
		message string
	}{
		{
			name:    "no phase id",
			phase:   Phase{Name: "x", WorkflowType: "y"},
			stages:  func() []Stage { return []Stage{initial()} },
			message: "phase has no id",
		},
		{
			name:    "incomplete phase",
			phase:   Phase{ID: p.ID, Name: "Screening"},
			stages:  func() []Stage { return []Stage{initial()} },
			message: "phase is incomplete",
		},
		{
			name:    "no stages",
			phase:   p,
			stages:  func() []Stage { return nil },
			message: "phase has no stages",
		},
		{
			name:  "no initial stage",
			phase: p,
			stages: func() []Stage {
				return []Stage{stageOf(p, "Interview", 0, StageNormal, BucketColumn)}
			},
			message: "no initial stage",
		},
		{
			name:  "two initial stages",
			phase: p,
			stages: func() []Stage {
				return []Stage{initial(), stageOf(p, "Also", 1, StageInitial, BucketColumn)}
			},
			message: "more than one initial stage",
		},
		{
			name:  "duplicate order",
			phase: p,
			stages: func() []Stage {
				return []Stage{initial(), stageOf(p, "Interview", 0, StageNormal, BucketColumn)}
			},
			message: "share order 0",
		},
		{
			name:  "duplicate id",
			phase: p,
			stages: func() []Stage {
				s := initial()
				dup := s
				dup.Order = 1
				dup.Type = StageNormal
				return []Stage{s, dup}
			},
			message: "duplicate stage id",
		},
		{
			name:  "stage of another phase",
			phase: p,
			stages: func() []Stage {
				s := initial()
				s.PhaseID = uuid.New()
				return []Stage{s}
			},
			message: "belongs to phase",
		},
		{
			name:  "link on a fail stage",
			phase: p,
			stages: func() []Stage {
				s := stageOf(p, "Rejected", 1, StageFail, BucketRow)
				s.NextPhaseID = &next
				return []Stage{initial(), s}
			},
			message: "links to a next phase",
		},
		{
			name:  "unknown bucket",
			phase: p,
			stages: func() []Stage {
				return []Stage{initial(), stageOf(p, "Odd", 1, StageNormal, DisplayBucket("sidebar"))}
			},
			message: "unknown display bucket",
		},
		{
			name:  "missing name",
			phase: p,
			stages: func() []Stage {
				s := initial()
				s.Name = ""
				return []Stage{s}
			},
			message: "is incomplete",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := NewDefinition(tt.phase, tt.stages())
			require.Error(t, err)
			assert.Nil(t, def)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestStageType_UnmarshalRejectsUnknown(t *testing.T) {
	var s Stage
	err := json.Unmarshal([]byte(`{"stage_type":"archived","display_bucket":"column"}`), &s)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"stage_type":"success","display_bucket":"tray"}`), &s)
	assert.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"stage_type":"fail","display_bucket":"row"}`), &s))
	assert.Equal(t, StageFail, s.Type)
	assert.Equal(t, BucketRow, s.Bucket)
}

func TestEntryPhase(t *testing.T) {
	phases := []Phase{
		{ID: uuid.New(), Name: "Onboarding", SortOrder: 2, WorkflowType: "candidate-application"},
		{ID: uuid.New(), Name: "Talent pool", SortOrder: 0, WorkflowType: "talent-pool"},
		{ID: uuid.New(), Name: "Screening", SortOrder: 1, WorkflowType: "candidate-application"},
	}

	entry, ok := EntryPhase(phases, "candidate-application")
	require.True(t, ok)
	assert.Equal(t, "Screening", entry.Name)

	_, ok = EntryPhase(phases, "referrals")
	assert.False(t, ok)
}

func TestConfigurationError_Unwrap(t *testing.T) {
	cause := assert.AnError
	err := &ConfigurationError{PhaseID: uuid.New(), Message: "bad", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "bad")
}

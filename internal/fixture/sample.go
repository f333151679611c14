package fixture

import (
	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/directory"
	"github.com/jonathan/pipeline-board/internal/workflow"
)

var sampleNamespace = uuid.MustParse("1b671a64-40d5-491e-99b0-da01ff1f3341")

func sampleID(name string) uuid.UUID {
	return uuid.NewSHA1(sampleNamespace, []byte(name))
}

// Sample is a small two-phase pipeline with stable ids:
//
//	Screening:  Applied(initial) Interview Hired(success → Onboarding) | Rejected(row) | Archived(hidden)
//	Onboarding: Onboarding(initial) FirstDay(success)
type Sample struct {
	CompanyID uuid.UUID

	Screening  uuid.UUID
	Onboarding uuid.UUID

	Applied      uuid.UUID
	Interview    uuid.UUID
	Hired        uuid.UUID
	Rejected     uuid.UUID
	Archived     uuid.UUID
	OnboardStart uuid.UUID
	FirstDay     uuid.UUID

	Ada    uuid.UUID // Screening / Applied
	Grace  uuid.UUID // Screening / Interview
	Xavier uuid.UUID // Screening / Hired
	Linus  uuid.UUID // Onboarding / Onboarding
	Bob    uuid.UUID // Screening / Applied, name matches "foo"
	Marge  uuid.UUID // Screening / Rejected, name matches "foo"
}

// NewSample returns the sample pipeline ids.
func NewSample() Sample {
	return Sample{
		CompanyID:    sampleID("company"),
		Screening:    sampleID("phase/screening"),
		Onboarding:   sampleID("phase/onboarding"),
		Applied:      sampleID("stage/applied"),
		Interview:    sampleID("stage/interview"),
		Hired:        sampleID("stage/hired"),
		Rejected:     sampleID("stage/rejected"),
		Archived:     sampleID("stage/archived"),
		OnboardStart: sampleID("stage/onboarding"),
		FirstDay:     sampleID("stage/first-day"),
		Ada:          sampleID("candidate/ada"),
		Grace:        sampleID("candidate/grace"),
		Xavier:       sampleID("candidate/xavier"),
		Linus:        sampleID("candidate/linus"),
		Bob:          sampleID("candidate/bob"),
		Marge:        sampleID("candidate/marge"),
	}
}

// File returns the sample as a board file.
func (s Sample) File() File {
	next := s.Onboarding
	stage := func(id uuid.UUID, name string, order int, t workflow.StageType, b workflow.DisplayBucket) StageSpec {
		return StageSpec{Stage: workflow.Stage{ID: id, Name: name, Order: order, Type: t, Bucket: b}}
	}
	hired := stage(s.Hired, "Hired", 2, workflow.StageSuccess, workflow.BucketColumn)
	hired.NextPhaseID = &next
	hired.Style = workflow.Style{Color: "#2E7D32", Icon: "check"}

	candidate := func(id uuid.UUID, name string, phase, st uuid.UUID, tags ...string) directory.Candidate {
		return directory.Candidate{
			ID:         id,
			Name:       name,
			Tags:       tags,
			Assignment: directory.Assignment{PhaseID: phase, StageID: st},
		}
	}

	return File{
		CompanyID: s.CompanyID,
		Phases: []PhaseSpec{
			{
				Phase: workflow.Phase{ID: s.Screening, Name: "Screening", SortOrder: 1, WorkflowType: "candidate-application"},
				Stages: []StageSpec{
					stage(s.Applied, "Applied", 0, workflow.StageInitial, workflow.BucketColumn),
					stage(s.Interview, "Interview", 1, workflow.StageNormal, workflow.BucketColumn),
					hired,
					stage(s.Rejected, "Rejected", 3, workflow.StageFail, workflow.BucketRow),
					stage(s.Archived, "Archived", 4, workflow.StageNormal, workflow.BucketHidden),
				},
			},
			{
				Phase: workflow.Phase{ID: s.Onboarding, Name: "Onboarding", SortOrder: 2, WorkflowType: "candidate-application"},
				Stages: []StageSpec{
					stage(s.OnboardStart, "Onboarding", 0, workflow.StageInitial, workflow.BucketColumn),
					stage(s.FirstDay, "First day", 1, workflow.StageSuccess, workflow.BucketColumn),
				},
			},
		},
		Candidates: []directory.Candidate{
			candidate(s.Ada, "Ada Lovelace", s.Screening, s.Applied, "backend"),
			candidate(s.Grace, "Grace Hopper", s.Screening, s.Interview, "backend", "senior"),
			candidate(s.Xavier, "Xavier Ortiz", s.Screening, s.Hired),
			candidate(s.Linus, "Linus Pauling", s.Onboarding, s.OnboardStart),
			candidate(s.Bob, "Bob Foo", s.Screening, s.Applied, "frontend"),
			candidate(s.Marge, "Marge Foote", s.Screening, s.Rejected),
		},
	}
}

// Service returns a fresh in-memory service loaded with the sample.
func (s Sample) Service() *Service {
	return New(s.File())
}

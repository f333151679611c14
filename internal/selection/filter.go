package selection

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/directory"
)

// Filter narrows the directory to the visible list. Zero fields match everything.
type Filter struct {
	Name    string    `json:"name,omitempty"`
	Tags    []string  `json:"tags,omitempty"`
	StageID uuid.UUID `json:"stage_id,omitempty"`
}

// Matches reports whether a candidate passes the filter. Name matching is a
// case-insensitive substring match; every tag must be present.
func (f Filter) Matches(c directory.Candidate) bool {
	if name := strings.TrimSpace(f.Name); name != "" {
		if !strings.Contains(strings.ToLower(c.Name), strings.ToLower(name)) {
			return false
		}
	}
	if f.StageID != uuid.Nil && c.StageID != f.StageID {
		return false
	}
	for _, want := range f.Tags {
		if !hasTag(c.Tags, want) {
			return false
		}
	}
	return true
}

// Apply returns the candidates of dir that match, in retrieval order.
func (f Filter) Apply(dir directory.Reader) []directory.Candidate {
	var out []directory.Candidate
	for _, c := range dir.List() {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

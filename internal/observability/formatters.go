// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/transition"
	"github.com/jonathan/pipeline-board/internal/workflow"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		// Truncate long lines
		if runes := []rune(line); len(runes) > boxWidth-4 {
			line = string(runes[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintTargets lists the stages a candidate may be moved to.
func (p *Printer) PrintTargets(candidate string, stages []workflow.Stage) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Candidate: %s\n\n", candidate))
	if len(stages) == 0 {
		sb.WriteString("No reachable stages\n")
	}
	for _, s := range stages {
		sb.WriteString(fmt.Sprintf("  • %s (%s)", s.Name, s.Type))
		if s.Bucket == workflow.BucketHidden {
			sb.WriteString(" [hidden]")
		}
		sb.WriteString("\n")
	}
	p.printBox("REACHABLE STAGES", sb.String())
}

// PrintTransition summarizes a finished move. stageName maps stage ids to
// display names; unknown ids are printed as-is.
func (p *Printer) PrintTransition(candidate string, from uuid.UUID, res transition.Result, stageName func(uuid.UUID) string) {
	if stageName == nil {
		stageName = uuid.UUID.String
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Candidate: %s\n", candidate))
	sb.WriteString(fmt.Sprintf("Seq:       %d\n", res.Seq))
	sb.WriteString(fmt.Sprintf("Outcome:   %s\n", res.Outcome))
	sb.WriteString(fmt.Sprintf("From:      %s\n", stageName(from)))
	sb.WriteString(fmt.Sprintf("Now in:    %s\n", stageName(res.Assignment.StageID)))
	if res.Err != nil {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Error:     %v\n", res.Err))
	}
	if res.ReloadErr != nil {
		sb.WriteString(fmt.Sprintf("Reload:    %v\n", res.ReloadErr))
	}
	p.printBox("TRANSITION", sb.String())
}

// PrintNotifications outputs pending rollback notifications, newest last.
func (p *Printer) PrintNotifications(notes []transition.Notification) {
	if len(notes) == 0 {
		return
	}

	var sb strings.Builder
	start := 0
	if len(notes) > maxItemsToShow {
		start = len(notes) - maxItemsToShow
		sb.WriteString(fmt.Sprintf("... %d earlier\n", start))
	}
	for _, n := range notes[start:] {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", n.Kind, n.Message))
	}
	p.printBox("NOTIFICATIONS", sb.String())
}

package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/pipeline-board/internal/board"
	"github.com/jonathan/pipeline-board/internal/observability"
	"github.com/jonathan/pipeline-board/internal/transition"
)

var moveCmd = &cobra.Command{
	Use:   "move <candidate-id> <stage-id>",
	Short: "Move a candidate to a stage",
	Long: `Move a candidate to a stage and wait for the service's verdict. The stage may
belong to the candidate's phase or be the initial stage of a phase linked from it.`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

var moveVerbose bool

func init() {
	moveCmd.Flags().BoolVarP(&moveVerbose, "verbose", "v", false, "Print reachable stages and a transition summary")
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	candidateID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid candidate id: %w", err)
	}
	stageID, err := uuid.Parse(args[1])
	if err != nil {
		return fmt.Errorf("invalid stage id: %w", err)
	}

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	session, _, err := openSession(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	var printer *observability.Printer
	name := candidateID.String()
	if moveVerbose {
		printer = observability.NewPrinter(cmd.OutOrStdout())
		if c, ok := session.Directory.Store().Get(candidateID); ok {
			name = c.Name
		}
		targets, err := session.Engine.Targets(ctx, candidateID)
		if err != nil {
			return err
		}
		printer.PrintTargets(name, targets)
	}

	p, err := session.Engine.Transition(ctx, candidateID, stageID)
	if err != nil {
		return err
	}
	res, err := p.Wait(ctx)
	if err != nil {
		return err
	}
	if printer != nil {
		printer.PrintTransition(name, p.Snapshot.PreviousStageID, res, stageNamer(ctx, session))
		printer.PrintNotifications(session.Inbox.Drain())
	}
	return reportMove(cmd, res)
}

// stageNamer resolves stage ids through the session's cached workflow definitions.
func stageNamer(ctx context.Context, session *board.Session) func(uuid.UUID) string {
	return func(id uuid.UUID) string {
		phaseID, ok := session.Catalog.PhaseOf(id)
		if !ok {
			return id.String()
		}
		def, err := session.Catalog.Definition(ctx, phaseID)
		if err != nil {
			return id.String()
		}
		if s, ok := def.Stage(id); ok {
			return s.Name
		}
		return id.String()
	}
}

// reportMove prints a transition result; a rollback is returned as an error.
func reportMove(cmd *cobra.Command, res transition.Result) error {
	out := cmd.OutOrStdout()
	switch res.Outcome {
	case transition.OutcomeNoop:
		fmt.Fprintln(out, "Already in that stage")
	case transition.OutcomeConfirmed:
		fmt.Fprintf(out, "Moved %s to stage %s (phase %s)\n", res.CandidateID, res.Assignment.StageID, res.Assignment.PhaseID)
	case transition.OutcomeRolledBack:
		return fmt.Errorf("move reverted: %w", res.Err)
	default:
		fmt.Fprintf(out, "Move finished: %s\n", res.Outcome)
	}
	if res.ReloadErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: board reload failed: %v\n", res.ReloadErr)
	}
	return nil
}

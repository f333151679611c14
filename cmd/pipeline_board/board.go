package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jonathan/pipeline-board/internal/logger"
	"github.com/jonathan/pipeline-board/internal/tui"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive terminal board",
	Long: `Open the board in the terminal. Pick a card up with space and drop it on a stage
or on another card; dropping on a card moves the candidate to that card's stage.
Press ? for every key binding.`,
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func runBoard(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the board; log output would tear the screen.
	session, phaseIDs, err := openSession(ctx, cfg, logger.Nop(), nil)
	if err != nil {
		return err
	}
	defer session.Close()

	p := tea.NewProgram(tui.New(ctx, session, phaseIDs...), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("board exited: %w", err)
	}
	return nil
}

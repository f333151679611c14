package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/pipeline-board/internal/buckets"
	"github.com/jonathan/pipeline-board/internal/logger"
)

var (
	showJSON bool
	showAll  bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the board",
	Long: `Print the stage buckets of the first phase (or every phase with --all). Cards that
belong to a linked phase but are shown in a success stage are marked with "↪".`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the board as JSON")
	showCmd.Flags().BoolVar(&showAll, "all", false, "Print every phase")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	session, phaseIDs, err := openSession(ctx, cfg, logger.Nop(), nil)
	if err != nil {
		return err
	}
	defer session.Close()

	if !showAll {
		phaseIDs = phaseIDs[:1]
	}

	boards := make([]*buckets.Board, 0, len(phaseIDs))
	for _, id := range phaseIDs {
		b, err := session.Board(ctx, id)
		if err != nil {
			return err
		}
		boards = append(boards, b)
	}

	out := cmd.OutOrStdout()
	if showJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if showAll {
			return enc.Encode(boards)
		}
		return enc.Encode(boards[0])
	}
	for i, b := range boards {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printBoard(out, b)
	}
	return nil
}

// printBoard writes a plain-text rendering of a board.
func printBoard(w io.Writer, b *buckets.Board) {
	fmt.Fprintf(w, "%s\n%s\n", b.Phase.Name, strings.Repeat("=", len(b.Phase.Name)))
	for _, bucket := range b.Columns {
		printBucket(w, bucket)
	}
	if len(b.Rows) > 0 {
		fmt.Fprintln(w, "--")
		for _, bucket := range b.Rows {
			printBucket(w, bucket)
		}
	}
	if len(b.Hidden) > 0 {
		names := make([]string, len(b.Hidden))
		for i, s := range b.Hidden {
			names[i] = s.Name
		}
		fmt.Fprintf(w, "hidden: %s\n", strings.Join(names, ", "))
	}
}

func printBucket(w io.Writer, bucket buckets.Bucket) {
	fmt.Fprintf(w, "%s (%d)\n", bucket.Stage.Name, len(bucket.Entries))
	for _, e := range bucket.Entries {
		marker := ""
		if e.Borrowed {
			marker = " ↪"
		}
		fmt.Fprintf(w, "  - %s%s\n", e.Name, marker)
	}
}

// Package main provides the entry point for the pipeline board CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pipeline_board",
	Short: "Recruiting pipeline board",
	Long: `Pipeline board renders a company's recruiting phases as stage buckets and moves
candidates between stages with optimistic updates.

The board reads from the candidate service (--api-url) or from an offline board file
(--board-file). Configuration can be loaded from a JSON file using --config;
command-line flags override config file values, which override the environment.`,
	SilenceUsage: true,
}

var (
	flagConfigPath string
	flagBoardFile  string
	flagAPIURL     string
	flagAPIToken   string
	flagCompanyID  string
	flagPhaseID    string
	flagLogMode    string
	flagTimeout    string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	pf.StringVarP(&flagBoardFile, "board-file", "f", "", "Offline board file (mutually exclusive with --api-url)")
	pf.StringVar(&flagAPIURL, "api-url", "", "Candidate service base URL (defaults to PIPELINE_API_URL env var)")
	pf.StringVar(&flagAPIToken, "api-token", "", "Candidate service token (defaults to PIPELINE_API_TOKEN env var)")
	pf.StringVarP(&flagCompanyID, "company-id", "c", "", "Company UUID (defaults to the board file's company)")
	pf.StringVarP(&flagPhaseID, "phase-id", "p", "", "Phase UUID shown first")
	pf.StringVar(&flagLogMode, "log-mode", "", "Log mode: dev or prod")
	pf.StringVar(&flagTimeout, "timeout", "", "Transition timeout, e.g. 30s")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

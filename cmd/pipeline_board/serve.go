package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/pipeline-board/internal/db"
	"github.com/jonathan/pipeline-board/internal/server"
	"github.com/jonathan/pipeline-board/internal/transition"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the board API server",
	Long: `Start an HTTP server that exposes the board, drag and selection operations to a
front-end. When DATABASE_URL is set, completed transitions are journaled to PostgreSQL
and served from /candidates/{id}/history.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT env var or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	var (
		journal transition.Journal
		history server.History
	)
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		journal, history = database, database
		log.Info("transition journal enabled")
	}

	session, _, err := openSession(ctx, cfg, log, journal)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:    cfg.Port,
		Session: session,
		History: history,
		Logger:  log,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

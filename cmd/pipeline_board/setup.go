package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/board"
	"github.com/jonathan/pipeline-board/internal/client"
	"github.com/jonathan/pipeline-board/internal/config"
	"github.com/jonathan/pipeline-board/internal/fixture"
	"github.com/jonathan/pipeline-board/internal/logger"
	"github.com/jonathan/pipeline-board/internal/transition"
)

// flagConfig collects the persistent flags into a config layer.
func flagConfig() config.Config {
	return config.Config{
		APIURL:            flagAPIURL,
		APIToken:          flagAPIToken,
		BoardFile:         flagBoardFile,
		CompanyID:         flagCompanyID,
		PhaseID:           flagPhaseID,
		LogMode:           flagLogMode,
		TransitionTimeout: flagTimeout,
	}
}

// layerConfig stacks flags over the config file over the environment over defaults.
func layerConfig(flags, file, env config.Config) config.Config {
	merged := env.MergeWithDefaults(config.Defaults())
	merged = file.MergeWithDefaults(merged)
	return flags.MergeWithDefaults(merged)
}

// resolveConfig loads the config file if given, layers every source and validates the result.
func resolveConfig() (config.Config, error) {
	var fileCfg config.Config
	if flagConfigPath != "" {
		loaded, err := config.LoadConfig(flagConfigPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return config.Config{}, err
		}
		fileCfg = *loaded
	}

	cfg := layerConfig(flagConfig(), fileCfg, config.FromEnv())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if cfg.APIURL == "" && cfg.BoardFile == "" {
		return config.Config{}, fmt.Errorf("either --board-file or --api-url must be provided")
	}
	return cfg, nil
}

// source is where a session reads from.
type source struct {
	remote    board.Remote
	companyID uuid.UUID
	phaseIDs  []uuid.UUID // first is shown first
	linked    bool        // phaseIDs still need linked phases appended
}

// openSource builds the remote for cfg: the board file service or the REST client.
func openSource(cfg config.Config) (*source, error) {
	if cfg.BoardFile != "" {
		svc, err := fixture.Load(cfg.BoardFile)
		if err != nil {
			return nil, err
		}
		companyID := svc.CompanyID()
		if id := cfg.Company(); id != uuid.Nil && id != companyID {
			return nil, fmt.Errorf("board file belongs to company %s, not %s", companyID, id)
		}

		var phaseIDs []uuid.UUID
		first := cfg.Phase()
		found := first == uuid.Nil
		for _, p := range svc.Phases() {
			if p.ID == first {
				found = true
				continue
			}
			phaseIDs = append(phaseIDs, p.ID)
		}
		if !found {
			return nil, fmt.Errorf("phase %s is not in the board file", first)
		}
		if first != uuid.Nil {
			phaseIDs = append([]uuid.UUID{first}, phaseIDs...)
		}
		return &source{remote: svc, companyID: companyID, phaseIDs: phaseIDs}, nil
	}

	companyID, phaseID := cfg.Company(), cfg.Phase()
	if companyID == uuid.Nil {
		return nil, fmt.Errorf("--company-id is required with --api-url")
	}
	if phaseID == uuid.Nil {
		return nil, fmt.Errorf("--phase-id is required with --api-url")
	}

	opts := client.DefaultOptions()
	opts.APIToken = cfg.APIToken
	c, err := client.New(cfg.APIURL, opts)
	if err != nil {
		return nil, err
	}
	return &source{remote: c, companyID: companyID, phaseIDs: []uuid.UUID{phaseID}, linked: true}, nil
}

// openSession opens and loads a board session for cfg. It returns the phases
// to show, in order.
func openSession(ctx context.Context, cfg config.Config, log *logger.Logger, journal transition.Journal) (*board.Session, []uuid.UUID, error) {
	src, err := openSource(cfg)
	if err != nil {
		return nil, nil, err
	}

	session, err := board.NewSession(src.remote, board.Config{
		CompanyID:         src.companyID,
		TransitionTimeout: cfg.Timeout(),
		Journal:           journal,
		Logger:            log,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := session.Load(ctx, src.phaseIDs...); err != nil {
		return nil, nil, fmt.Errorf("failed to load board: %w", err)
	}

	phaseIDs := src.phaseIDs
	if src.linked {
		phaseIDs = followLinks(ctx, session, phaseIDs)
	}
	return session, phaseIDs, nil
}

// followLinks appends the phases that success stages promote into.
func followLinks(ctx context.Context, session *board.Session, phaseIDs []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(phaseIDs))
	for _, id := range phaseIDs {
		seen[id] = true
	}
	for i := 0; i < len(phaseIDs); i++ {
		def, err := session.Catalog.Definition(ctx, phaseIDs[i])
		if err != nil {
			continue
		}
		for _, s := range def.SuccessLinks() {
			if next := *s.NextPhaseID; !seen[next] {
				seen[next] = true
				phaseIDs = append(phaseIDs, next)
			}
		}
	}
	return phaseIDs
}

// newLogger builds the logger for cfg.
func newLogger(cfg config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

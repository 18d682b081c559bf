package main

import (
	"context"
	"fmt"
	"os"

	"ado-time-tracker/internal/ado"
	"ado-time-tracker/internal/api"
	"ado-time-tracker/internal/cli"
	"ado-time-tracker/internal/clock"
	"ado-time-tracker/internal/config"
	"ado-time-tracker/internal/logging"
	"ado-time-tracker/internal/services"
)

func main() {
	root := cli.NewRootCommand(buildAPI, os.Stdout, os.Stderr)
	if err := root.Execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildAPI wires the services against the configured database and
// organizations. The returned cleanup stops the timer and closes the
// database.
func buildAPI(ctx context.Context, cfg *config.Config) (api.BusinessAPI, func(), error) {
	level := cfg.Application.LogLevel
	if cfg.Application.Verbose {
		level = "debug"
	}
	logger := logging.New(os.Stderr, level)

	orgs, err := config.LoadOrganizations(cfg.Organizations.File)
	if err != nil {
		return nil, nil, err
	}

	repo, err := config.CreateRepository(cfg)
	if err != nil {
		return nil, nil, err
	}

	clk := clock.Real()
	client := ado.NewClient(cfg.Sync.RemoteTimeout, ado.WithRateLimit(cfg.Sync.RequestsPerSecond))

	ledger := services.NewLedgerService(repo, clk)
	timer := services.NewTimerService(clk, ledger, services.NewSessionStore(repo, clk), logger, cfg.Timer)
	container := &services.ServiceContainer{
		Ledger:        ledger,
		Timer:         timer,
		Sync:          services.NewSyncService(repo, ledger, client, orgs, clk, logger, cfg.Sync),
		Directory:     services.NewWorkItemDirectory(client, orgs, clk, cfg.Directory),
		Organizations: orgs,
	}

	cleanup := func() {
		timer.Close()
		if err := repo.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}

	// A session that cannot be restored leaves the timer idle; the entry
	// ledger is still usable.
	if err := timer.Restore(ctx); err != nil {
		logger.Warn("failed to restore timer session", "error", err)
	}

	logger.Debug("services ready",
		"database", cfg.GetDatabasePath(),
		"organizations", len(orgs.List()))
	return api.NewBusinessAPI(container), cleanup, nil
}

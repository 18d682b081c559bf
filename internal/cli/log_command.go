package cli

import (
	"context"

	"ado-time-tracker/internal/errors"

	"github.com/dustin/go-humanize"
)

// LogCommand handles the log command
type LogCommand struct {
	app   *App
	limit int
}

// NewLogCommand creates a new log command handler
func NewLogCommand(app *App) *LogCommand {
	return &LogCommand{app: app, limit: 20}
}

// Execute prints the most recent sync records
func (c *LogCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.NewInvalidInputError("command", "log", "usage: att log [--limit N]")
	}

	logs, err := c.app.api.RecentSyncLogs(ctx, c.limit)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		c.app.printf("No sync history\n")
		return nil
	}

	now := timeNow()
	for _, log := range logs {
		c.app.printf("%-14s %s\n", humanize.RelTime(log.SyncedAt, now, "ago", "from now"), formatSyncLog(log))
	}
	return nil
}

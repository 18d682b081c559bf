package cli

import (
	"context"
	"fmt"

	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"
)

// SyncCommand handles the sync command
type SyncCommand struct {
	app *App
}

// NewSyncCommand creates a new sync command handler
func NewSyncCommand(app *App) *SyncCommand {
	return &SyncCommand{app: app}
}

// Execute syncs the given entries, or every unsynced entry without arguments
func (c *SyncCommand) Execute(ctx context.Context, args []string) error {
	result, err := c.app.api.Sync(ctx, args)
	if result == nil {
		return err
	}

	for _, log := range result.Logs {
		c.app.printf("%s\n", formatSyncLog(log))
	}

	total := result.Success + result.Failed + result.Skipped
	if total == 0 {
		if err != nil {
			return err
		}
		c.app.printf("Nothing to sync\n")
		return nil
	}
	c.app.printf("%d synced, %d failed, %d skipped\n", result.Success, result.Failed, result.Skipped)

	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return errors.WrapError(nil, errors.ErrorTypeRemote, fmt.Sprintf("%d of %d work items failed to sync", result.Failed, total))
	}
	return nil
}

// formatSyncLog renders one audit record
func formatSyncLog(log domain.SyncLog) string {
	line := fmt.Sprintf("%-7s %s #%d %s", log.Status, log.OrganizationID, log.WorkItemID, formatHours(log.HoursSynced))
	if log.ErrorMessage != nil {
		line += ": " + *log.ErrorMessage
	}
	return line
}

package cli

import (
	"context"

	"ado-time-tracker/internal/api"
	"ado-time-tracker/internal/errors"
)

// StartCommand handles the start command
type StartCommand struct {
	app *App
}

// NewStartCommand creates a new start command handler
func NewStartCommand(app *App) *StartCommand {
	return &StartCommand{app: app}
}

// Execute runs the start command
func (c *StartCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.NewInvalidInputError("command", "start", "usage: att start [ORG] ID")
	}

	orgID, workItemID, err := c.app.resolveWorkItemRef(ctx, args)
	if err != nil {
		return err
	}

	status, err := c.app.api.StartTimer(ctx, orgID, workItemID)
	if status != nil {
		c.app.printf("Started %s\n", describeStatus(*status))
	}
	return err
}

// describeStatus renders the work item, organization and elapsed time
func describeStatus(status api.TimerStatus) string {
	if status.WorkItem == nil {
		return "timer"
	}
	return status.WorkItem.String() + " (" + status.WorkItem.OrganizationName + ") " + formatElapsed(status.Elapsed)
}

package cli

import (
	"context"

	"ado-time-tracker/internal/errors"
)

// StopCommand handles the stop command
type StopCommand struct {
	app         *App
	description string
}

// NewStopCommand creates a new stop command handler
func NewStopCommand(app *App) *StopCommand {
	return &StopCommand{app: app}
}

// Execute runs the stop command
func (c *StopCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.NewInvalidInputError("command", "stop", "usage: att stop [-m description]")
	}
	return c.stopTimer(ctx)
}

// stopTimer records the running session in the ledger
func (c *StopCommand) stopTimer(ctx context.Context) error {
	entry, err := c.app.api.StopTimer(ctx, c.description)
	if entry == nil {
		if err == nil {
			c.app.printf("Timer stopped. Less than a minute was tracked, nothing recorded\n")
		}
		return err
	}

	c.app.printf("Recorded %s on #%d %s\n", formatMinutes(entry.DurationMinutes), entry.WorkItemID, entry.WorkItemTitle)
	return err
}

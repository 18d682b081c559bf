package cli

import (
	"context"

	"ado-time-tracker/internal/errors"
)

// PauseCommand handles the pause command
type PauseCommand struct {
	app *App
}

// NewPauseCommand creates a new pause command handler
func NewPauseCommand(app *App) *PauseCommand {
	return &PauseCommand{app: app}
}

// Execute runs the pause command
func (c *PauseCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.NewInvalidInputError("command", "pause", "usage: att pause")
	}

	status, err := c.app.api.PauseTimer(ctx)
	if status != nil {
		c.app.printf("Paused %s\n", describeStatus(*status))
	}
	return err
}

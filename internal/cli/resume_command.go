package cli

import (
	"context"

	"ado-time-tracker/internal/errors"
)

// ResumeCommand handles the resume command
type ResumeCommand struct {
	app *App
}

// NewResumeCommand creates a new resume command handler
func NewResumeCommand(app *App) *ResumeCommand {
	return &ResumeCommand{app: app}
}

// Execute runs the resume command
func (c *ResumeCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.NewInvalidInputError("command", "resume", "usage: att resume")
	}

	status, err := c.app.api.ResumeTimer(ctx)
	if status != nil {
		c.app.printf("Resumed %s\n", describeStatus(*status))
	}
	return err
}

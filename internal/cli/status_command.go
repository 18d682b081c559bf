package cli

import (
	"context"
	"fmt"

	"ado-time-tracker/internal/api"
	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"
	"ado-time-tracker/internal/services"
)

// StatusCommand handles the status command
type StatusCommand struct {
	app   *App
	watch bool
}

// NewStatusCommand creates a new status command handler
func NewStatusCommand(app *App) *StatusCommand {
	return &StatusCommand{app: app}
}

// Execute runs the status command
func (c *StatusCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.NewInvalidInputError("command", "status", "usage: att status [--watch]")
	}

	status, err := c.app.api.TimerStatus(ctx)
	if err != nil {
		return err
	}
	if !c.watch || status.State == domain.TimerIdle {
		c.app.printf("%s\n", formatStatusLine(*status))
		return nil
	}
	return c.watchStatus(ctx, *status)
}

// watchStatus redraws the status on every timer event until ctx is done or
// the timer goes idle
func (c *StatusCommand) watchStatus(ctx context.Context, initial api.TimerStatus) error {
	updates := make(chan api.TimerStatus, 1)
	unsubscribe := c.app.api.Subscribe(func(e services.Event) {
		// Listeners are called serially, so only the newest status is kept.
		select {
		case updates <- e.Status:
		default:
			select {
			case <-updates:
			default:
			}
			updates <- e.Status
		}
	})
	defer unsubscribe()

	interactive, width := terminalWidth(c.app.out)
	render := func(status api.TimerStatus) {
		line := formatStatusLine(status)
		if interactive {
			fmt.Fprintf(c.app.out, "\r\033[K%s", truncate(line, width))
			return
		}
		fmt.Fprintln(c.app.out, line)
	}

	render(initial)
	defer func() {
		if interactive {
			fmt.Fprintln(c.app.out)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case status := <-updates:
			render(status)
			if status.State == domain.TimerIdle {
				return nil
			}
		}
	}
}

// formatStatusLine renders one status line
func formatStatusLine(status api.TimerStatus) string {
	switch status.State {
	case domain.TimerRunning:
		return "Running  " + describeStatus(status)
	case domain.TimerPaused:
		return "Paused   " + describeStatus(status)
	default:
		return "No timer running"
	}
}

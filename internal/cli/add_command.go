package cli

import (
	"context"
	"time"

	"ado-time-tracker/internal/errors"
)

// AddCommand handles the entries add command
type AddCommand struct {
	app         *App
	start       string
	end         string
	duration    string
	description string
}

// NewAddCommand creates a new add command handler
func NewAddCommand(app *App) *AddCommand {
	return &AddCommand{app: app}
}

// Execute records a manual entry for a work item
func (c *AddCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.NewInvalidInputError("command", "entries add", "usage: att entries add [ORG] ID --start TIME (--end TIME | --duration 45m)")
	}

	orgID, workItemID, err := c.app.resolveWorkItemRef(ctx, args)
	if err != nil {
		return err
	}

	start, end, err := c.timeRange()
	if err != nil {
		return err
	}

	entry, err := c.app.api.AddManualEntry(ctx, orgID, workItemID, start, end, c.description)
	if err != nil {
		return err
	}

	c.app.printf("Recorded %s on #%d %s (%s)\n", formatMinutes(entry.DurationMinutes), entry.WorkItemID, entry.WorkItemTitle, shortID(entry.ID))
	return nil
}

// timeRange resolves the flags into start and end instants
func (c *AddCommand) timeRange() (time.Time, time.Time, error) {
	now := timeNow()
	if c.start == "" {
		return time.Time{}, time.Time{}, errors.NewInvalidInputError("start", "", "--start is required")
	}
	start, err := parseClock(c.start, now)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewInvalidInputError("start", c.start, err.Error())
	}

	switch {
	case c.end != "" && c.duration != "":
		return time.Time{}, time.Time{}, errors.NewInvalidInputError("end", c.end, "use either --end or --duration")
	case c.end != "":
		end, err := parseClock(c.end, now)
		if err != nil {
			return time.Time{}, time.Time{}, errors.NewInvalidInputError("end", c.end, err.Error())
		}
		return start, end, nil
	case c.duration != "":
		d, err := parseDuration(c.duration)
		if err != nil {
			return time.Time{}, time.Time{}, errors.NewInvalidInputError("duration", c.duration, err.Error())
		}
		return start, start.Add(d), nil
	default:
		return time.Time{}, time.Time{}, errors.NewInvalidInputError("end", "", "--end or --duration is required")
	}
}

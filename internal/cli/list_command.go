package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"
)

// ListCommand handles the entries command
type ListCommand struct {
	app          *App
	unsyncedOnly bool
}

// NewListCommand creates a new list command handler
func NewListCommand(app *App) *ListCommand {
	return &ListCommand{app: app}
}

// Execute runs the list command
func (c *ListCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.NewInvalidInputError("command", "entries", "usage: att entries [--unsynced]")
	}

	entries, err := c.app.api.ListEntries(ctx, c.unsyncedOnly)
	if err != nil {
		return err
	}
	return c.printEntries(entries)
}

// printEntries prints one row per entry, oldest first
func (c *ListCommand) printEntries(entries []domain.TimeEntry) error {
	if len(entries) == 0 {
		if c.unsyncedOnly {
			c.app.printf("No unsynced time entries\n")
		} else {
			c.app.printf("No time entries\n")
		}
		return nil
	}

	now := timeNow()
	w := tabwriter.NewWriter(c.app.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTART\tDURATION\tWORK ITEM\tSYNCED\tDESCRIPTION")
	totalMinutes := 0
	for _, entry := range entries {
		description := ""
		if entry.Description != nil {
			description = truncate(*entry.Description, 40)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s #%d %s\t%s\t%s\n",
			shortID(entry.ID),
			entry.StartTime.Local().Format("2006-01-02 15:04"),
			formatMinutes(entry.DurationMinutes),
			entry.OrganizationID,
			entry.WorkItemID,
			truncate(entry.WorkItemTitle, 40),
			formatSynced(entry, now),
			description,
		)
		totalMinutes += entry.DurationMinutes
	}
	if err := w.Flush(); err != nil {
		return err
	}

	c.app.printf("\n%d entries, %s total\n", len(entries), formatMinutes(totalMinutes))
	return nil
}

package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"
)

// ItemsSearchCommand handles the items search command
type ItemsSearchCommand struct {
	app            *App
	organizationID string
}

// NewItemsSearchCommand creates a new items search command handler
func NewItemsSearchCommand(app *App) *ItemsSearchCommand {
	return &ItemsSearchCommand{app: app}
}

// Execute searches trackable work items by id or title
func (c *ItemsSearchCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.NewInvalidInputError("command", "items search", "usage: att items search [--org ORG] TEXT")
	}

	orgID, err := c.app.resolveOrganization(ctx, c.organizationID)
	if err != nil {
		return err
	}

	items, err := c.app.api.SearchWorkItems(ctx, orgID, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return printWorkItems(c.app, items)
}

// ItemsMineCommand handles the items mine command
type ItemsMineCommand struct {
	app            *App
	organizationID string
}

// NewItemsMineCommand creates a new items mine command handler
func NewItemsMineCommand(app *App) *ItemsMineCommand {
	return &ItemsMineCommand{app: app}
}

// Execute lists trackable work items assigned to the token's user
func (c *ItemsMineCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.NewInvalidInputError("command", "items mine", "usage: att items mine [--org ORG]")
	}

	orgID, err := c.app.resolveOrganization(ctx, c.organizationID)
	if err != nil {
		return err
	}

	items, err := c.app.api.AssignedWorkItems(ctx, orgID)
	if err != nil {
		return err
	}
	return printWorkItems(c.app, items)
}

func printWorkItems(app *App, items []domain.WorkItem) error {
	if len(items) == 0 {
		app.printf("No work items found\n")
		return nil
	}

	w := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATE\tCOMPLETED\tTITLE")
	for _, item := range items {
		completed := "-"
		if item.RemoteCompletedWork != nil {
			completed = formatHours(*item.RemoteCompletedWork)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", item.ID, item.Type, item.State, completed, truncate(item.Title, 60))
	}
	return w.Flush()
}

package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"ado-time-tracker/internal/errors"
)

// OrgsCommand handles the orgs command
type OrgsCommand struct {
	app *App
}

// NewOrgsCommand creates a new orgs command handler
func NewOrgsCommand(app *App) *OrgsCommand {
	return &OrgsCommand{app: app}
}

// Execute lists the configured organizations. Tokens are never printed.
func (c *OrgsCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.NewInvalidInputError("command", "orgs", "usage: att orgs")
	}

	orgs := c.app.api.Organizations(ctx)
	if len(orgs) == 0 {
		c.app.printf("No organizations configured. Add them to %s\n", c.app.config.Organizations.File)
		return nil
	}

	w := tabwriter.NewWriter(c.app.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROJECT\tURL")
	for _, org := range orgs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", org.ID, org.DisplayName(), org.Project, org.URL)
	}
	return w.Flush()
}

package cli

import (
	"context"
	"strings"

	"ado-time-tracker/internal/errors"

	"github.com/google/uuid"
)

// DeleteCommand handles the entries delete command
type DeleteCommand struct {
	app *App
}

// NewDeleteCommand creates a new delete command handler
func NewDeleteCommand(app *App) *DeleteCommand {
	return &DeleteCommand{app: app}
}

// Execute deletes one entry by id or by an unambiguous id prefix
func (c *DeleteCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.NewInvalidInputError("command", "entries delete", "usage: att entries delete ID")
	}

	id, err := c.resolveID(ctx, args[0])
	if err != nil {
		return err
	}
	if err := c.app.api.DeleteEntry(ctx, id); err != nil {
		return err
	}

	c.app.printf("Deleted time entry %s\n", shortID(id))
	return nil
}

// resolveID expands the short ids printed by the entries table
func (c *DeleteCommand) resolveID(ctx context.Context, raw string) (string, error) {
	if _, err := uuid.Parse(raw); err == nil {
		return raw, nil
	}
	if len(raw) < 4 {
		return "", errors.NewInvalidInputError("id", raw, "use at least 4 characters of the entry id")
	}

	entries, err := c.app.api.ListEntries(ctx, false)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.ID, raw) {
			matches = append(matches, entry.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", errors.NewNotFoundError("time entry", raw)
	case 1:
		return matches[0], nil
	default:
		return "", errors.NewInvalidInputError("id", raw, "matches more than one time entry")
	}
}

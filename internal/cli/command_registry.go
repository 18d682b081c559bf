package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ado-time-tracker/internal/errors"
)

// Command represents a CLI command
type Command interface {
	Execute(ctx context.Context, args []string) error
}

// CommandRegistry manages all available commands. Nested commands are
// registered under space separated names such as "entries delete".
type CommandRegistry struct {
	commands map[string]Command
}

// NewCommandRegistry creates a registry holding every command with default
// options
func NewCommandRegistry(app *App) *CommandRegistry {
	registry := &CommandRegistry{
		commands: make(map[string]Command),
	}

	registry.Register("start", NewStartCommand(app))
	registry.Register("pause", NewPauseCommand(app))
	registry.Register("resume", NewResumeCommand(app))
	registry.Register("stop", NewStopCommand(app))
	registry.Register("status", NewStatusCommand(app))
	registry.Register("sync", NewSyncCommand(app))
	registry.Register("entries", NewListCommand(app))
	registry.Register("entries add", NewAddCommand(app))
	registry.Register("entries delete", NewDeleteCommand(app))
	registry.Register("entries export", NewOutputCommand(app))
	registry.Register("summary", NewSummaryCommand(app))
	registry.Register("items search", NewItemsSearchCommand(app))
	registry.Register("items mine", NewItemsMineCommand(app))
	registry.Register("log", NewLogCommand(app))
	registry.Register("orgs", NewOrgsCommand(app))

	return registry
}

// Register adds a command to the registry, replacing any existing one
func (r *CommandRegistry) Register(name string, command Command) {
	r.commands[name] = command
}

// Execute runs the specified command with the given arguments. A two word
// name is tried first so "entries delete ID" reaches the nested command.
func (r *CommandRegistry) Execute(ctx context.Context, commandName string, args []string) error {
	if len(args) > 0 {
		if command, exists := r.commands[commandName+" "+args[0]]; exists {
			return command.Execute(ctx, args[1:])
		}
	}

	command, exists := r.commands[commandName]
	if !exists {
		return errors.NewInvalidInputError("command", commandName, "unknown command")
	}
	return command.Execute(ctx, args)
}

// GetUsage returns the usage string for the CLI
func (r *CommandRegistry) GetUsage() string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("usage: att <command>\n\ncommands:\n  %s", strings.Join(names, "\n  "))
}

package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"

	"gopkg.in/yaml.v3"
)

// OutputCommand handles the entries export command
type OutputCommand struct {
	app          *App
	format       string
	unsyncedOnly bool
}

// NewOutputCommand creates a new output command handler
func NewOutputCommand(app *App) *OutputCommand {
	return &OutputCommand{app: app, format: "csv"}
}

// Execute runs the output command. "format=csv" is accepted as an argument
// as well as through --format.
func (c *OutputCommand) Execute(ctx context.Context, args []string) error {
	format := c.format
	switch len(args) {
	case 0:
	case 1:
		if !strings.HasPrefix(args[0], "format=") {
			return errors.NewInvalidInputError("format", args[0], "invalid format option")
		}
		format = strings.TrimPrefix(args[0], "format=")
	default:
		return errors.NewInvalidInputError("command", "entries export", "usage: att entries export [--format csv|yaml]")
	}

	entries, err := c.app.api.ListEntries(ctx, c.unsyncedOnly)
	if err != nil {
		return err
	}

	switch format {
	case "csv":
		return c.outputCSV(entries)
	case "yaml":
		return c.outputYAML(entries)
	default:
		return errors.NewInvalidInputError("format", format, "unsupported format")
	}
}

// outputCSV writes one row per entry
func (c *OutputCommand) outputCSV(entries []domain.TimeEntry) error {
	writer := csv.NewWriter(c.app.out)

	header := []string{"ID", "Organization", "Work Item", "Title", "Start Time", "End Time", "Minutes", "Hours", "Synced At", "Description"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		row := []string{
			entry.ID,
			entry.OrganizationID,
			strconv.FormatInt(entry.WorkItemID, 10),
			entry.WorkItemTitle,
			entry.StartTime.Format(time.RFC3339),
			entry.EndTime.Format(time.RFC3339),
			strconv.Itoa(entry.DurationMinutes),
			fmt.Sprintf("%.2f", entry.Duration().Hours()),
			formatOptionalTime(entry.SyncedAt),
			stringValue(entry.Description),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

type exportedEntry struct {
	ID           string     `yaml:"id"`
	Organization string     `yaml:"organization"`
	WorkItem     int64      `yaml:"work_item"`
	Title        string     `yaml:"title"`
	Start        time.Time  `yaml:"start"`
	End          time.Time  `yaml:"end"`
	Minutes      int        `yaml:"minutes"`
	SyncedAt     *time.Time `yaml:"synced_at,omitempty"`
	Description  string     `yaml:"description,omitempty"`
}

// outputYAML writes the entries as a YAML sequence
func (c *OutputCommand) outputYAML(entries []domain.TimeEntry) error {
	out := make([]exportedEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, exportedEntry{
			ID:           entry.ID,
			Organization: entry.OrganizationID,
			WorkItem:     entry.WorkItemID,
			Title:        entry.WorkItemTitle,
			Start:        entry.StartTime,
			End:          entry.EndTime,
			Minutes:      entry.DurationMinutes,
			SyncedAt:     entry.SyncedAt,
			Description:  stringValue(entry.Description),
		})
	}

	encoder := yaml.NewEncoder(c.app.out)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

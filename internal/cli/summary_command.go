package cli

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"
)

// SummaryCommand handles the summary command
type SummaryCommand struct {
	app *App
}

// NewSummaryCommand creates a new summary command handler
func NewSummaryCommand(app *App) *SummaryCommand {
	return &SummaryCommand{app: app}
}

type workItemTotals struct {
	key             domain.GroupKey
	title           string
	totalMinutes    int
	unsyncedMinutes int
	entries         int
}

// Execute totals tracked time per work item, optionally limited to entries
// started within a recent window such as "1w"
func (c *SummaryCommand) Execute(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return errors.NewInvalidInputError("command", "summary", "usage: att summary [30m|2h|1d|1w|1mo|1y]")
	}

	entries, err := c.app.api.ListEntries(ctx, false)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		window, err := parseTimeShorthand(args[0])
		if err != nil {
			return errors.NewInvalidInputError("window", args[0], err.Error())
		}
		since := timeNow().Add(-window)
		entries = startedSince(entries, since)
	}

	return c.printSummary(summarize(entries))
}

func startedSince(entries []domain.TimeEntry, since time.Time) []domain.TimeEntry {
	var kept []domain.TimeEntry
	for _, entry := range entries {
		if !entry.StartTime.Before(since) {
			kept = append(kept, entry)
		}
	}
	return kept
}

// summarize groups entries per work item, largest total first
func summarize(entries []domain.TimeEntry) []workItemTotals {
	index := make(map[domain.GroupKey]int)
	var totals []workItemTotals
	for _, entry := range entries {
		key := entry.Key()
		i, ok := index[key]
		if !ok {
			i = len(totals)
			index[key] = i
			totals = append(totals, workItemTotals{key: key, title: entry.WorkItemTitle})
		}
		totals[i].totalMinutes += entry.DurationMinutes
		totals[i].entries++
		if !entry.SyncedToAdo {
			totals[i].unsyncedMinutes += entry.DurationMinutes
		}
	}

	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].totalMinutes != totals[j].totalMinutes {
			return totals[i].totalMinutes > totals[j].totalMinutes
		}
		return totals[i].key.String() < totals[j].key.String()
	})
	return totals
}

func (c *SummaryCommand) printSummary(totals []workItemTotals) error {
	if len(totals) == 0 {
		c.app.printf("No time entries found\n")
		return nil
	}

	w := tabwriter.NewWriter(c.app.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORK ITEM\tENTRIES\tTOTAL\tUNSYNCED")
	grand, unsynced := 0, 0
	for _, t := range totals {
		fmt.Fprintf(w, "%s #%d %s\t%d\t%s\t%s\n",
			t.key.OrganizationID, t.key.WorkItemID, truncate(t.title, 40),
			t.entries, formatMinutes(t.totalMinutes), formatMinutes(t.unsyncedMinutes))
		grand += t.totalMinutes
		unsynced += t.unsyncedMinutes
	}
	fmt.Fprintf(w, "TOTAL\t\t%s\t%s\n", formatMinutes(grand), formatMinutes(unsynced))
	return w.Flush()
}

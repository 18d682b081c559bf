package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ado-time-tracker/internal/api"
	"ado-time-tracker/internal/config"
	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"
	"ado-time-tracker/internal/validation"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// timeNow is a variable that can be replaced in tests
var timeNow = time.Now

// App represents the main CLI application
type App struct {
	api      api.BusinessAPI
	config   *config.Config
	out      io.Writer
	errOut   io.Writer
	errors   *ErrorHandler
	registry *CommandRegistry
}

// NewApp creates a new CLI application instance with dependency injection
func NewApp(businessAPI api.BusinessAPI, cfg *config.Config, out, errOut io.Writer) *App {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	app := &App{
		api:    businessAPI,
		config: cfg,
		out:    out,
		errOut: errOut,
		errors: NewErrorHandler(),
	}
	app.registry = NewCommandRegistry(app)
	return app
}

// Run executes the named command without going through cobra
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", a.registry.GetUsage())
	}
	return a.registry.Execute(ctx, args[0], args[1:])
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

// resolveWorkItemRef accepts "ORG ID", "ORG/ID" or a bare "ID" when only
// one organization is configured.
func (a *App) resolveWorkItemRef(ctx context.Context, args []string) (string, int64, error) {
	var orgID, raw string
	switch len(args) {
	case 2:
		orgID, raw = args[0], args[1]
	case 1:
		if i := strings.LastIndex(args[0], "/"); i >= 0 {
			orgID, raw = args[0][:i], args[0][i+1:]
			break
		}
		raw = args[0]
		orgs := a.api.Organizations(ctx)
		if len(orgs) != 1 {
			return "", 0, errors.NewInvalidInputError("organization", "", "required when more than one organization is configured")
		}
		orgID = orgs[0].ID
	default:
		return "", 0, errors.NewInvalidInputError("work item", strings.Join(args, " "), "expected ORG ID, ORG/ID or ID")
	}

	id, ok := validation.ParseWorkItemID(raw)
	if !ok {
		return "", 0, errors.NewInvalidInputError("work item", raw, "not a work item id")
	}
	return orgID, id, nil
}

// resolveOrganization returns the single configured organization when none
// is given.
func (a *App) resolveOrganization(ctx context.Context, orgID string) (string, error) {
	if orgID != "" {
		return orgID, nil
	}
	orgs := a.api.Organizations(ctx)
	if len(orgs) != 1 {
		return "", errors.NewInvalidInputError("organization", "", "use --org when more than one organization is configured")
	}
	return orgs[0].ID, nil
}

// parseTimeShorthand parses time shorthand like "30m", "2h", "1d", etc.
func parseTimeShorthand(shorthand string) (time.Duration, error) {
	re := regexp.MustCompile(`^(\d+)(m|h|d|w|mo|y)$`)
	matches := re.FindStringSubmatch(shorthand)
	if matches == nil {
		return 0, fmt.Errorf("invalid time format: %s", shorthand)
	}

	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number in time format: %s", shorthand)
	}

	unit := matches[2]
	var duration time.Duration

	switch unit {
	case "m":
		duration = time.Duration(value) * time.Minute
	case "h":
		duration = time.Duration(value) * time.Hour
	case "d":
		duration = time.Duration(value) * 24 * time.Hour
	case "w":
		duration = time.Duration(value) * 7 * 24 * time.Hour
	case "mo":
		duration = time.Duration(value) * 30 * 24 * time.Hour
	case "y":
		duration = time.Duration(value) * 365 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid time unit: %s", unit)
	}

	return duration, nil
}

// parseDuration accepts shorthand ("45m") and Go durations ("1h30m")
func parseDuration(s string) (time.Duration, error) {
	if d, err := parseTimeShorthand(s); err == nil {
		return d, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}
	return d, nil
}

// parseClock parses "2006-01-02 15:04" or "15:04" (today) in local time
func parseClock(s string, now time.Time) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, now.Location()); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("15:04", s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use \"YYYY-MM-DD HH:MM\" or \"HH:MM\"", s)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}

// formatElapsed renders a duration as HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatMinutes renders whole minutes as "1h 05m"
func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// formatHours renders hours with at most two decimals
func formatHours(hours float64) string {
	return humanize.FtoaWithDigits(hours, 2) + "h"
}

// formatSynced describes when an entry was synced relative to now
func formatSynced(entry domain.TimeEntry, now time.Time) string {
	if !entry.SyncedToAdo || entry.SyncedAt == nil {
		return "no"
	}
	return humanize.RelTime(*entry.SyncedAt, now, "ago", "from now")
}

// terminalWidth reports whether w is an interactive terminal and its width
func terminalWidth(w io.Writer) (bool, int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return true, 0
	}
	return true, width
}

// truncate shortens s to width runes, marking the cut with "…"
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

// shortID abbreviates an entry id for tables
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

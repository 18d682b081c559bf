package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ado-time-tracker/internal/api"
	"ado-time-tracker/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// APIFactory builds the business API once configuration is final. The
// returned cleanup releases everything the factory opened.
type APIFactory func(ctx context.Context, cfg *config.Config) (api.BusinessAPI, func(), error)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd     *cobra.Command
	app     *App
	factory APIFactory
	cleanup func()
}

// NewRootCommand creates the root cobra command with global flags
func NewRootCommand(factory APIFactory, out, errOut io.Writer) *RootCommand {
	root := &RootCommand{
		app:     NewApp(nil, config.NewConfig(), out, errOut),
		factory: factory,
	}

	root.cmd = &cobra.Command{
		Use:   "att",
		Short: "Track time against Azure DevOps work items",
		Long: `att tracks time spent on Azure DevOps work items and adds it to their
CompletedWork field.

WORKFLOW:
  att items mine                           # Find work assigned to you
  att start contoso 1234                   # Start the timer on a work item
  att pause / att resume                   # Breaks are not counted
  att stop -m "reviewed PR"                # Record the session locally
  att sync                                 # Add unsynced time to CompletedWork

Sessions shorter than a minute are discarded. A running or paused timer
survives restarts; the session is restored on the next invocation.

CONFIGURATION:
  Priority order: command-line flags > environment variables > config file > defaults

  ATT_CONFIG_FILE                          Config file (default: ~/.att/config.yaml)
  ATT_ORGS_FILE                            Organizations file (default: ~/.att/organizations.yaml)
  ATT_DB_DIR                               Database directory (default: ~/.att)
  ATT_DB_FILENAME                          Database filename (default: att.db)
  ATT_SYNC_REMOTE_TIMEOUT                  Per-request remote timeout (default: 30s)
  ATT_SYNC_CONCURRENCY                     Work items synced in parallel (default: 4)
  ATT_DIRECTORY_CACHE_TTL                  Work item cache lifetime (default: 5m)
  ATT_LOG_LEVEL                            debug, info, warn or error (default: warn)
  ATT_DEBUG                                Print HTTP traffic to stderr

ORGANIZATIONS FILE:
  organizations:
    - id: contoso
      name: Contoso
      url: https://dev.azure.com/contoso
      project: Web
      token_env: CONTOSO_PAT`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.cmd.SetOut(out)
	root.cmd.SetErr(errOut)

	root.addGlobalFlags()
	root.addSubcommands()

	return root
}

// Execute runs the root command with args and releases the API afterwards
func (r *RootCommand) Execute(ctx context.Context, args []string) error {
	defer r.close()
	r.cmd.SetArgs(args)
	return r.cmd.ExecuteContext(ctx)
}

// addGlobalFlags adds global configuration flags
func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	flags.String("config", "", "Config file (overrides ATT_CONFIG_FILE)")
	flags.String("orgs-file", "", "Organizations file (overrides ATT_ORGS_FILE)")

	// Database configuration
	flags.String("db-dir", "", "Database directory (overrides ATT_DB_DIR)")
	flags.String("db-filename", "", "Database filename (overrides ATT_DB_FILENAME)")
	flags.Duration("db-query-timeout", 0, "Database query timeout (overrides ATT_DB_QUERY_TIMEOUT)")

	// Timer configuration
	flags.Duration("tick-interval", 0, "Status refresh interval (overrides ATT_TIMER_TICK_INTERVAL)")
	flags.Bool("preserve-pause", false, "Keep the persisted pause instant on restore instead of restarting the pause (overrides ATT_TIMER_PRESERVE_PAUSE)")

	// Sync configuration
	flags.Duration("sync-timeout", 0, "Per-request remote timeout (overrides ATT_SYNC_REMOTE_TIMEOUT)")
	flags.Int("sync-concurrency", 0, "Work items synced in parallel (overrides ATT_SYNC_CONCURRENCY)")
	flags.Int("sync-log-capacity", 0, "Sync records kept (overrides ATT_SYNC_LOG_CAPACITY)")
	flags.Float64("sync-rps", 0, "Remote requests per second (overrides ATT_SYNC_REQUESTS_PER_SECOND)")

	// Directory configuration
	flags.Duration("cache-ttl", 0, "Work item cache lifetime (overrides ATT_DIRECTORY_CACHE_TTL)")

	// Application configuration
	flags.Duration("app-timeout", 0, "Application timeout (overrides ATT_APP_TIMEOUT)")
	flags.BoolP("verbose", "v", false, "Enable verbose output (overrides ATT_APP_VERBOSE)")
	flags.String("log-level", "", "Log level (overrides ATT_LOG_LEVEL)")
}

// addSubcommands adds all CLI subcommands to the root command
func (r *RootCommand) addSubcommands() {
	app := r.app

	startCmd := &cobra.Command{
		Use:   "start [ORG] ID",
		Short: "Start the timer on a work item",
		Long: `Start tracking time on a work item. The item must exist, be of a trackable
type and not be in a terminal state.

Examples:
  att start contoso 1234
  att start contoso/1234
  att start 1234            # when a single organization is configured`,
		Args: cobra.RangeArgs(1, 2),
		RunE: r.run("start", "start timer", timed),
	}

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause the running timer",
		Args:  cobra.NoArgs,
		RunE:  r.run("pause", "pause timer", timed),
	}

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume the paused timer",
		Args:  cobra.NoArgs,
		RunE:  r.run("resume", "resume timer", timed),
	}

	stop := NewStopCommand(app)
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the timer and record the session",
		Long:  "Stop the timer and record the worked time, rounded to the nearest minute. Sessions under a minute are discarded.",
		Args:  cobra.NoArgs,
		RunE:  r.run("stop", "stop timer", timed),
	}
	stopCmd.Flags().StringVarP(&stop.description, "message", "m", "", "Description of the work done")
	app.registry.Register("stop", stop)

	status := NewStatusCommand(app)
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the timer state",
		Args:  cobra.NoArgs,
		RunE: r.run("status", "show status", func() bool {
			return !status.watch
		}),
	}
	statusCmd.Flags().BoolVarP(&status.watch, "watch", "w", false, "Keep refreshing until interrupted or the timer stops")
	app.registry.Register("status", status)

	syncCmd := &cobra.Command{
		Use:   "sync [ENTRY_ID...]",
		Short: "Add unsynced time to CompletedWork",
		Long: `Group unsynced entries by work item and add their total to the item's
CompletedWork. A failing work item does not stop the others; its entries stay
unsynced and are retried on the next sync.`,
		RunE: r.run("sync", "sync", timed),
	}

	list := NewListCommand(app)
	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "List recorded time entries",
		Args:  cobra.NoArgs,
		RunE:  r.run("entries", "list entries", timed),
	}
	entriesCmd.Flags().BoolVarP(&list.unsyncedOnly, "unsynced", "u", false, "Only show entries not yet synced")
	app.registry.Register("entries", list)

	add := NewAddCommand(app)
	addCmd := &cobra.Command{
		Use:   "add [ORG] ID",
		Short: "Record time manually",
		Long: `Record a time entry without the timer.

Examples:
  att entries add contoso 1234 --start 09:00 --end 10:30
  att entries add 1234 --start "2026-03-02 14:00" --duration 45m -m "standup"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: r.run("entries add", "add entry", timed),
	}
	addCmd.Flags().StringVar(&add.start, "start", "", "Start time, \"YYYY-MM-DD HH:MM\" or \"HH:MM\" today")
	addCmd.Flags().StringVar(&add.end, "end", "", "End time, same formats as --start")
	addCmd.Flags().StringVarP(&add.duration, "duration", "d", "", "Duration such as 45m or 1h30m")
	addCmd.Flags().StringVarP(&add.description, "message", "m", "", "Description of the work done")
	app.registry.Register("entries add", add)

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a time entry",
		Long:  "Delete a time entry by id or by the short id shown in the entries table. Deleting a synced entry does not change CompletedWork.",
		Args:  cobra.ExactArgs(1),
		RunE:  r.run("entries delete", "delete entry", timed),
	}

	output := NewOutputCommand(app)
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export time entries",
		Args:  cobra.MaximumNArgs(1),
		RunE:  r.run("entries export", "export entries", timed),
	}
	exportCmd.Flags().StringVarP(&output.format, "format", "f", "csv", "Output format: csv or yaml")
	exportCmd.Flags().BoolVarP(&output.unsyncedOnly, "unsynced", "u", false, "Only export entries not yet synced")
	app.registry.Register("entries export", output)
	entriesCmd.AddCommand(addCmd, deleteCmd, exportCmd)

	summaryCmd := &cobra.Command{
		Use:   "summary [WINDOW]",
		Short: "Total tracked time per work item",
		Long: `Total tracked time per work item.

Window filters support: 30m, 2h, 1d, 2w, 3mo, 1y`,
		Args: cobra.MaximumNArgs(1),
		RunE: r.run("summary", "summarize entries", timed),
	}

	itemsCmd := &cobra.Command{
		Use:   "items",
		Short: "Find work items to track",
	}
	search := NewItemsSearchCommand(app)
	searchCmd := &cobra.Command{
		Use:   "search TEXT",
		Short: "Search work items by id or title",
		Args:  cobra.MinimumNArgs(1),
		RunE:  r.run("items search", "search work items", timed),
	}
	searchCmd.Flags().StringVar(&search.organizationID, "org", "", "Organization id")
	app.registry.Register("items search", search)

	mine := NewItemsMineCommand(app)
	mineCmd := &cobra.Command{
		Use:   "mine",
		Short: "List work items assigned to you",
		Args:  cobra.NoArgs,
		RunE:  r.run("items mine", "list assigned work items", timed),
	}
	mineCmd.Flags().StringVar(&mine.organizationID, "org", "", "Organization id")
	app.registry.Register("items mine", mine)
	itemsCmd.AddCommand(searchCmd, mineCmd)

	logCmd := NewLogCommand(app)
	syncLogCmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent sync history",
		Args:  cobra.NoArgs,
		RunE:  r.run("log", "show sync log", timed),
	}
	syncLogCmd.Flags().IntVarP(&logCmd.limit, "limit", "n", 20, "Number of records to show")
	app.registry.Register("log", logCmd)

	orgsCmd := &cobra.Command{
		Use:   "orgs",
		Short: "List configured organizations",
		Args:  cobra.NoArgs,
		RunE:  r.run("orgs", "list organizations", timed),
	}

	r.cmd.AddCommand(
		startCmd,
		pauseCmd,
		resumeCmd,
		stopCmd,
		statusCmd,
		syncCmd,
		entriesCmd,
		summaryCmd,
		itemsCmd,
		syncLogCmd,
		orgsCmd,
	)
}

// timed commands run under the application timeout
func timed() bool { return true }

// run builds a RunE that sets up the API and dispatches through the registry
func (r *RootCommand) run(name, operation string, withTimeout func() bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := r.setup(cmd.Context()); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if withTimeout() {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.getAppTimeout())
			defer cancel()
		}

		err := r.app.registry.Execute(ctx, name, args)
		return r.app.errors.Report(r.app.errOut, operation, err)
	}
}

// setup loads configuration with flag overrides and builds the API
func (r *RootCommand) setup(ctx context.Context) error {
	if r.app.api != nil {
		return nil
	}

	cfg, err := config.NewLoader().LoadWithOverrides(r.getConfigOverrides())
	if err != nil {
		return r.app.errors.Handle("load configuration", err)
	}

	businessAPI, cleanup, err := r.factory(ctx, cfg)
	if err != nil {
		return r.app.errors.Handle("initialize", err)
	}

	r.app.config = cfg
	r.app.api = businessAPI
	r.cleanup = cleanup
	return nil
}

func (r *RootCommand) close() {
	if r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}
}

// getAppTimeout returns the configured application timeout
func (r *RootCommand) getAppTimeout() time.Duration {
	if r.app.config != nil && r.app.config.Application.Timeout > 0 {
		return r.app.config.Application.Timeout
	}
	return 60 * time.Second
}

// getConfigOverrides collects the flags that were set explicitly
func (r *RootCommand) getConfigOverrides() *config.ConfigOverrides {
	flags := r.cmd.PersistentFlags()
	overrides := &config.ConfigOverrides{}

	overrides.ConfigFile = changedString(flags, "config")
	overrides.OrgsFile = changedString(flags, "orgs-file")

	overrides.DBDir = changedString(flags, "db-dir")
	overrides.DBFilename = changedString(flags, "db-filename")
	overrides.DBQueryTimeout = changedDuration(flags, "db-query-timeout")

	overrides.TickInterval = changedDuration(flags, "tick-interval")
	if flags.Changed("preserve-pause") {
		v, _ := flags.GetBool("preserve-pause")
		overrides.PreservePauseOnRestore = &v
	}

	overrides.RemoteTimeout = changedDuration(flags, "sync-timeout")
	if flags.Changed("sync-concurrency") {
		v, _ := flags.GetInt("sync-concurrency")
		overrides.SyncConcurrency = &v
	}
	if flags.Changed("sync-log-capacity") {
		v, _ := flags.GetInt("sync-log-capacity")
		overrides.SyncLogCapacity = &v
	}
	if flags.Changed("sync-rps") {
		v, _ := flags.GetFloat64("sync-rps")
		overrides.RequestsPerSecond = &v
	}

	overrides.CacheTTL = changedDuration(flags, "cache-ttl")

	overrides.Timeout = changedDuration(flags, "app-timeout")
	if flags.Changed("verbose") {
		v, _ := flags.GetBool("verbose")
		overrides.Verbose = &v
	}
	overrides.LogLevel = changedString(flags, "log-level")

	return overrides
}

func changedString(flags *pflag.FlagSet, name string) *string {
	if !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetString(name)
	return &v
}

func changedDuration(flags *pflag.FlagSet, name string) *time.Duration {
	if !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetDuration(name)
	return &v
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"ado-time-tracker/internal/errors"
)

// Config holds all configuration options for the time tracker application
type Config struct {
	Database      DatabaseConfig
	Timer         TimerConfig
	Sync          SyncConfig
	Directory     DirectoryConfig
	Organizations OrganizationsConfig
	Application   ApplicationConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Dir            string        `env:"ATT_DB_DIR"`
	Filename       string        `env:"ATT_DB_FILENAME"`
	QueryTimeout   time.Duration `env:"ATT_DB_QUERY_TIMEOUT"`
	DirPermissions uint32        `env:"ATT_DB_DIR_PERMISSIONS"`
}

// TimerConfig holds timer behaviour configuration
type TimerConfig struct {
	TickInterval time.Duration `env:"ATT_TIMER_TICK_INTERVAL"`
	// PreservePauseOnRestore keeps the persisted pause instant when a paused
	// session is restored. By default the pause restarts at restore time.
	PreservePauseOnRestore bool `env:"ATT_TIMER_PRESERVE_PAUSE"`
}

// SyncConfig holds reconciliation configuration
type SyncConfig struct {
	RemoteTimeout     time.Duration `env:"ATT_SYNC_REMOTE_TIMEOUT"`
	Concurrency       int           `env:"ATT_SYNC_CONCURRENCY"`
	LogCapacity       int           `env:"ATT_SYNC_LOG_CAPACITY"`
	LeaseTTL          time.Duration `env:"ATT_SYNC_LEASE_TTL"`
	RequestsPerSecond float64       `env:"ATT_SYNC_REQUESTS_PER_SECOND"`
}

// DirectoryConfig holds work item lookup configuration
type DirectoryConfig struct {
	CacheTTL       time.Duration `env:"ATT_DIRECTORY_CACHE_TTL"`
	SearchLimit    int           `env:"ATT_DIRECTORY_SEARCH_LIMIT"`
	AssignedLimit  int           `env:"ATT_DIRECTORY_ASSIGNED_LIMIT"`
	TrackableTypes []string      `env:"ATT_DIRECTORY_TRACKABLE_TYPES"`
	TerminalStates []string      `env:"ATT_DIRECTORY_TERMINAL_STATES"`
}

// OrganizationsConfig points at the organizations file
type OrganizationsConfig struct {
	File string `env:"ATT_ORGS_FILE"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	ConfigFile string        `env:"ATT_CONFIG_FILE"`
	Timeout    time.Duration `env:"ATT_APP_TIMEOUT"`
	Verbose    bool          `env:"ATT_APP_VERBOSE"`
	LogLevel   string        `env:"ATT_LOG_LEVEL"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".att")

	return &Config{
		Database: DatabaseConfig{
			Dir:            baseDir,
			Filename:       "att.db",
			QueryTimeout:   10 * time.Second,
			DirPermissions: 0755,
		},
		Timer: TimerConfig{
			TickInterval:           time.Second,
			PreservePauseOnRestore: false,
		},
		Sync: SyncConfig{
			RemoteTimeout:     30 * time.Second,
			Concurrency:       4,
			LogCapacity:       100,
			LeaseTTL:          2 * time.Minute,
			RequestsPerSecond: 10,
		},
		Directory: DirectoryConfig{
			CacheTTL:       5 * time.Minute,
			SearchLimit:    50,
			AssignedLimit:  200,
			TrackableTypes: []string{"Task", "Bug", "User Story", "Product Backlog Item", "Issue"},
			TerminalStates: []string{"Closed", "Resolved", "Done", "Removed"},
		},
		Organizations: OrganizationsConfig{
			File: filepath.Join(baseDir, "organizations.yaml"),
		},
		Application: ApplicationConfig{
			ConfigFile: filepath.Join(baseDir, "config.yaml"),
			Timeout:    60 * time.Second,
			Verbose:    false,
			LogLevel:   "warn",
		},
	}
}

// GetDatabasePath returns the full path to the database file
func (c *Config) GetDatabasePath() string {
	return filepath.Join(c.Database.Dir, c.Database.Filename)
}

// GetQueryTimeout returns the database query timeout
func (c *Config) GetQueryTimeout() time.Duration {
	return c.Database.QueryTimeout
}

// LoadFromEnvironment loads configuration from environment variables.
// Malformed values keep the current setting.
func (c *Config) LoadFromEnvironment() error {
	// Database configuration
	if dir := os.Getenv("ATT_DB_DIR"); dir != "" {
		c.Database.Dir = dir
	}
	if filename := os.Getenv("ATT_DB_FILENAME"); filename != "" {
		c.Database.Filename = filename
	}
	if timeout := os.Getenv("ATT_DB_QUERY_TIMEOUT"); timeout != "" {
		c.Database.QueryTimeout = ParseDurationWithFallback(timeout, c.Database.QueryTimeout)
	}
	if perms := os.Getenv("ATT_DB_DIR_PERMISSIONS"); perms != "" {
		c.Database.DirPermissions = ParseUint32WithFallback(perms, 8, c.Database.DirPermissions)
	}

	// Timer configuration
	if interval := os.Getenv("ATT_TIMER_TICK_INTERVAL"); interval != "" {
		c.Timer.TickInterval = ParseDurationWithFallback(interval, c.Timer.TickInterval)
	}
	if preserve := os.Getenv("ATT_TIMER_PRESERVE_PAUSE"); preserve != "" {
		c.Timer.PreservePauseOnRestore = ParseBoolWithFallback(preserve, c.Timer.PreservePauseOnRestore)
	}

	// Sync configuration
	if timeout := os.Getenv("ATT_SYNC_REMOTE_TIMEOUT"); timeout != "" {
		c.Sync.RemoteTimeout = ParseDurationWithFallback(timeout, c.Sync.RemoteTimeout)
	}
	if concurrency := os.Getenv("ATT_SYNC_CONCURRENCY"); concurrency != "" {
		c.Sync.Concurrency = ParseIntWithFallback(concurrency, c.Sync.Concurrency)
	}
	if capacity := os.Getenv("ATT_SYNC_LOG_CAPACITY"); capacity != "" {
		c.Sync.LogCapacity = ParseIntWithFallback(capacity, c.Sync.LogCapacity)
	}
	if ttl := os.Getenv("ATT_SYNC_LEASE_TTL"); ttl != "" {
		c.Sync.LeaseTTL = ParseDurationWithFallback(ttl, c.Sync.LeaseTTL)
	}
	if rps := os.Getenv("ATT_SYNC_REQUESTS_PER_SECOND"); rps != "" {
		c.Sync.RequestsPerSecond = ParseFloatWithFallback(rps, c.Sync.RequestsPerSecond)
	}

	// Directory configuration
	if ttl := os.Getenv("ATT_DIRECTORY_CACHE_TTL"); ttl != "" {
		c.Directory.CacheTTL = ParseDurationWithFallback(ttl, c.Directory.CacheTTL)
	}
	if limit := os.Getenv("ATT_DIRECTORY_SEARCH_LIMIT"); limit != "" {
		c.Directory.SearchLimit = ParseIntWithFallback(limit, c.Directory.SearchLimit)
	}
	if limit := os.Getenv("ATT_DIRECTORY_ASSIGNED_LIMIT"); limit != "" {
		c.Directory.AssignedLimit = ParseIntWithFallback(limit, c.Directory.AssignedLimit)
	}
	if types := os.Getenv("ATT_DIRECTORY_TRACKABLE_TYPES"); types != "" {
		c.Directory.TrackableTypes = SplitList(types)
	}
	if states := os.Getenv("ATT_DIRECTORY_TERMINAL_STATES"); states != "" {
		c.Directory.TerminalStates = SplitList(states)
	}

	// Organizations configuration
	if file := os.Getenv("ATT_ORGS_FILE"); file != "" {
		c.Organizations.File = file
	}

	// Application configuration
	if file := os.Getenv("ATT_CONFIG_FILE"); file != "" {
		c.Application.ConfigFile = file
	}
	if timeout := os.Getenv("ATT_APP_TIMEOUT"); timeout != "" {
		c.Application.Timeout = ParseDurationWithFallback(timeout, c.Application.Timeout)
	}
	if verbose := os.Getenv("ATT_APP_VERBOSE"); verbose != "" {
		c.Application.Verbose = ParseBoolWithFallback(verbose, c.Application.Verbose)
	}
	if level := os.Getenv("ATT_LOG_LEVEL"); level != "" {
		c.Application.LogLevel = level
	}

	return nil
}

// Validate validates the configuration and returns any errors
func (c *Config) Validate() error {
	// Validate database configuration
	if c.Database.Dir == "" {
		return errors.NewConfigurationError("database.dir", "database directory cannot be empty")
	}
	if c.Database.Filename == "" {
		return errors.NewConfigurationError("database.filename", "database filename cannot be empty")
	}
	if c.Database.QueryTimeout <= 0 {
		return errors.NewConfigurationError("database.query_timeout", "query timeout must be positive")
	}

	// Validate timer configuration
	if c.Timer.TickInterval <= 0 {
		return errors.NewConfigurationError("timer.tick_interval", "tick interval must be positive")
	}

	// Validate sync configuration
	if c.Sync.RemoteTimeout <= 0 {
		return errors.NewConfigurationError("sync.remote_timeout", "remote timeout must be positive")
	}
	if c.Sync.Concurrency < 1 {
		return errors.NewConfigurationError("sync.concurrency", "concurrency must be at least 1")
	}
	if c.Sync.LogCapacity < 1 {
		return errors.NewConfigurationError("sync.log_capacity", "log capacity must be at least 1")
	}
	if c.Sync.LeaseTTL < c.Sync.RemoteTimeout {
		return errors.NewConfigurationError("sync.lease_ttl", "lease TTL must cover the remote timeout")
	}
	if c.Sync.RequestsPerSecond < 0 {
		return errors.NewConfigurationError("sync.requests_per_second", "request rate cannot be negative")
	}

	// Validate directory configuration
	if c.Directory.CacheTTL < 0 {
		return errors.NewConfigurationError("directory.cache_ttl", "cache TTL cannot be negative")
	}
	if c.Directory.SearchLimit < 1 || c.Directory.SearchLimit > 200 {
		return errors.NewConfigurationError("directory.search_limit", "search limit must be between 1 and 200")
	}
	if c.Directory.AssignedLimit < 1 || c.Directory.AssignedLimit > 200 {
		return errors.NewConfigurationError("directory.assigned_limit", "assigned limit must be between 1 and 200")
	}
	if len(c.Directory.TrackableTypes) == 0 {
		return errors.NewConfigurationError("directory.trackable_types", "at least one trackable type is required")
	}

	// Validate organizations configuration
	if c.Organizations.File == "" {
		return errors.NewConfigurationError("organizations.file", "organizations file cannot be empty")
	}

	// Validate application configuration
	if c.Application.Timeout <= 0 {
		return errors.NewConfigurationError("application.timeout", "application timeout must be positive")
	}

	return nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

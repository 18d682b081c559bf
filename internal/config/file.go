package config

import (
	"os"

	"ado-time-tracker/internal/errors"

	"github.com/spf13/viper"
)

// LoadFromFile overlays values from a YAML config file. A missing file is not
// an error; only keys present in the file are applied.
//
//	database:
//	  dir: ~/.att
//	sync:
//	  concurrency: 4
//	  remote_timeout: 30s
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeConfiguration, "failed to read config file "+path)
	}

	// Database configuration
	if v.IsSet("database.dir") {
		c.Database.Dir = v.GetString("database.dir")
	}
	if v.IsSet("database.filename") {
		c.Database.Filename = v.GetString("database.filename")
	}
	if v.IsSet("database.query_timeout") {
		c.Database.QueryTimeout = v.GetDuration("database.query_timeout")
	}

	// Timer configuration
	if v.IsSet("timer.tick_interval") {
		c.Timer.TickInterval = v.GetDuration("timer.tick_interval")
	}
	if v.IsSet("timer.preserve_pause_on_restore") {
		c.Timer.PreservePauseOnRestore = v.GetBool("timer.preserve_pause_on_restore")
	}

	// Sync configuration
	if v.IsSet("sync.remote_timeout") {
		c.Sync.RemoteTimeout = v.GetDuration("sync.remote_timeout")
	}
	if v.IsSet("sync.concurrency") {
		c.Sync.Concurrency = v.GetInt("sync.concurrency")
	}
	if v.IsSet("sync.log_capacity") {
		c.Sync.LogCapacity = v.GetInt("sync.log_capacity")
	}
	if v.IsSet("sync.lease_ttl") {
		c.Sync.LeaseTTL = v.GetDuration("sync.lease_ttl")
	}
	if v.IsSet("sync.requests_per_second") {
		c.Sync.RequestsPerSecond = v.GetFloat64("sync.requests_per_second")
	}

	// Directory configuration
	if v.IsSet("directory.cache_ttl") {
		c.Directory.CacheTTL = v.GetDuration("directory.cache_ttl")
	}
	if v.IsSet("directory.search_limit") {
		c.Directory.SearchLimit = v.GetInt("directory.search_limit")
	}
	if v.IsSet("directory.assigned_limit") {
		c.Directory.AssignedLimit = v.GetInt("directory.assigned_limit")
	}
	if v.IsSet("directory.trackable_types") {
		c.Directory.TrackableTypes = v.GetStringSlice("directory.trackable_types")
	}
	if v.IsSet("directory.terminal_states") {
		c.Directory.TerminalStates = v.GetStringSlice("directory.terminal_states")
	}

	// Organizations configuration
	if v.IsSet("organizations.file") {
		c.Organizations.File = v.GetString("organizations.file")
	}

	// Application configuration
	if v.IsSet("application.timeout") {
		c.Application.Timeout = v.GetDuration("application.timeout")
	}
	if v.IsSet("application.verbose") {
		c.Application.Verbose = v.GetBool("application.verbose")
	}
	if v.IsSet("application.log_level") {
		c.Application.LogLevel = v.GetString("application.log_level")
	}

	return nil
}

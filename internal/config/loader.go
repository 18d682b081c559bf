package config

import (
	"strconv"
	"time"
)

// Loader handles loading configuration from multiple sources
type Loader struct {
	config *Config
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		config: NewConfig(),
	}
}

// Load loads configuration using the cascading strategy:
// 1. Start with defaults
// 2. Override with the config file, if present
// 3. Override with environment variables
// 4. Override with command line flags (LoadWithOverrides)
func (l *Loader) Load() (*Config, error) {
	return l.load(nil)
}

// LoadWithOverrides loads configuration and applies command line overrides
func (l *Loader) LoadWithOverrides(overrides *ConfigOverrides) (*Config, error) {
	return l.load(overrides)
}

func (l *Loader) load(overrides *ConfigOverrides) (*Config, error) {
	// The config file location itself may come from env or flags.
	if err := l.config.LoadFromEnvironment(); err != nil {
		return nil, err
	}
	if overrides != nil && overrides.ConfigFile != nil {
		l.config.Application.ConfigFile = *overrides.ConfigFile
	}

	if err := l.config.LoadFromFile(l.config.Application.ConfigFile); err != nil {
		return nil, err
	}

	// Environment wins over the file.
	if err := l.config.LoadFromEnvironment(); err != nil {
		return nil, err
	}

	if overrides != nil {
		l.applyOverrides(l.config, overrides)
	}

	if err := l.config.Validate(); err != nil {
		return nil, err
	}

	return l.config, nil
}

// ConfigOverrides holds command line flag overrides
type ConfigOverrides struct {
	// Database overrides
	DBDir          *string
	DBFilename     *string
	DBQueryTimeout *time.Duration

	// Timer overrides
	TickInterval           *time.Duration
	PreservePauseOnRestore *bool

	// Sync overrides
	RemoteTimeout     *time.Duration
	SyncConcurrency   *int
	SyncLogCapacity   *int
	RequestsPerSecond *float64

	// Directory overrides
	CacheTTL *time.Duration

	// Organizations overrides
	OrgsFile *string

	// Application overrides
	ConfigFile *string
	Timeout    *time.Duration
	Verbose    *bool
	LogLevel   *string
}

// applyOverrides applies command line overrides to the configuration
func (l *Loader) applyOverrides(config *Config, overrides *ConfigOverrides) {
	// Database overrides
	if overrides.DBDir != nil {
		config.Database.Dir = *overrides.DBDir
	}
	if overrides.DBFilename != nil {
		config.Database.Filename = *overrides.DBFilename
	}
	if overrides.DBQueryTimeout != nil {
		config.Database.QueryTimeout = *overrides.DBQueryTimeout
	}

	// Timer overrides
	if overrides.TickInterval != nil {
		config.Timer.TickInterval = *overrides.TickInterval
	}
	if overrides.PreservePauseOnRestore != nil {
		config.Timer.PreservePauseOnRestore = *overrides.PreservePauseOnRestore
	}

	// Sync overrides
	if overrides.RemoteTimeout != nil {
		config.Sync.RemoteTimeout = *overrides.RemoteTimeout
	}
	if overrides.SyncConcurrency != nil {
		config.Sync.Concurrency = *overrides.SyncConcurrency
	}
	if overrides.SyncLogCapacity != nil {
		config.Sync.LogCapacity = *overrides.SyncLogCapacity
	}
	if overrides.RequestsPerSecond != nil {
		config.Sync.RequestsPerSecond = *overrides.RequestsPerSecond
	}

	// Directory overrides
	if overrides.CacheTTL != nil {
		config.Directory.CacheTTL = *overrides.CacheTTL
	}

	// Organizations overrides
	if overrides.OrgsFile != nil {
		config.Organizations.File = *overrides.OrgsFile
	}

	// Application overrides
	if overrides.ConfigFile != nil {
		config.Application.ConfigFile = *overrides.ConfigFile
	}
	if overrides.Timeout != nil {
		config.Application.Timeout = *overrides.Timeout
	}
	if overrides.Verbose != nil {
		config.Application.Verbose = *overrides.Verbose
	}
	if overrides.LogLevel != nil {
		config.Application.LogLevel = *overrides.LogLevel
	}
}

// ParseDurationWithFallback parses a duration string with a fallback value
func ParseDurationWithFallback(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}

// ParseIntWithFallback parses an integer string with a fallback value
func ParseIntWithFallback(s string, fallback int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return fallback
}

// ParseFloatWithFallback parses a float string with a fallback value
func ParseFloatWithFallback(s string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return fallback
}

// ParseBoolWithFallback parses a boolean string with a fallback value
func ParseBoolWithFallback(s string, fallback bool) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return fallback
}

// ParseUint32WithFallback parses a uint32 string with a fallback value
func ParseUint32WithFallback(s string, base int, fallback uint32) uint32 {
	if u, err := strconv.ParseUint(s, base, 32); err == nil {
		return uint32(u)
	}
	return fallback
}

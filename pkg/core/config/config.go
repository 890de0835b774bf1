// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     config
// Description: TOML configuration with defaults and environment overrides
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration
type Config struct {
	General  GeneralConfig  `toml:"general"`
	CLI      CLIConfig      `toml:"cli"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Recovery RecoveryConfig `toml:"recovery"`
	Sequence SequenceConfig `toml:"sequence"`
	Store    StoreConfig    `toml:"store"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name      string `toml:"name"`
	DataDir   string `toml:"data_dir"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// CLIConfig describes the external dscli executable
type CLIConfig struct {
	// Executable is the path of the dscli launcher (script or binary)
	Executable string `toml:"executable"`

	// Timeout bounds a single invocation; zero waits indefinitely
	Timeout Duration `toml:"timeout"`

	// VerifyOnStart runs the verification protocol before serving
	VerifyOnStart bool `toml:"verify_on_start"`

	// InjectSessionToken adds an optional sessionToken parameter to every
	// command except connect and connectOAuth2
	InjectSessionToken bool `toml:"inject_session_token"`
}

// CatalogConfig locates the command catalog
type CatalogConfig struct {
	// Path of a YAML catalog; empty uses the embedded default
	Path string `toml:"path"`
}

// RecoveryConfig tunes the metadata-cache failure heuristic
type RecoveryConfig struct {
	Enabled       bool     `toml:"enabled"`
	Window        Duration `toml:"window"`
	MaxEntries    int      `toml:"max_entries"`
	Tools         []string `toml:"tools"`
	KeyParam      string   `toml:"key_param"`
	InstanceParam string   `toml:"instance_param"`
	SuggestedTool string   `toml:"suggested_tool"`
}

// SequenceConfig holds plan execution settings
type SequenceConfig struct {
	MaxSteps      int      `toml:"max_steps"`
	AutoResolve   bool     `toml:"auto_resolve"`
	Lookback      int      `toml:"lookback"`
	ExcludeParams []string `toml:"exclude_params"`
}

// StoreConfig holds SQLite storage settings
type StoreConfig struct {
	Enabled      bool   `toml:"enabled"`
	Path         string `toml:"path"`
	HistoryLimit int    `toml:"history_limit"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{
		CLI: CLIConfig{
			VerifyOnStart:      true,
			InjectSessionToken: true,
		},
		Recovery: RecoveryConfig{Enabled: true},
		Sequence: SequenceConfig{AutoResolve: true},
		Store:    StoreConfig{Enabled: true},
	}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file. Keys absent from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	cfg := Default()
	// derived defaults are recomputed after decoding
	cfg.Store.Path = ""
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from DSMCP_CONFIG or the default
// locations, falling back to built-in defaults when no file exists.
// Environment overrides are applied last.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("DSMCP_CONFIG")
	if path == "" {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// DefaultPaths lists the locations searched when no path is given
func DefaultPaths() []string {
	return []string{
		"./configs/dsmcp.toml",
		"./dsmcp.toml",
		filepath.Join(os.Getenv("HOME"), ".config/dsmcp/config.toml"),
	}
}

// ApplyEnv applies DSMCP_CLI_PATH, DSMCP_LOG_LEVEL and DSMCP_DATA_DIR
func (c *Config) ApplyEnv() {
	if v := os.Getenv("DSMCP_CLI_PATH"); v != "" {
		c.CLI.Executable = v
	}
	if v := os.Getenv("DSMCP_LOG_LEVEL"); v != "" {
		c.General.LogLevel = v
	}
	if v := os.Getenv("DSMCP_DATA_DIR"); v != "" {
		oldDefault := filepath.Join(c.General.DataDir, "dsmcp.db")
		c.General.DataDir = v
		if c.Store.Path == oldDefault {
			c.Store.Path = filepath.Join(v, "dsmcp.db")
		}
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	if c.CLI.Timeout.Duration < 0 {
		return fmt.Errorf("cli.timeout must not be negative")
	}
	if c.Recovery.Window.Duration < 0 {
		return fmt.Errorf("recovery.window must not be negative")
	}
	if c.Sequence.Lookback < 0 {
		return fmt.Errorf("sequence.lookback must not be negative")
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "datasunrise-cli"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = filepath.Join(os.Getenv("HOME"), ".local/share/dsmcp")
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// CLI
	if c.CLI.Executable == "" {
		c.CLI.Executable = "dscli"
	}

	// Recovery
	if c.Recovery.Window.Duration == 0 {
		c.Recovery.Window.Duration = 5 * time.Minute
	}
	if c.Recovery.MaxEntries == 0 {
		c.Recovery.MaxEntries = 1024
	}
	if len(c.Recovery.Tools) == 0 {
		c.Recovery.Tools = []string{"rule_add_masking", "rule_update_masking"}
	}
	if c.Recovery.KeyParam == "" {
		c.Recovery.KeyParam = "maskColumns"
	}
	if c.Recovery.InstanceParam == "" {
		c.Recovery.InstanceParam = "instance"
	}
	if c.Recovery.SuggestedTool == "" {
		c.Recovery.SuggestedTool = "instance_update_metadata"
	}

	// Sequence
	if c.Sequence.MaxSteps == 0 {
		c.Sequence.MaxSteps = 100
	}
	if c.Sequence.ExcludeParams == nil {
		c.Sequence.ExcludeParams = []string{"password", "pwd", "secret", "key", "token"}
	}

	// Store
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.General.DataDir, "dsmcp.db")
	}
	if c.Store.HistoryLimit == 0 {
		c.Store.HistoryLimit = 500
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.CLI.Executable = os.ExpandEnv(c.CLI.Executable)
	c.Catalog.Path = os.ExpandEnv(c.Catalog.Path)
	c.Store.Path = os.ExpandEnv(c.Store.Path)
}

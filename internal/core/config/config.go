// Package config handles configuration loading, validation and resolution
// for osd.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"github.com/cofl/osd/pkg/nametmpl"
)

// Supported backend drivers.
const (
	DriverSQLServer = "sqlserver"
	DriverSQLite    = "sqlite"
)

// Config holds the persisted configuration.
type Config struct {
	SharePath            string      `yaml:"share_path"`
	DefaultOU            string      `yaml:"default_ou"`
	ComputerNameTemplate string      `yaml:"computer_name_template"`
	AutoConnect          bool        `yaml:"auto_connect"`
	Database             Database    `yaml:"database"`
	Cache                CacheConfig `yaml:"cache"`
	DataDir              string      `yaml:"-"` // set by caller, not from config file

	path      string
	persisted bool
}

// Database overrides backend discovery from the share.
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// CacheConfig controls the lookup cache.
type CacheConfig struct {
	// RefreshInterval enables periodic cache refresh in the interactive shell.
	// Zero disables it.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// DefaultConfig returns a Config with the product defaults. The share path
// and default OU have no default; they come from the file or from flags.
func DefaultConfig() Config {
	return Config{
		ComputerNameTemplate: "MDT-Computer-{0}",
		AutoConnect:          false,
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided
// dataDir and Persisted reports false.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir
	cfg.path = configPath

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
			cfg.DataDir = dataDir
			cfg.persisted = true
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Persisted reports whether the configuration was read from a file.
func (c *Config) Persisted() bool { return c.persisted }

// Path returns the file the configuration is loaded from and saved to.
func (c *Config) Path() string { return c.path }

// Save writes the configuration to its path atomically.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config path not set")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	c.persisted = true
	return nil
}

// Keys lists the settable configuration keys.
var Keys = []string{
	"share_path",
	"default_ou",
	"computer_name_template",
	"auto_connect",
	"database.driver",
	"database.dsn",
	"cache.refresh_interval",
}

// Set assigns a single key from its string form.
func (c *Config) Set(key, value string) error {
	switch key {
	case "share_path":
		c.SharePath = value
	case "default_ou":
		c.DefaultOU = value
	case "computer_name_template":
		c.ComputerNameTemplate = value
	case "auto_connect":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("auto_connect: %w", err)
		}
		c.AutoConnect = b
	case "database.driver":
		c.Database.Driver = value
	case "database.dsn":
		c.Database.DSN = value
	case "cache.refresh_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("cache.refresh_interval: %w", err)
		}
		c.Cache.RefreshInterval = d
	default:
		return fmt.Errorf("unknown key %q (valid: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("cannot be empty"))
	}

	if err := nametmpl.Validate(c.ComputerNameTemplate, 1); err != nil {
		errs = errs.Append("computer_name_template", err)
	}

	switch c.Database.Driver {
	case "", DriverSQLServer, DriverSQLite:
	default:
		errs = errs.Append("database.driver", fmt.Errorf("unsupported driver %q (use %s or %s)", c.Database.Driver, DriverSQLServer, DriverSQLite))
	}
	if c.Database.DSN != "" && c.Database.Driver == "" {
		errs = errs.Append("database.dsn", fmt.Errorf("requires database.driver"))
	}

	if c.Cache.RefreshInterval < 0 {
		errs = errs.Append("cache.refresh_interval", fmt.Errorf("cannot be negative"))
	}

	return errs.ToError()
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Warnings returns non-fatal issues that limit what osd can do without
// extra flags.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.SharePath == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Connection",
			Item:     "share_path",
			Message:  "no share path configured; connect needs --path or --drive",
		})
	}

	if c.DefaultOU == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Connection",
			Item:     "default_ou",
			Message:  "no default OU configured; connect needs --default-ou",
		})
	}

	if c.AutoConnect && c.SharePath == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Connection",
			Item:     "auto_connect",
			Message:  "auto_connect is enabled but share_path is empty",
		})
	}

	if c.ComputerNameTemplate == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Computers",
			Item:     "computer_name_template",
			Message:  "empty template; 'computer new' requires --name",
		})
	}

	return warnings
}

// DrivesFile returns the path to the drive alias registry.
func (c *Config) DrivesFile() string {
	return filepath.Join(c.DataDir, "drives.json")
}

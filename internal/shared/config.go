package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

//go:embed config.example.toml
var exampleConf []byte

// Log levels accepted in [LogConfig].
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Output   OutputConfig   `toml:"output"`
	Copy     CopyConfig     `toml:"copy"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// Validate validates every section of the configuration.
func (c *Config) Validate() error {
	if err := c.Copy.Validate(); err != nil {
		return fmt.Errorf("%w: copy: %v", ErrInvalidConfig, err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("%w: database: %v", ErrInvalidConfig, err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("%w: log: %v", ErrInvalidConfig, err)
	}
	return nil
}

// OutputConfig controls where copies land when no output folder is given.
type OutputConfig struct {
	Root         string `toml:"root"`
	FolderPrefix string `toml:"folder_prefix"`
}

// DefaultFolder returns the output folder used for playlist when the user does not pick one.
//
// An empty Root resolves to the Desktop directory in the user's home.
func (c OutputConfig) DefaultFolder(playlist string) (string, error) {
	root := c.Root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		root = filepath.Join(home, "Desktop")
	}

	root, err := ExpandHome(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, c.FolderPrefix+playlist), nil
}

// CopyConfig contains copy executor settings.
type CopyConfig struct {
	RateLimit     float64 `toml:"rate_limit"`
	PreserveTimes bool    `toml:"preserve_times"`
}

// Validate validates the copy configuration.
func (c *CopyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RateLimit, validation.Min(0.0)),
	)
}

// DatabaseConfig contains run history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	History      bool   `toml:"history"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
		validation.Field(&c.MaxIdleConns, validation.Min(0)),
	)
}

// ResolvedPath returns the database path, falling back to ~/.rbcopy/rbcopy.db.
func (c DatabaseConfig) ResolvedPath() (string, error) {
	if c.Path == "" {
		return ExpandHome("~/.rbcopy/rbcopy.db")
	}
	return ExpandHome(c.Path)
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Validate validates the log configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)),
	)
}

// ParsedLevel maps the configured level onto a [log.Level], defaulting to info.
func (c LogConfig) ParsedLevel() log.Level {
	switch c.Level {
	case LogLevelDebug:
		return log.DebugLevel
	case LogLevelWarn:
		return log.WarnLevel
	case LogLevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the lineloop configuration.
type Config struct {
	Prompt                 string            `yaml:"prompt" toml:"prompt"`
	SecondaryPromptPattern string            `yaml:"secondary_prompt_pattern" toml:"secondary_prompt_pattern"` // %M missing closer, %P padding, %N line number
	Indentation            int               `yaml:"indentation" toml:"indentation"`                           // Spaces per open bracket on continuation lines
	TailTipRows            int               `yaml:"tailtip_rows" toml:"tailtip_rows"`                         // Description rows under the prompt
	StatusIntervalMs       int               `yaml:"status_interval_ms" toml:"status_interval_ms"`
	TimerIntervalMs        int               `yaml:"timer_interval_ms" toml:"timer_interval_ms"`
	SleepMs                int               `yaml:"sleep_ms" toml:"sleep_ms"` // Duration of the sleep command
	HistorySize            int               `yaml:"history_size" toml:"history_size"`
	LogLevel               string            `yaml:"log_level" toml:"log_level"` // debug, info, warn, error
	LogFile                string            `yaml:"log_file" toml:"log_file"`   // Empty discards log output
	Aliases                map[string]string `yaml:"aliases" toml:"aliases"`     // name -> command line
}

// Limits on tailtip_rows.
const (
	MinTailTipRows = 1
	MaxTailTipRows = 20
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Prompt:                 "prompt> ",
		SecondaryPromptPattern: "%M%P > ",
		Indentation:            2,
		TailTipRows:            5,
		StatusIntervalMs:       1000,
		TimerIntervalMs:        1000,
		SleepMs:                3000,
		HistorySize:            500,
		LogLevel:               "info",
	}
}

// Load loads configuration from LINELOOP_CONFIG or the default path.
func Load() (*Config, error) {
	if path := os.Getenv("LINELOOP_CONFIG"); path != "" {
		return LoadFromFile(path)
	}
	return LoadFromFile(DefaultPaths().ConfigFile())
}

// LoadFromFile loads configuration from the specified file. Files ending in
// .toml are decoded as TOML, everything else as YAML.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's own config file
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration. Out of range row counts are
// clamped rather than rejected.
func (c *Config) Validate() error {
	if c.StatusIntervalMs < 0 {
		return errors.New("status_interval_ms must be >= 0")
	}
	if c.TimerIntervalMs < 0 {
		return errors.New("timer_interval_ms must be >= 0")
	}
	if c.SleepMs < 0 {
		return errors.New("sleep_ms must be >= 0")
	}
	if c.Indentation < 0 {
		return errors.New("indentation must be >= 0")
	}
	if c.HistorySize < 0 {
		return errors.New("history_size must be >= 0")
	}
	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("log_level must be debug, info, warn, or error (got: %s)", c.LogLevel)
	}

	if c.TailTipRows < MinTailTipRows {
		c.TailTipRows = MinTailTipRows
	}
	if c.TailTipRows > MaxTailTipRows {
		c.TailTipRows = MaxTailTipRows
	}

	for name, line := range c.Aliases {
		if _, err := c.Alias(name); err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			return fmt.Errorf("alias %q is empty", name)
		}
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LINELOOP_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.LogLevel = "debug"
		}
	}
	if v := os.Getenv("LINELOOP_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.LogLevel = v
		}
	}
	if v := os.Getenv("LINELOOP_LOG_FILE"); v != "" {
		c.LogFile = v
	}
}

// Alias returns the words of the named alias, split the way a shell would.
func (c *Config) Alias(name string) ([]string, error) {
	line, ok := c.Aliases[name]
	if !ok {
		return nil, fmt.Errorf("unknown alias: %s", name)
	}
	words, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("alias %q: %w", name, err)
	}
	return words, nil
}

// AliasNames returns the configured alias names, sorted.
func (c *Config) AliasNames() []string {
	names := make([]string, 0, len(c.Aliases))
	for n := range c.Aliases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

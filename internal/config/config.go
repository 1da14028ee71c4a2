// Package config handles TOML configuration loading with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ekovan/sigserver/internal/event"
)

// Config is the top-level configuration for sigserver.
type Config struct {
	Server ServerConfig `toml:"server"`
	DB     DBConfig     `toml:"db"`
	Log    LogConfig    `toml:"log"`
	Rules  RulesConfig  `toml:"rules"`
}

// ServerConfig controls the HTTP ingest API.
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// DBConfig controls the event history store.
type DBConfig struct {
	Path      string   `toml:"path"`
	Retention Duration `toml:"retention"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// RulesConfig extends the built-in keyword tables. Keys are severity
// or category names; values are extra keywords appended after the
// built-in sets. Loaded once at startup and shared read-only with the
// pipeline.
type RulesConfig struct {
	Severity map[string][]string `toml:"severity"`
	Category map[string][]string `toml:"category"`
}

// Duration wraps time.Duration for TOML string parsing (e.g. "720h").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen: "127.0.0.1:8400",
		},
		DB: DBConfig{
			Retention: Duration{90 * 24 * time.Hour},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "sigserver", "config.toml")
}

// Load reads configuration from the given path, falling back to
// defaults for any unset fields. If the file does not exist, returns
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// DBPath returns the configured database path, or the default under
// the user data directory.
func (c *Config) DBPath() string {
	if c.DB.Path != "" {
		return c.DB.Path
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "sigserver", "events.db")
}

// SeverityRules converts the configured severity keyword extensions
// to the typed map the analyzer consumes. Unknown severity names are
// ignored.
func (c *Config) SeverityRules() map[event.Severity][]string {
	if len(c.Rules.Severity) == 0 {
		return nil
	}
	known := make(map[event.Severity]bool, len(event.Levels))
	for _, s := range event.Levels {
		known[s] = true
	}

	out := make(map[event.Severity][]string)
	for name, words := range c.Rules.Severity {
		if sev := event.Severity(name); known[sev] {
			out[sev] = words
		}
	}
	return out
}

// CategoryRules converts the configured category keyword extensions
// to the typed map the classifier consumes. Unknown category names
// are ignored.
func (c *Config) CategoryRules() map[event.Category][]string {
	if len(c.Rules.Category) == 0 {
		return nil
	}
	known := make(map[event.Category]bool, len(event.Categories))
	for _, cat := range event.Categories {
		known[cat] = true
	}

	out := make(map[event.Category][]string)
	for name, words := range c.Rules.Category {
		if cat := event.Category(name); known[cat] {
			out[cat] = words
		}
	}
	return out
}

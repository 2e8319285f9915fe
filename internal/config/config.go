// Package config loads and validates the daemon configuration.
// Config is read once before the loop starts and is immutable for
// the process lifetime; validation failures here are fatal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"focusguard/internal/policy"
)

const (
	// MinPollInterval bounds the poll loop to avoid spinning.
	MinPollInterval = 1 * time.Second
	// MaxPollInterval bounds staleness of activity detection.
	MaxPollInterval = 5 * time.Minute
)

// Duration wraps time.Duration so "3s"-style values work in both the
// YAML file and environment overrides.
type Duration time.Duration

// UnmarshalYAML parses a duration string from the config file.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(raw))
}

// UnmarshalText parses a duration string from an env var.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(text))
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ScheduleWindow is one "HH:MM" clock window in the config file.
type ScheduleWindow struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Config holds all daemon configuration.
type Config struct {
	ProductiveApps  []string         `yaml:"productive_apps"`
	DistractingApps []string         `yaml:"distracting_apps"`
	BlockedSites    []string         `yaml:"blocked_sites"`
	Schedule        []ScheduleWindow `yaml:"schedule"`

	PollInterval      Duration `yaml:"poll_interval" env:"FOCUSGUARD_POLL_INTERVAL"`
	DegradedThreshold int      `yaml:"degraded_threshold"`

	HostsPath    string `yaml:"hosts_path" env:"FOCUSGUARD_HOSTS_PATH"`
	DatabasePath string `yaml:"database_path" env:"FOCUSGUARD_DB_PATH"`
	StatusPath   string `yaml:"status_path" env:"FOCUSGUARD_STATUS_PATH"`
	PIDFile      string `yaml:"pid_file" env:"FOCUSGUARD_PID_FILE"`
	LogPath      string `yaml:"log_path" env:"FOCUSGUARD_LOG_PATH"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	stateDir := defaultStateDir()
	return &Config{
		PollInterval:      Duration(3 * time.Second),
		DegradedThreshold: 5,
		HostsPath:         "/etc/hosts",
		DatabasePath:      filepath.Join(stateDir, "sessions.db"),
		StatusPath:        filepath.Join(stateDir, "status.json"),
		PIDFile:           filepath.Join(stateDir, "focusguard.pid"),
		LogPath:           filepath.Join(stateDir, "focusguard.log"),
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/var/tmp/focusguard"
	}
	return filepath.Join(home, ".local", "state", "focusguard")
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "focusguard", "config.yaml")
}

// Load builds the config: defaults, then the YAML file (if present),
// then environment overrides, then validation. An empty path falls
// back to DefaultPath when that file exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("FOCUSGUARD_CONFIG")
	}
	if path == "" {
		if p := DefaultPath(); p != "" {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config file %s", path)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment overrides")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration. Errors here are fatal at
// startup; config never changes mid-run.
func (c *Config) Validate() error {
	if c.PollInterval.Std() < MinPollInterval {
		return fmt.Errorf("poll interval %v is below the minimum %v", c.PollInterval.Std(), MinPollInterval)
	}
	if c.PollInterval.Std() > MaxPollInterval {
		return fmt.Errorf("poll interval %v is above the maximum %v", c.PollInterval.Std(), MaxPollInterval)
	}
	if c.DegradedThreshold <= 0 {
		return fmt.Errorf("degraded threshold must be positive, got %d", c.DegradedThreshold)
	}
	if len(c.DistractingApps) == 0 && len(c.ProductiveApps) == 0 {
		return fmt.Errorf("at least one of distracting_apps or productive_apps must be set")
	}
	if c.HostsPath == "" {
		return fmt.Errorf("hosts_path must not be empty")
	}
	if _, err := c.ParseSchedule(); err != nil {
		return err
	}
	return nil
}

// ParseSchedule converts the configured windows into a policy schedule.
func (c *Config) ParseSchedule() (policy.Schedule, error) {
	windows := make([]policy.Window, 0, len(c.Schedule))
	for _, sw := range c.Schedule {
		w, err := policy.ParseWindow(sw.Start, sw.End)
		if err != nil {
			return policy.Schedule{}, errors.Wrap(err, "invalid schedule window")
		}
		windows = append(windows, w)
	}
	return policy.NewSchedule(windows...), nil
}

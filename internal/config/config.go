package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/monitor-switcher/internal/domain/machine"
)

// Config holds the settings shared by the monitor-switcher commands.
type Config struct {
	// HomeInput is the monitor input the home machine is connected to.
	HomeInput string `yaml:"home_input"`
	// WorkInput is the monitor input the work machine is connected to.
	WorkInput string `yaml:"work_input"`
	// ControlAddress is the local gRPC address of the running instance.
	ControlAddress string `yaml:"control_address"`
	// StateFile is the JSON file recording the last active machine.
	StateFile string `yaml:"state_file"`
	// LogFile receives a copy of the log output when set.
	LogFile string `yaml:"log_file"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// MonitorIndex selects the monitor to control, 0 is the first one.
	MonitorIndex int `yaml:"monitor_index"`
	// PollInterval is the delay between presence samples.
	PollInterval time.Duration `yaml:"poll_interval"`
	// BackoffInterval replaces PollInterval after repeated tick failures.
	BackoffInterval time.Duration `yaml:"backoff_interval"`
	// SampleTimeout bounds one presence sample.
	SampleTimeout time.Duration `yaml:"sample_timeout"`
	// ControlTimeout bounds one monitor-control operation.
	ControlTimeout time.Duration `yaml:"control_timeout"`
	// DisableNotifications turns desktop notifications off.
	DisableNotifications bool `yaml:"disable_notifications"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "monitor-switcher-settings.yaml"

	// DefaultStateFilename is the default filename for the last active machine.
	DefaultStateFilename = "monitor-switcher-state.json"

	// DefaultLogFilename is the default log file.
	DefaultLogFilename = "monitor_switcher.log"

	// DefaultHomeInput is the input used by the home machine.
	DefaultHomeInput = "HDMI-1"

	// DefaultWorkInput is the input used by the work machine.
	DefaultWorkInput = "HDMI-2"

	// DefaultControlAddress is where the running instance accepts commands.
	DefaultControlAddress = "127.0.0.1:50561"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultPollInterval is the delay between presence samples.
	DefaultPollInterval = 2 * time.Second

	// DefaultBackoffInterval is the widened delay after repeated failures.
	DefaultBackoffInterval = 5 * time.Second

	// DefaultSampleTimeout bounds one presence sample.
	DefaultSampleTimeout = time.Second

	// DefaultControlTimeout bounds one monitor-control operation.
	DefaultControlTimeout = 3 * time.Second

	// MaxControlTimeout caps ControlTimeout below the time the watcher waits
	// for its worker on shutdown.
	MaxControlTimeout = 4 * time.Second

	// MinPollInterval is the shortest accepted poll interval.
	MinPollInterval = 100 * time.Millisecond

	// MaxPollInterval is the longest accepted poll interval.
	MaxPollInterval = time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errSameInput is returned when both machines point at one input.
	errSameInput = errors.New("home and work inputs must differ")
	// errNegativeIndex is returned for a monitor index below zero.
	errNegativeIndex = errors.New("monitor index must not be negative")
	// errPollInterval is returned for a poll interval out of bounds.
	errPollInterval = errors.New("poll interval out of range")
)

// Default returns settings matching a fresh installation.
func Default() *Config {
	return &Config{
		HomeInput:       DefaultHomeInput,
		WorkInput:       DefaultWorkInput,
		ControlAddress:  DefaultControlAddress,
		StateFile:       DefaultStateFilename,
		LogFile:         DefaultLogFilename,
		LogLevel:        DefaultLogLevel,
		MonitorIndex:    0,
		PollInterval:    DefaultPollInterval,
		BackoffInterval: DefaultBackoffInterval,
		SampleTimeout:   DefaultSampleTimeout,
		ControlTimeout:  DefaultControlTimeout,
	}
}

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrCreate loads the settings and writes defaults when the file is missing.
func LoadOrCreate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg = Default()
	if err = Save(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault loads the settings and falls back to defaults when the file
// is missing. Nothing is written.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills unset fields with defaults and checks the rest.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.HomeInput == "" {
		cfg.HomeInput = DefaultHomeInput
	}

	if cfg.WorkInput == "" {
		cfg.WorkInput = DefaultWorkInput
	}

	if strings.EqualFold(strings.TrimSpace(cfg.HomeInput), strings.TrimSpace(cfg.WorkInput)) {
		return fmt.Errorf("%s: %w", cfg.HomeInput, errSameInput)
	}

	if cfg.MonitorIndex < 0 {
		return errNegativeIndex
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	if cfg.PollInterval < MinPollInterval || cfg.PollInterval > MaxPollInterval {
		return fmt.Errorf("%s not in [%s, %s]: %w", cfg.PollInterval, MinPollInterval, MaxPollInterval, errPollInterval)
	}

	if cfg.BackoffInterval < cfg.PollInterval {
		cfg.BackoffInterval = max(DefaultBackoffInterval, cfg.PollInterval)
	}

	if cfg.SampleTimeout <= 0 {
		cfg.SampleTimeout = DefaultSampleTimeout
	}

	if cfg.ControlTimeout <= 0 {
		cfg.ControlTimeout = DefaultControlTimeout
	}

	cfg.ControlTimeout = min(cfg.ControlTimeout, MaxControlTimeout)

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFilename
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.ControlAddress == "" {
		cfg.ControlAddress = DefaultControlAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ControlAddress); err != nil {
		return fmt.Errorf("invalid control address: %w", err)
	}

	return nil
}

// Mapping returns the machine to input mapping.
func (c *Config) Mapping() machine.Mapping {
	return machine.Mapping{
		machine.Home: c.HomeInput,
		machine.Work: c.WorkInput,
	}
}

// Clone returns a copy of the settings.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	cloned := *c

	return &cloned
}

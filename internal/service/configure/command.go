package configure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/monitor-switcher/internal/config"
	"github.com/oshokin/monitor-switcher/internal/ddc"
	"github.com/oshokin/monitor-switcher/internal/logger"
)

// Options lists the settings to change. Zero values leave a setting as is.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// HomeInput is the new home machine input name.
	HomeInput string
	// WorkInput is the new work machine input name.
	WorkInput string
	// MonitorIndex is the new monitor index, nil keeps the current one.
	MonitorIndex *int
	// PollInterval is the new delay between presence samples.
	PollInterval time.Duration
	// Notifications turns desktop notifications on or off, nil keeps the current value.
	Notifications *bool
}

var errNothingToChange = errors.New("nothing to change")

// Run applies the options to the settings file, creating it when missing,
// and returns the saved settings.
func Run(ctx context.Context, opts *Options) (*config.Config, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "configure")

	if opts.HomeInput == "" && opts.WorkInput == "" && opts.MonitorIndex == nil &&
		opts.PollInterval == 0 && opts.Notifications == nil {
		return nil, errNothingToChange
	}

	cfg, err := config.LoadOrCreate(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.HomeInput != "" {
		cfg.HomeInput = opts.HomeInput
	}

	if opts.WorkInput != "" {
		cfg.WorkInput = opts.WorkInput
	}

	if opts.MonitorIndex != nil {
		cfg.MonitorIndex = *opts.MonitorIndex
	}

	if opts.PollInterval != 0 {
		cfg.PollInterval = opts.PollInterval
	}

	if opts.Notifications != nil {
		cfg.DisableNotifications = !*opts.Notifications
	}

	// Only known names can be switched to, so reject the rest up front.
	for _, name := range []string{cfg.HomeInput, cfg.WorkInput} {
		if _, err = ddc.ParseInputSource(name); err != nil {
			return nil, err
		}
	}

	if err = config.Save(opts.ConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	logger.InfoKV(ctx, "Settings saved",
		"path", opts.ConfigPath,
		"home_input", cfg.HomeInput,
		"work_input", cfg.WorkInput,
		"monitor_index", cfg.MonitorIndex,
		"poll_interval", cfg.PollInterval.String())

	return cfg, nil
}

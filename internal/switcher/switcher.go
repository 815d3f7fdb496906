package switcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/monitor-switcher/internal/config"
	"github.com/oshokin/monitor-switcher/internal/ddc"
	"github.com/oshokin/monitor-switcher/internal/domain/machine"
	"github.com/oshokin/monitor-switcher/internal/logger"
)

// ErrNoMonitor is reported when no monitor handle could be obtained.
var ErrNoMonitor = errors.New("no monitor connected")

// Settings provides the active settings and their revision.
type Settings interface {
	Snapshot() *config.Config
	Revision() uint64
}

// Switcher owns the monitor handle. It is not safe for concurrent use: the
// poll loop is the only goroutine calling it.
type Switcher struct {
	settings   Settings
	controller ddc.Controller
	monitor    ddc.Monitor
	revision   uint64
}

// New creates a switcher. The monitor is connected lazily on first use.
func New(settings Settings, controller ddc.Controller) *Switcher {
	return &Switcher{
		settings:   settings,
		controller: controller,
	}
}

// SwitchTo changes the monitor input to the one configured for id.
// Redundant calls simply repeat the set command.
func (s *Switcher) SwitchTo(ctx context.Context, id machine.ID) machine.Outcome {
	cfg := s.settings.Snapshot()
	outcome := machine.Outcome{Machine: id}

	name, ok := cfg.Mapping().Input(id)
	if !ok {
		outcome.Err = fmt.Errorf("no input configured for %s: %w", id, ddc.ErrUnknownInput)
		logger.ErrorKV(ctx, "Unknown input", "machine", id, "error", outcome.Err)

		return outcome
	}

	outcome.Input = name

	source, err := ddc.ParseInputSource(name)
	if err != nil {
		outcome.Err = err
		logger.ErrorKV(ctx, "Unknown input source", "machine", id, "input", name, "error", err)

		return outcome
	}

	ctx, cancel := withControlTimeout(ctx, cfg)
	defer cancel()

	monitor, err := s.acquire(ctx, cfg)
	if err != nil {
		outcome.Err = err

		return outcome
	}

	err = ddc.Use(ctx, monitor, func(m ddc.Monitor) error {
		return m.SetInputSource(ctx, source)
	})
	if err != nil {
		outcome.Err = err
		s.logControlError(ctx, "Switching input failed", err, "machine", id, "input", name)
		s.drop(ctx)

		return outcome
	}

	logger.InfoKV(ctx, "Switched monitor input", "machine", id, "input", name)

	outcome.Success = true

	return outcome
}

// Current reads the active input name of the monitor. Codes outside the
// supported set are returned in hex.
func (s *Switcher) Current(ctx context.Context) (string, error) {
	cfg := s.settings.Snapshot()

	ctx, cancel := withControlTimeout(ctx, cfg)
	defer cancel()

	monitor, err := s.acquire(ctx, cfg)
	if err != nil {
		return "", err
	}

	var source ddc.InputSource

	err = ddc.Use(ctx, monitor, func(m ddc.Monitor) error {
		var readErr error

		source, readErr = m.InputSource(ctx)

		return readErr
	})
	if err != nil {
		s.logControlError(ctx, "Reading input failed", err)
		s.drop(ctx)

		return "", err
	}

	return source.String(), nil
}

// withControlTimeout bounds a whole operation, connect included, so the worker
// always returns within the configured control timeout.
func withControlTimeout(ctx context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if cfg.ControlTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, cfg.ControlTimeout)
}

// Close releases the monitor handle.
func (s *Switcher) Close(ctx context.Context) {
	s.drop(ctx)
}

// acquire returns the live handle, connecting once if there is none or the
// settings changed since it was connected.
func (s *Switcher) acquire(ctx context.Context, cfg *config.Config) (ddc.Monitor, error) {
	revision := s.settings.Revision()
	if s.monitor != nil && revision != s.revision {
		logger.InfoKV(ctx, "Settings changed, reconnecting monitor", "revision", revision)
		s.drop(ctx)
	}

	if s.monitor != nil {
		return s.monitor, nil
	}

	logger.InfoKV(ctx, "Connecting to monitor", "monitor_index", cfg.MonitorIndex)

	monitor, err := s.controller.Connect(ctx, cfg.MonitorIndex)
	if err != nil {
		logger.WarnKV(ctx, "No monitor connected", "monitor_index", cfg.MonitorIndex, "error", err)

		return nil, fmt.Errorf("%w: %w", ErrNoMonitor, err)
	}

	s.monitor = monitor
	s.revision = revision

	return monitor, nil
}

// drop forgets the handle so the next call reconnects. Handles hold no
// resources outside ddc.Use, so there is nothing to release here.
func (s *Switcher) drop(ctx context.Context) {
	if s.monitor == nil {
		return
	}

	logger.DebugKV(ctx, "Monitor handle dropped", "revision", s.revision)

	s.monitor = nil
}

// logControlError separates protocol rejections from other failures.
func (s *Switcher) logControlError(ctx context.Context, message string, err error, kvs ...any) {
	kvs = append(kvs, "error", err)

	var vcpErr *ddc.VCPError
	if errors.As(err, &vcpErr) {
		logger.ErrorKV(ctx, message+": monitor rejected the command", kvs...)

		return
	}

	logger.ErrorKV(ctx, message, kvs...)
}

package ddc

import (
	"context"
	"errors"
	"fmt"
)

// FeatureInputSource is the VCP code selecting the active input.
const FeatureInputSource byte = 0x60

var (
	// ErrNoMonitor is returned by Connect when no monitor exists at the index.
	ErrNoMonitor = errors.New("no monitor found")
	// ErrUnknownInput is returned for input names outside the supported set.
	ErrUnknownInput = errors.New("unknown input source")
	// ErrNotOpen is returned when a command is issued outside of Use.
	ErrNotOpen = errors.New("monitor is not open")
)

// VCPError is a command rejected by the monitor or its driver.
type VCPError struct {
	// Err is the underlying failure reported by the backend.
	Err error
	// Op names the rejected operation, for example "setvcp".
	Op string
	// Feature is the VCP feature code involved.
	Feature byte
}

// Error implements error.
func (e *VCPError) Error() string {
	return fmt.Sprintf("vcp %s 0x%02x: %v", e.Op, e.Feature, e.Err)
}

// Unwrap returns the backend failure.
func (e *VCPError) Unwrap() error {
	return e.Err
}

// Monitor is a live handle on one monitor. Commands are only valid between
// Open and Close; callers go through Use.
type Monitor interface {
	Open(ctx context.Context) error
	Close() error
	SetInputSource(ctx context.Context, source InputSource) error
	InputSource(ctx context.Context) (InputSource, error)
}

// Controller connects to monitors by index (0 is the first monitor).
type Controller interface {
	Connect(ctx context.Context, index int) (Monitor, error)
}

// Use opens the monitor, runs fn and closes the monitor again, also when fn
// fails. Close errors are joined to the result.
func Use(ctx context.Context, monitor Monitor, fn func(Monitor) error) (err error) {
	if monitor == nil {
		return ErrNoMonitor
	}

	if err = monitor.Open(ctx); err != nil {
		return fmt.Errorf("open monitor: %w", err)
	}

	defer func() {
		if closeErr := monitor.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close monitor: %w", closeErr))
		}
	}()

	return fn(monitor)
}

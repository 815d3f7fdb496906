package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oshokin/monitor-switcher/internal/config"
	"github.com/oshokin/monitor-switcher/internal/domain/machine"
	"github.com/oshokin/monitor-switcher/internal/logger"
	"github.com/oshokin/monitor-switcher/internal/repository/state"
	"github.com/oshokin/monitor-switcher/internal/service/common"
)

// Options controls the status report.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ControlAddress overrides the address of the running instance.
	ControlAddress string
	// Out receives the report.
	Out io.Writer
}

// Run writes a human-readable status report to opts.Out.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "status")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	address := cfg.ControlAddress
	if opts.ControlAddress != "" {
		address = opts.ControlAddress
	}

	current, err := fetch(ctx, address, cfg.ControlTimeout)
	if err == nil {
		writeStatus(opts.Out, address, current)

		return nil
	}

	logger.DebugKV(ctx, "Running instance unavailable", "address", address, "error", err)

	_, _ = fmt.Fprintf(opts.Out, "Monitor switcher is not running at %s\n", address)

	record, err := state.NewFileRepository(cfg.StateFile).Load(ctx)
	switch {
	case errors.Is(err, state.ErrNotFound):
		_, _ = fmt.Fprintln(opts.Out, "No switch recorded yet")

		return nil
	case err != nil:
		return fmt.Errorf("load last active machine: %w", err)
	}

	_, _ = fmt.Fprintf(opts.Out, "Last switch: %s machine (%s) at %s\n",
		record.Machine, record.Input, record.Timestamp.Local().Format(time.RFC3339))

	return nil
}

func fetch(ctx context.Context, address string, timeout time.Duration) (machine.Status, error) {
	client, err := common.Dial(ctx, address, common.WithCallTimeout(timeout))
	if err != nil {
		return machine.Status{}, err
	}

	defer func() {
		_ = client.Close()
	}()

	return client.GetStatus(ctx)
}

func writeStatus(out io.Writer, address string, current machine.Status) {
	input := current.Input
	if input == "" {
		input = "unknown"
	}

	_, _ = fmt.Fprintf(out, "Monitor switcher is running at %s\n", address)
	_, _ = fmt.Fprintf(out, "Active machine: %s\n", current.Current)
	_, _ = fmt.Fprintf(out, "Monitor input: %s\n", input)
	_, _ = fmt.Fprintf(out, "Presence score: %d\n", current.LastScore)

	if current.Failures > 0 {
		_, _ = fmt.Fprintf(out, "Failed ticks: %d\n", current.Failures)
	}

	if last := current.LastOutcome; last != nil {
		result := "ok"
		if !last.Success {
			result = "failed"
			if last.Err != nil {
				result += ": " + last.Err.Error()
			}
		}

		_, _ = fmt.Fprintf(out, "Last switch: %s machine (%s) %s\n", last.Machine, last.Input, result)
	}
}

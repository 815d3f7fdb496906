package manual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/monitor-switcher/internal/config"
	"github.com/oshokin/monitor-switcher/internal/ddc"
	"github.com/oshokin/monitor-switcher/internal/domain/machine"
	"github.com/oshokin/monitor-switcher/internal/logger"
	"github.com/oshokin/monitor-switcher/internal/repository/state"
	"github.com/oshokin/monitor-switcher/internal/service/common"
	"github.com/oshokin/monitor-switcher/internal/switcher"
)

// Options controls a manual switch.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ControlAddress overrides the address of the running instance.
	ControlAddress string
	// Machine is the target machine name, "home" or "work".
	Machine string
	// Direct drives the monitor from this process instead of the running instance.
	Direct bool
	// Controller replaces the platform monitor controller in direct mode.
	Controller ddc.Controller
}

// ErrSwitchFailed is returned when the monitor did not accept the new input.
var ErrSwitchFailed = errors.New("switch failed")

// Run performs the switch and returns its outcome.
func Run(ctx context.Context, opts *Options) (machine.Outcome, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "switch")

	id, err := machine.Parse(opts.Machine)
	if err != nil {
		return machine.Outcome{}, err
	}

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return machine.Outcome{}, fmt.Errorf("load settings: %w", err)
	}

	var outcome machine.Outcome

	if opts.Direct {
		outcome = switchDirect(ctx, opts, cfg, id)
	} else {
		outcome, err = switchRemote(ctx, opts, cfg, id)
		if err != nil {
			return machine.Outcome{}, err
		}
	}

	if !outcome.Success {
		return outcome, fmt.Errorf("%w: %s machine: %w", ErrSwitchFailed, id, outcome.Err)
	}

	return outcome, nil
}

// switchRemote asks the running instance to switch.
func switchRemote(ctx context.Context, opts *Options, cfg *config.Config, id machine.ID) (machine.Outcome, error) {
	address := cfg.ControlAddress
	if opts.ControlAddress != "" {
		address = opts.ControlAddress
	}

	client, err := common.Dial(ctx, address, common.WithCallTimeout(remoteCallTimeout(cfg)))
	if err != nil {
		return machine.Outcome{}, fmt.Errorf("dial monitor switcher: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	outcome, err := client.SwitchTo(ctx, id)
	if err != nil {
		return machine.Outcome{}, fmt.Errorf("%w (is `monitor-switcher run` active? use --direct otherwise)", err)
	}

	return outcome, nil
}

// remoteCallTimeout covers a tick already running on the worker plus the
// queued switch itself, each bounded by the control timeout.
func remoteCallTimeout(cfg *config.Config) time.Duration {
	return 2 * cfg.ControlTimeout
}

// switchDirect drives the monitor from this process and records the result.
func switchDirect(ctx context.Context, opts *Options, cfg *config.Config, id machine.ID) machine.Outcome {
	controller := opts.Controller
	if controller == nil {
		controller = ddc.NewSystemController(cfg.ControlTimeout)
	}

	sw := switcher.New(config.NewProvider(opts.ConfigPath, cfg), controller)
	defer sw.Close(ctx)

	outcome := sw.SwitchTo(ctx, id)
	if !outcome.Success {
		return outcome
	}

	record := &state.Record{
		Timestamp: time.Now(),
		Input:     outcome.Input,
		Machine:   outcome.Machine,
	}

	if err := state.NewFileRepository(cfg.StateFile).Save(ctx, record); err != nil {
		logger.WarnKV(ctx, "Saving last active machine failed", "error", err)
	}

	return outcome
}

package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"google.golang.org/grpc"

	"github.com/oshokin/monitor-switcher/internal/api/grpc/control"
	"github.com/oshokin/monitor-switcher/internal/config"
	"github.com/oshokin/monitor-switcher/internal/ddc"
	"github.com/oshokin/monitor-switcher/internal/logger"
	"github.com/oshokin/monitor-switcher/internal/notify"
	"github.com/oshokin/monitor-switcher/internal/presence"
	"github.com/oshokin/monitor-switcher/internal/repository/state"
	"github.com/oshokin/monitor-switcher/internal/service/common"
	"github.com/oshokin/monitor-switcher/internal/switcher"
)

// Options controls the monitor-switcher process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ControlAddress overrides the control API listen address.
	ControlAddress string

	// Probe replaces the platform presence probe.
	Probe presence.Probe
	// Controller replaces the platform monitor controller.
	Controller ddc.Controller
	// Notifier replaces the desktop notifier.
	Notifier notify.Notifier
	// Ready is called with the control API address once it accepts connections.
	Ready func(addr net.Addr)
	// SkipInstanceCheck allows several instances to run side by side.
	SkipInstanceCheck bool
}

// instanceProbeTimeout bounds the connection attempt to a suspected running instance.
const instanceProbeTimeout = time.Second

// ErrAlreadyRunning is returned when another instance owns the control address.
var ErrAlreadyRunning = errors.New("monitor switcher is already running")

// Run starts the presence watcher and the control API and blocks until ctx is
// canceled.
//
//nolint:cyclop,funlen // Startup is a linear sequence; splitting would reduce clarity.
func Run(ctx context.Context, opts *Options) error {
	// Load settings, writing defaults on first start.
	cfg, err := config.LoadOrCreate(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// The file sink must be installed before any context captures a logger.
	flush, err := logger.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}

	defer flush()

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "monitor-switcher")

	// Command line argument overrides config.
	controlAddress := cfg.ControlAddress
	if opts.ControlAddress != "" {
		controlAddress = opts.ControlAddress
	}

	if !opts.SkipInstanceCheck {
		if err = checkSingleInstance(ctx, controlAddress); err != nil {
			return err
		}
	}

	// Bind early so a busy address fails before the monitor is touched.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", controlAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", controlAddress, err)
	}

	provider := config.NewProvider(opts.ConfigPath, cfg)

	go func() {
		if watchErr := provider.Watch(ctx); watchErr != nil {
			logger.WarnKV(ctx, "Settings hot reload disabled", "error", watchErr)
		}
	}()

	probe := opts.Probe
	if probe == nil {
		probe = presence.NewSystemProbe()
	}

	if closer, ok := probe.(io.Closer); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	controller := opts.Controller
	if controller == nil {
		controller = ddc.NewSystemController(cfg.ControlTimeout)
	}

	sw := switcher.New(provider, controller)
	defer sw.Close(context.WithoutCancel(ctx))

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewSystemNotifier()
	}

	repo := state.NewFileRepository(cfg.StateFile)
	logLastRecord(ctx, repo)

	loop := NewLoop(provider, presence.NewSampler(probe, cfg.SampleTimeout), sw, notifier, WithRepository(repo))
	if err = loop.Start(ctx); err != nil {
		_ = lis.Close()

		return fmt.Errorf("start watcher: %w", err)
	}

	grpcServer := grpc.NewServer()
	control.RegisterControlServer(grpcServer, control.NewServer(loop))

	logger.InfoKV(ctx, "Monitor switcher started",
		"control_address", lis.Addr().String(),
		"home_input", cfg.HomeInput,
		"work_input", cfg.WorkInput,
		"monitor_index", cfg.MonitorIndex)

	if opts.Ready != nil {
		opts.Ready(lis.Addr())
	}

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down control server")
		grpcServer.GracefulStop()
		close(done)
	}()

	serveErr := grpcServer.Serve(lis)
	if serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
		serveErr = fmt.Errorf("serve gRPC: %w", serveErr)
	} else {
		serveErr = nil
		<-done
	}

	stopErr := loop.Stop()
	if stopErr != nil {
		logger.ErrorKV(ctx, "Watcher did not stop cleanly", "error", stopErr)
	}

	logger.Info(ctx, "Monitor switcher stopped")

	return errors.Join(serveErr, stopErr)
}

// checkSingleInstance refuses to start when another process with the same
// executable answers on the control address.
func checkSingleInstance(ctx context.Context, controlAddress string) error {
	pids, err := common.FindOtherInstances()
	if err != nil {
		logger.WarnKV(ctx, "Instance check skipped", "error", err)

		return nil
	}

	if len(pids) == 0 {
		return nil
	}

	dialer := net.Dialer{Timeout: instanceProbeTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", controlAddress)
	if err != nil {
		// Short-lived CLI invocations share the executable name.
		logger.DebugKV(ctx, "Other processes found but control address is free", "pids", pids)

		return nil
	}

	_ = conn.Close()

	return fmt.Errorf("%w (pids %v, control address %s)", ErrAlreadyRunning, pids, controlAddress)
}

// logLastRecord reports the machine recorded by the previous run.
func logLastRecord(ctx context.Context, repo state.Repository) {
	record, err := repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			logger.WarnKV(ctx, "Reading last active machine failed", "error", err)
		}

		return
	}

	logger.InfoKV(ctx, "Last active machine",
		"machine", record.Machine,
		"input", record.Input,
		"at", record.Timestamp.Format(time.RFC3339))
}

package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/monitor-switcher/internal/config"
	"github.com/oshokin/monitor-switcher/internal/detector"
	"github.com/oshokin/monitor-switcher/internal/domain/machine"
	"github.com/oshokin/monitor-switcher/internal/logger"
	"github.com/oshokin/monitor-switcher/internal/notify"
	"github.com/oshokin/monitor-switcher/internal/repository/state"
)

const (
	// FailureThreshold is the number of consecutive failed ticks that widens
	// the poll interval to the backoff interval.
	FailureThreshold = 3

	// DefaultJoinTimeout bounds how long Stop waits for the worker.
	DefaultJoinTimeout = 5 * time.Second

	// notificationTitle is shown on successful switches.
	notificationTitle = "Monitor Switcher"
	// errorNotificationTitle is shown on failed switches.
	errorNotificationTitle = "Monitor Switcher - Error"
)

var (
	// ErrJoinTimeout is returned by Stop when the worker did not exit in time.
	ErrJoinTimeout = errors.New("worker did not stop in time")
	// ErrNotRunning is returned for requests while the worker is stopped.
	ErrNotRunning = errors.New("worker is not running")
	// errAlreadyStarted is returned by Start on a running loop.
	errAlreadyStarted = errors.New("worker already started")
	// errTickPanic wraps a panic recovered inside a tick.
	errTickPanic = errors.New("tick panicked")
)

// Sampler produces presence scores.
type Sampler interface {
	Sample(ctx context.Context) machine.Score
}

// InputSwitcher changes and reads the monitor input.
type InputSwitcher interface {
	SwitchTo(ctx context.Context, id machine.ID) machine.Outcome
	Current(ctx context.Context) (string, error)
}

// Settings provides the active settings.
type Settings interface {
	Snapshot() *config.Config
}

// request is a unit of work executed on the worker goroutine.
type request struct {
	run  func(ctx context.Context)
	done chan struct{}
}

// Loop ties sampling, detection and switching together.
type Loop struct {
	settings Settings
	sampler  Sampler
	detector *detector.StateMachine
	switcher InputSwitcher
	notifier notify.Notifier
	repo     state.Repository

	requests    chan request
	joinTimeout time.Duration

	// failures counts consecutive failed ticks; worker only.
	failures int

	// mu guards the worker lifecycle.
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// statusMu guards status, which is read by the control API.
	statusMu sync.RWMutex
	status   machine.Status
}

// Option configures a Loop.
type Option func(*Loop)

// WithDetector replaces the default detector, which starts on home.
func WithDetector(d *detector.StateMachine) Option {
	return func(l *Loop) {
		l.detector = d
	}
}

// WithRepository records successful switches in repo.
func WithRepository(repo state.Repository) Option {
	return func(l *Loop) {
		l.repo = repo
	}
}

// WithJoinTimeout overrides how long Stop waits for the worker.
func WithJoinTimeout(timeout time.Duration) Option {
	return func(l *Loop) {
		if timeout > 0 {
			l.joinTimeout = timeout
		}
	}
}

// NewLoop assembles a loop from its collaborators.
func NewLoop(
	settings Settings,
	sampler Sampler,
	switcher InputSwitcher,
	notifier notify.Notifier,
	opts ...Option,
) *Loop {
	l := &Loop{
		settings:    settings,
		sampler:     sampler,
		detector:    detector.New(),
		switcher:    switcher,
		notifier:    notifier,
		requests:    make(chan request),
		joinTimeout: DefaultJoinTimeout,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.status.Current = l.detector.State().Current

	return l
}

// Tick samples once and switches the monitor when the detector reports a new
// active machine. Switch failures are not tick failures; only unexpected
// errors, such as a panic in a collaborator, are returned.
func (l *Loop) Tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errTickPanic, r)
		}
	}()

	score := l.sampler.Sample(ctx)
	previous := l.detector.State().Current

	id, activated := l.detector.Observe(score)

	l.updateStatus(func(s *machine.Status) {
		s.LastScore = score
		s.Current = id
	})

	logger.DebugKV(ctx, "Presence sampled", "score", score, "machine", id)

	if !activated {
		return nil
	}

	logger.InfoKV(ctx, "KM switch detected", "from", previous, "to", id, "score", score)

	l.activate(ctx, id)

	return nil
}

// activate switches the monitor, records the result and notifies the user.
func (l *Loop) activate(ctx context.Context, id machine.ID) machine.Outcome {
	logger.InfoKV(ctx, "Switching monitor", "machine", id)

	outcome := l.switcher.SwitchTo(ctx, id)

	l.updateStatus(func(s *machine.Status) {
		s.LastOutcome = &outcome
		if outcome.Success {
			s.Input = outcome.Input
		}
	})

	if !outcome.Success {
		l.notify(ctx, failureMessage(outcome), errorNotificationTitle)

		return outcome
	}

	if l.repo != nil {
		record := &state.Record{
			Timestamp: time.Now(),
			Input:     outcome.Input,
			Machine:   outcome.Machine,
		}

		if err := l.repo.Save(ctx, record); err != nil {
			logger.WarnKV(ctx, "Saving last active machine failed", "error", err)
		}
	}

	l.notify(ctx, fmt.Sprintf("Switched to %s machine (%s)", outcome.Machine, outcome.Input), notificationTitle)

	return outcome
}

// failureMessage words a failed outcome for the user.
func failureMessage(outcome machine.Outcome) string {
	if outcome.Input == "" {
		return fmt.Sprintf("Failed to switch to %s machine", outcome.Machine)
	}

	return "Failed to switch to " + outcome.Input
}

// notify forwards to the notifier unless notifications are disabled.
func (l *Loop) notify(ctx context.Context, message, title string) {
	if l.notifier == nil || l.settings.Snapshot().DisableNotifications {
		notify.Log{}.Notify(ctx, message, title)

		return
	}

	l.notifier.Notify(ctx, message, title)
}

// Start launches the worker goroutine. It stops when ctx is canceled or Stop
// is called.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done != nil {
		return errAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.cancel = cancel
	l.done = done

	go l.run(ctx, done)

	return nil
}

// Stop cancels the worker and waits for it up to the join timeout.
func (l *Loop) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done == nil {
		return nil
	}

	l.cancel()

	timer := time.NewTimer(l.joinTimeout)
	defer timer.Stop()

	select {
	case <-l.done:
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrJoinTimeout, l.joinTimeout)
	}

	l.cancel = nil
	l.done = nil

	return nil
}

// run is the worker body.
func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	l.prime(ctx)

	logger.InfoKV(ctx, "Presence watcher started",
		"machine", l.detector.State().Current,
		"score", l.detector.State().LastScore,
		"interval", l.interval().String())

	timer := time.NewTimer(l.interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Presence watcher stopped")

			return
		case req := <-l.requests:
			req.run(ctx)
			close(req.done)
		case <-timer.C:
			l.tickOnce(ctx)
			timer.Reset(l.interval())
		}
	}
}

// prime records the baseline score before the first tick.
func (l *Loop) prime(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Priming presence score failed", "error", fmt.Errorf("%w: %v", errTickPanic, r))
		}
	}()

	if l.detector.Primed() {
		return
	}

	score := l.sampler.Sample(ctx)
	l.detector.Prime(score)

	l.updateStatus(func(s *machine.Status) {
		s.LastScore = score
	})
}

// tickOnce runs a tick and maintains the failure streak.
func (l *Loop) tickOnce(ctx context.Context) {
	err := l.Tick(ctx)
	if err == nil {
		if l.failures >= FailureThreshold {
			logger.Info(ctx, "Tick succeeded, restoring poll interval")
		}

		l.failures = 0
	} else {
		l.failures++
		logger.ErrorKV(ctx, "Tick failed", "error", err, "consecutive_failures", l.failures)

		if l.failures == FailureThreshold {
			logger.WarnKV(ctx, "Too many failed ticks, backing off", "interval", l.interval().String())
		}
	}

	failures := l.failures
	l.updateStatus(func(s *machine.Status) {
		s.Failures = failures
	})
}

// interval returns the delay before the next tick.
func (l *Loop) interval() time.Duration {
	cfg := l.settings.Snapshot()
	if l.failures >= FailureThreshold {
		return cfg.BackoffInterval
	}

	return cfg.PollInterval
}

// Switch asks the worker to switch the monitor to id. The detector state is
// left alone, as with the tray's manual switch entries.
func (l *Loop) Switch(ctx context.Context, id machine.ID) (machine.Outcome, error) {
	var outcome machine.Outcome

	err := l.submit(ctx, func(ctx context.Context) {
		outcome = l.activate(ctx, id)
	})
	if err != nil {
		return machine.Outcome{Machine: id, Err: err}, err
	}

	return outcome, nil
}

// Status returns the worker state and the monitor's current input.
func (l *Loop) Status(ctx context.Context) (machine.Status, error) {
	var (
		input   string
		readErr error
	)

	err := l.submit(ctx, func(ctx context.Context) {
		input, readErr = l.switcher.Current(ctx)
	})
	if err != nil {
		return l.snapshot(), err
	}

	if readErr != nil {
		logger.WarnKV(ctx, "Reading current input failed", "error", readErr)
	} else {
		l.updateStatus(func(s *machine.Status) {
			s.Input = input
		})
	}

	return l.snapshot(), nil
}

// submit runs fn on the worker goroutine and waits for it.
func (l *Loop) submit(ctx context.Context, fn func(ctx context.Context)) error {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	if done == nil {
		return ErrNotRunning
	}

	req := request{
		run:  fn,
		done: make(chan struct{}),
	}

	select {
	case l.requests <- req:
	case <-done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// snapshot returns a copy of the status.
func (l *Loop) snapshot() machine.Status {
	l.statusMu.RLock()
	defer l.statusMu.RUnlock()

	status := l.status
	if status.LastOutcome != nil {
		outcome := *status.LastOutcome
		status.LastOutcome = &outcome
	}

	return status
}

// updateStatus mutates the status under its lock.
func (l *Loop) updateStatus(fn func(s *machine.Status)) {
	l.statusMu.Lock()
	defer l.statusMu.Unlock()

	fn(&l.status)
}

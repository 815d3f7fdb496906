package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/monitor-switcher/internal/domain/machine"
	"github.com/oshokin/monitor-switcher/internal/logger"
)

// keyboardWeight is added to the score when the keyboard state is queryable.
const keyboardWeight = 2

// DefaultTimeout bounds one probe call when no timeout is configured.
const DefaultTimeout = time.Second

var (
	// ErrSampleFailed wraps every probe failure absorbed by Sampler.
	ErrSampleFailed = errors.New("presence sample failed")
	// errNegativeCount is returned for probes reporting a negative count.
	errNegativeCount = errors.New("negative device count")
)

// Probe queries the OS for a device count.
type Probe interface {
	Count(ctx context.Context) (int, error)
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) (int, error)

// Count implements Probe.
func (f ProbeFunc) Count(ctx context.Context) (int, error) {
	return f(ctx)
}

// Sampler produces presence scores. It never fails: problems are logged and
// reported as score 0.
type Sampler struct {
	probe   Probe
	timeout time.Duration
}

// NewSampler wraps the probe with a per-sample timeout.
func NewSampler(probe Probe, timeout time.Duration) *Sampler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Sampler{
		probe:   probe,
		timeout: timeout,
	}
}

// Sample returns the current presence score.
func (s *Sampler) Sample(ctx context.Context) machine.Score {
	count, err := s.count(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Presence sample failed, using score 0", "error", err)

		return 0
	}

	return machine.Score(count)
}

// probeResult carries one probe answer across goroutines.
type probeResult struct {
	err   error
	count int
}

// count runs the probe in its own goroutine so that calls ignoring the
// context are abandoned when the timeout fires.
func (s *Sampler) count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results := make(chan probeResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				results <- probeResult{err: fmt.Errorf("probe panic: %v", r)}
			}
		}()

		count, err := s.probe.Count(ctx)
		results <- probeResult{count: count, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %w", ErrSampleFailed, ctx.Err())
	case r := <-results:
		switch {
		case r.err != nil:
			return 0, fmt.Errorf("%w: %w", ErrSampleFailed, r.err)
		case r.count < 0:
			return 0, fmt.Errorf("%w: %w: %d", ErrSampleFailed, errNegativeCount, r.count)
		default:
			return r.count, nil
		}
	}
}

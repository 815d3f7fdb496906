package ddc

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
)

var errTestDriver = errors.New("driver refused")

// TestBounded_ReturnsCallResult passes through results of calls that finish in time.
func TestBounded_ReturnsCallResult(t *testing.T) {
	t.Parallel()

	err := bounded(context.Background(), time.Second, "setvcp", func() error { return nil }, nil)
	require.NoError(t, err)

	err = bounded(context.Background(), time.Second, "setvcp", func() error { return errTestDriver }, nil)
	require.ErrorIs(t, err, errTestDriver)
}

// TestBounded_Timeout gives up on a hung call and releases what it acquires later.
func TestBounded_Timeout(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		unblock := make(chan struct{})
		var released atomic.Bool

		start := time.Now()
		err := bounded(context.Background(), 2*time.Second, "get physical monitors",
			func() error {
				<-unblock

				return nil
			},
			func() { released.Store(true) },
		)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.ErrorContains(t, err, "get physical monitors")
		require.Equal(t, 2*time.Second, time.Since(start))

		close(unblock)
		synctest.Wait()
		require.True(t, released.Load())
	})
}

// TestBounded_Canceled stops waiting when the caller's context ends.
func TestBounded_Canceled(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		unblock := make(chan struct{})
		var released atomic.Bool

		time.AfterFunc(100*time.Millisecond, cancel)

		err := bounded(ctx, 0, "getvcp",
			func() error {
				<-unblock

				return errTestDriver
			},
			func() { released.Store(true) },
		)
		require.ErrorIs(t, err, context.Canceled)

		// Failed late calls have nothing to release.
		close(unblock)
		synctest.Wait()
		require.False(t, released.Load())
	})
}

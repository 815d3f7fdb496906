package ddc

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// bounded runs call on its own goroutine and waits for it at most timeout,
// or until ctx is done. A call that outlives the wait keeps running; if it
// then succeeds, release runs on its goroutine so acquired resources are not
// leaked. A zero timeout waits on ctx alone.
func bounded(ctx context.Context, timeout time.Duration, op string, call func() error, release func()) error {
	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var settled atomic.Bool

	done := make(chan error, 1)

	go func() {
		err := call()

		if !settled.CompareAndSwap(false, true) && err == nil && release != nil {
			release()
		}

		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if !settled.CompareAndSwap(false, true) {
			// The call finished first and owns the result.
			return <-done
		}

		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

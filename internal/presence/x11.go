//go:build !windows

package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// X11Probe counts input devices through the X11 core protocol: the length of
// the pointer button map plus keyboardWeight when QueryKeymap answers.
// The connection is kept between calls and rebuilt after a failure.
type X11Probe struct {
	conn    *xgb.Conn
	display string
	mu      sync.Mutex
}

// errQueryPending is returned while an earlier query still holds the connection.
var errQueryPending = errors.New("previous X11 query still pending")

// NewSystemProbe returns the probe for this platform.
//
//nolint:ireturn // Platform constructors share one signature.
func NewSystemProbe() Probe {
	return NewX11Probe("")
}

// NewX11Probe creates a probe for the display; empty means $DISPLAY.
func NewX11Probe(display string) *X11Probe {
	return &X11Probe{display: display}
}

// Count implements Probe. A query still waiting on the server fails the
// sample instead of queueing behind it. When ctx ends the connection is
// closed, which releases the pending reply.
func (p *X11Probe) Count(ctx context.Context) (int, error) {
	if !p.mu.TryLock() {
		return 0, errQueryPending
	}
	defer p.mu.Unlock()

	if p.conn == nil {
		conn, err := xgb.NewConnDisplay(p.display)
		if err != nil {
			return 0, fmt.Errorf("connect to X display: %w", err)
		}

		p.conn = conn
	}

	conn := p.conn
	stop := context.AfterFunc(ctx, conn.Close)

	defer stop()

	pointer, err := xproto.GetPointerMapping(conn).Reply()
	if err != nil {
		p.reset()

		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("get pointer mapping: %w", ctxErr)
		}

		return 0, fmt.Errorf("get pointer mapping: %w", err)
	}

	count := int(pointer.MapLen)

	if _, err = xproto.QueryKeymap(conn).Reply(); err == nil {
		count += keyboardWeight
	}

	if ctx.Err() != nil {
		// The connection may already be closed.
		p.reset()
	}

	return count, nil
}

// Close releases the X connection.
func (p *X11Probe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reset()

	return nil
}

// reset drops the connection; the next Count reconnects.
func (p *X11Probe) reset() {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

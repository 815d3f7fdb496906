//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/monitor-switcher/internal/api/grpc/control"
	"github.com/oshokin/monitor-switcher/internal/config"
	"github.com/oshokin/monitor-switcher/internal/domain/machine"
)

// Client wraps the gRPC ControlService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the running instance.
	conn *grpc.ClientConn
	// api is the ControlService client interface.
	api control.ControlClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errNotConnected is returned by calls on a client without a connection.
	errNotConnected = errors.New("client is not connected")
)

// Dial prepares a gRPC connection to the running instance. The control API
// listens on loopback only, so plain insecure transport is used.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	return DialWith(address, nil, opts...)
}

// DialWith is Dial with extra gRPC dial options, used by tests to dial an
// in-memory listener.
func DialWith(address string, dial []grpc.DialOption, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	dial = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, dial...)

	conn, err := grpc.NewClient(address, dial...)
	if err != nil {
		return nil, fmt.Errorf("dial monitor switcher: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         control.NewControlClient(conn),
		callTimeout: config.DefaultControlTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// SwitchTo asks the running instance to switch the monitor to id.
func (c *Client) SwitchTo(ctx context.Context, id machine.ID) (machine.Outcome, error) {
	if c == nil || c.api == nil {
		return machine.Outcome{}, errNotConnected
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.SwitchTo(callCtx, wrapperspb.String(id.String()))
	if err != nil {
		return machine.Outcome{}, fmt.Errorf("switch to %s: %w", id, err)
	}

	outcome, err := control.OutcomeFromStruct(response)
	if err != nil {
		return machine.Outcome{}, fmt.Errorf("switch to %s: %w", id, err)
	}

	return outcome, nil
}

// GetStatus retrieves the state of the running instance.
func (c *Client) GetStatus(ctx context.Context) (machine.Status, error) {
	if c == nil || c.api == nil {
		return machine.Status{}, errNotConnected
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.GetStatus(callCtx, new(emptypb.Empty))
	if err != nil {
		return machine.Status{}, fmt.Errorf("get status: %w", err)
	}

	status, err := control.StatusFromStruct(response)
	if err != nil {
		return machine.Status{}, fmt.Errorf("get status: %w", err)
	}

	return status, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

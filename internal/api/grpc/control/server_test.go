package control

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/monitor-switcher/internal/domain/machine"
)

var (
	errTestStopped = errors.New("worker is not running")
	errTestBus     = errors.New("i2c bus busy")
)

// fakeService implements Service for unit testing the transport.
type fakeService struct {
	// switchFn overrides Switch when set.
	switchFn func(ctx context.Context, id machine.ID) (machine.Outcome, error)
	// status is returned by Status.
	status machine.Status
	// statusErr is returned by Status.
	statusErr error
}

func (f *fakeService) Switch(ctx context.Context, id machine.ID) (machine.Outcome, error) {
	if f.switchFn != nil {
		return f.switchFn(ctx, id)
	}

	return machine.Outcome{Machine: id, Input: "HDMI-2", Success: true}, nil
}

func (f *fakeService) Status(context.Context) (machine.Status, error) {
	return f.status, f.statusErr
}

// dialBuffered serves srv over an in-memory listener and returns a client.
func dialBuffered(t *testing.T, srv ControlServer) ControlClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	grpcServer := grpc.NewServer()
	RegisterControlServer(grpcServer, srv)

	go func() {
		_ = grpcServer.Serve(lis)
	}()

	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.Close() })

	return NewControlClient(conn)
}

// TestServer_SwitchTo_Validation ensures bad machine names return InvalidArgument.
func TestServer_SwitchTo_Validation(t *testing.T) {
	t.Parallel()

	s := NewServer(new(fakeService))

	_, err := s.SwitchTo(t.Context(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.SwitchTo(t.Context(), wrapperspb.String("office"))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_ServiceErrors checks service failures map to gRPC codes.
func TestServer_ServiceErrors(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeService{
		switchFn: func(context.Context, machine.ID) (machine.Outcome, error) {
			return machine.Outcome{}, context.DeadlineExceeded
		},
		statusErr: errTestStopped,
	})

	_, err := s.SwitchTo(t.Context(), wrapperspb.String("work"))
	require.Equal(t, codes.DeadlineExceeded, status.Code(err))

	_, err = s.GetStatus(t.Context(), new(emptypb.Empty))
	require.Equal(t, codes.Unavailable, status.Code(err))
}

// TestControl_Roundtrip exercises both methods through a real gRPC connection.
func TestControl_Roundtrip(t *testing.T) {
	t.Parallel()

	service := &fakeService{
		status: machine.Status{
			LastOutcome: &machine.Outcome{
				Err:     errTestBus,
				Machine: machine.Home,
				Input:   "HDMI-1",
			},
			Input:     "HDMI-2",
			Current:   machine.Work,
			LastScore: 7,
			Failures:  2,
		},
	}

	client := dialBuffered(t, NewServer(service))

	response, err := client.SwitchTo(t.Context(), wrapperspb.String("Work"))
	require.NoError(t, err)

	outcome, err := OutcomeFromStruct(response)
	require.NoError(t, err)
	require.Equal(t, machine.Outcome{Machine: machine.Work, Input: "HDMI-2", Success: true}, outcome)

	response, err = client.GetStatus(t.Context(), new(emptypb.Empty))
	require.NoError(t, err)

	got, err := StatusFromStruct(response)
	require.NoError(t, err)
	require.Equal(t, machine.Work, got.Current)
	require.Equal(t, "HDMI-2", got.Input)
	require.Equal(t, machine.Score(7), got.LastScore)
	require.Equal(t, 2, got.Failures)
	require.NotNil(t, got.LastOutcome)
	require.False(t, got.LastOutcome.Success)
	require.ErrorIs(t, got.LastOutcome.Err, errRemote)
	require.ErrorContains(t, got.LastOutcome.Err, errTestBus.Error())

	_, err = client.SwitchTo(t.Context(), wrapperspb.String(""))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestStatusFromStruct_Malformed rejects responses without a current machine.
func TestStatusFromStruct_Malformed(t *testing.T) {
	t.Parallel()

	_, err := StatusFromStruct(nil)
	require.ErrorIs(t, err, errMalformedResponse)

	_, err = OutcomeFromStruct(nil)
	require.ErrorIs(t, err, errMalformedResponse)
}

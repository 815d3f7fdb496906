package control

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/monitor-switcher/internal/domain/machine"
	"github.com/oshokin/monitor-switcher/internal/logger"
)

// Service abstracts the running switcher the transport layer depends on.
type Service interface {
	Switch(ctx context.Context, id machine.ID) (machine.Outcome, error)
	Status(ctx context.Context) (machine.Status, error)
}

// Server implements ControlServer on top of a Service.
type Server struct {
	// service is the running switcher.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// SwitchTo switches the monitor to the named machine. A failed switch is not
// an RPC error; it is reported through the success and error fields.
func (s *Server) SwitchTo(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "machine is required")
	}

	id, err := machine.Parse(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	logger.InfoKV(ctx, "Manual switch requested", "machine", id)

	outcome, err := s.service.Switch(ctx, id)
	if err != nil {
		return nil, serviceError(err)
	}

	response, err := OutcomeToStruct(outcome)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode outcome")
	}

	return response, nil
}

// GetStatus returns the state of the running switcher.
func (s *Server) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	current, err := s.service.Status(ctx)
	if err != nil {
		return nil, serviceError(err)
	}

	response, err := StatusToStruct(current)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode status")
	}

	return response, nil
}

// serviceError maps service failures to gRPC status errors.
func serviceError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}

	return status.Error(codes.Unavailable, err.Error())
}

package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "monitorswitcher.v1.ControlService"

// Full method names.
const (
	SwitchToMethod  = "/" + ServiceName + "/SwitchTo"
	GetStatusMethod = "/" + ServiceName + "/GetStatus"
)

// ControlServer is the server API of the control service.
type ControlServer interface {
	SwitchTo(ctx context.Context, request *wrapperspb.StringValue) (*structpb.Struct, error)
	GetStatus(ctx context.Context, request *emptypb.Empty) (*structpb.Struct, error)
}

// ControlClient is the client API of the control service.
type ControlClient interface {
	SwitchTo(ctx context.Context, request *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetStatus(ctx context.Context, request *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// ServiceDesc describes the control service for grpc.Server registration.
//
//nolint:gochecknoglobals // grpc.ServiceRegistrar takes a pointer to a descriptor.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SwitchTo",
			Handler:    switchToHandler,
		},
		{
			MethodName: "GetStatus",
			Handler:    getStatusHandler,
		},
	},
	Metadata: "monitorswitcher/v1/control.proto",
}

// RegisterControlServer registers srv on the registrar.
func RegisterControlServer(registrar grpc.ServiceRegistrar, srv ControlServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

type controlClient struct {
	cc grpc.ClientConnInterface
}

// NewControlClient returns a client over the connection.
func NewControlClient(cc grpc.ClientConnInterface) ControlClient {
	return &controlClient{cc: cc}
}

func (c *controlClient) SwitchTo(
	ctx context.Context,
	request *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	response := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SwitchToMethod, request, response, opts...); err != nil {
		return nil, err
	}

	return response, nil
}

func (c *controlClient) GetStatus(
	ctx context.Context,
	request *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	response := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStatusMethod, request, response, opts...); err != nil {
		return nil, err
	}

	return response, nil
}

func switchToHandler(
	srv any,
	ctx context.Context, //nolint:revive // Argument order is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	request := new(wrapperspb.StringValue)
	if err := dec(request); err != nil {
		return nil, err
	}

	server, _ := srv.(ControlServer)
	if interceptor == nil {
		return server.SwitchTo(ctx, request)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SwitchToMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		value, _ := req.(*wrapperspb.StringValue)

		return server.SwitchTo(ctx, value)
	}

	return interceptor(ctx, request, info, handler)
}

func getStatusHandler(
	srv any,
	ctx context.Context, //nolint:revive // Argument order is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	request := new(emptypb.Empty)
	if err := dec(request); err != nil {
		return nil, err
	}

	server, _ := srv.(ControlServer)
	if interceptor == nil {
		return server.GetStatus(ctx, request)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetStatusMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		value, _ := req.(*emptypb.Empty)

		return server.GetStatus(ctx, value)
	}

	return interceptor(ctx, request, info, handler)
}

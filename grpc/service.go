package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// EchoMethod is the full method name of the unary echo RPC.
const EchoMethod = "/jsonecho.v1.EchoService/Echo"

// DelayMetadataKey is the request metadata key carrying the delay in seconds.
const DelayMetadataKey = "delay"

// EchoServiceServer is the server API for jsonecho.v1.EchoService.
//
// Messages are the well-known wrapper types, so no generated code is needed:
// the request and response both carry a JSON document as a string.
type EchoServiceServer interface {
	Echo(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

// RegisterEchoServiceServer registers srv on s.
func RegisterEchoServiceServer(s grpc.ServiceRegistrar, srv EchoServiceServer) {
	s.RegisterService(&echoServiceDesc, srv)
}

func echoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EchoServiceServer).Echo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: EchoMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EchoServiceServer).Echo(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var echoServiceDesc = grpc.ServiceDesc{
	ServiceName: "jsonecho.v1.EchoService",
	HandlerType: (*EchoServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Echo",
			Handler:    echoHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jsonecho/v1/echo.proto",
}

// EchoClient calls the echo RPC over an existing connection.
type EchoClient struct {
	cc grpc.ClientConnInterface
}

// NewEchoClient wraps cc.
func NewEchoClient(cc grpc.ClientConnInterface) *EchoClient {
	return &EchoClient{cc: cc}
}

// Echo sends in and returns the server's canonical JSON.
func (c *EchoClient) Echo(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, EchoMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

package transport

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// transportServer is implemented by GrpcLayer. Kept as its own interface —
// rather than a concrete *GrpcLayer reference in the ServiceDesc — for the
// same reason protoc-gen-go-grpc emits one: it lets a test register a fake
// server without depending on the real transport's dial/listen side effects.
type transportServer interface {
	Deliver(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

// transportClient is the hand-written equivalent of a protoc-gen-go-grpc
// client stub for the single-RPC Transport service.
type transportClient struct {
	cc grpc.ClientConnInterface
}

func (c *transportClient) Deliver(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/distsat.transport.Transport/Deliver", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func transportDeliverHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(transportServer).Deliver(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/distsat.transport.Transport/Deliver",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(transportServer).Deliver(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// transportServiceDesc is the hand-written equivalent of what
// protoc-gen-go-grpc would emit for a one-RPC "Transport" service whose
// single method exchanges opaque byte payloads; there is no dedicated
// .proto schema to generate from since the wire body is already framed by
// internal/wire.
var transportServiceDesc = grpc.ServiceDesc{
	ServiceName: "distsat.transport.Transport",
	HandlerType: (*transportServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Deliver",
			Handler:    transportDeliverHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/transport/grpc_service.go",
}

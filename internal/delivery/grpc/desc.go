package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "sessiongate.v1.SessionGate"

	methodGetStatus     = "/" + ServiceName + "/GetStatus"
	methodGetAttendance = "/" + ServiceName + "/GetAttendance"
)

// SessionGateServer exchanges google.protobuf.Struct messages carrying the
// same JSON shapes as the HTTP API. Requests take "session_id" and an
// optional "session_type".
type SessionGateServer interface {
	GetStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetAttendance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionGateServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: getStatusHandler},
		{MethodName: "GetAttendance", Handler: getAttendanceHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sessiongate/v1/sessiongate.proto",
}

func RegisterSessionGateServer(s grpc.ServiceRegistrar, srv SessionGateServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func getStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionGateServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetStatus}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionGateServer).GetStatus(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getAttendanceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionGateServer).GetAttendance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetAttendance}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionGateServer).GetAttendance(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type SessionGateClient interface {
	GetStatus(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetAttendance(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type sessionGateClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionGateClient(cc grpc.ClientConnInterface) SessionGateClient {
	return &sessionGateClient{cc: cc}
}

func (c *sessionGateClient) GetStatus(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetStatus, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionGateClient) GetAttendance(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetAttendance, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// internal/handler/service.go
package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "enhance.v1.Enhancer"
	// ProcessMethod is the full method name of Enhancer.Process.
	ProcessMethod = "/enhance.v1.Enhancer/Process"
)

// EnhancerServer is the server API for the Enhancer service. Requests carry an
// encoded image; responses carry the processed image as PNG.
type EnhancerServer interface {
	Process(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

// EnhancerServiceDesc describes the Enhancer service for grpc.Server.
var EnhancerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EnhancerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Process",
			Handler:    processHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "enhance/v1/enhancer.proto",
}

// ServerOptions are the grpc.Server options the Enhancer service needs:
// a receive limit that admits any image HTTP would accept.
func ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{grpc.MaxRecvMsgSize(MaxRequestBytes)}
}

// RegisterEnhancerServer registers srv on s.
func RegisterEnhancerServer(s grpc.ServiceRegistrar, srv EnhancerServer) {
	s.RegisterService(&EnhancerServiceDesc, srv)
}

func processHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EnhancerServer).Process(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ProcessMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EnhancerServer).Process(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// EnhancerClient calls the Enhancer service.
type EnhancerClient struct {
	cc grpc.ClientConnInterface
}

// NewEnhancerClient wraps cc.
func NewEnhancerClient(cc grpc.ClientConnInterface) *EnhancerClient {
	return &EnhancerClient{cc: cc}
}

// Process sends an encoded image and returns the PNG result.
func (c *EnhancerClient) Process(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, ProcessMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

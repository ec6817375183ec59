package proto

import (
	"context"

	"google.golang.org/grpc"
)

// ExternalScalerServer matches the KEDA external-scaler gRPC contract.
type ExternalScalerServer interface {
	IsActive(context.Context, *ScaledObjectRef) (*IsActiveResponse, error)
	GetMetricSpec(context.Context, *ScaledObjectRef) (*GetMetricSpecResponse, error)
	GetMetrics(context.Context, *GetMetricsRequest) (*GetMetricsResponse, error)
}

type ExternalScalerClient interface {
	IsActive(ctx context.Context, in *ScaledObjectRef, opts ...grpc.CallOption) (*IsActiveResponse, error)
	GetMetricSpec(ctx context.Context, in *ScaledObjectRef, opts ...grpc.CallOption) (*GetMetricSpecResponse, error)
	GetMetrics(ctx context.Context, in *GetMetricsRequest, opts ...grpc.CallOption) (*GetMetricsResponse, error)
}

type externalScalerClient struct {
	cc grpc.ClientConnInterface
}

func NewExternalScalerClient(cc grpc.ClientConnInterface) ExternalScalerClient {
	return &externalScalerClient{cc: cc}
}

func (c *externalScalerClient) IsActive(ctx context.Context, in *ScaledObjectRef, opts ...grpc.CallOption) (*IsActiveResponse, error) {
	out := new(IsActiveResponse)
	if err := c.cc.Invoke(ctx, "/distsql.ExternalScaler/IsActive", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *externalScalerClient) GetMetricSpec(ctx context.Context, in *ScaledObjectRef, opts ...grpc.CallOption) (*GetMetricSpecResponse, error) {
	out := new(GetMetricSpecResponse)
	if err := c.cc.Invoke(ctx, "/distsql.ExternalScaler/GetMetricSpec", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *externalScalerClient) GetMetrics(ctx context.Context, in *GetMetricsRequest, opts ...grpc.CallOption) (*GetMetricsResponse, error) {
	out := new(GetMetricsResponse)
	if err := c.cc.Invoke(ctx, "/distsql.ExternalScaler/GetMetrics", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _ExternalScaler_IsActive_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ScaledObjectRef)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExternalScalerServer).IsActive(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/distsql.ExternalScaler/IsActive"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExternalScalerServer).IsActive(ctx, req.(*ScaledObjectRef))
	}
	return interceptor(ctx, in, info, handler)
}

func _ExternalScaler_GetMetricSpec_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ScaledObjectRef)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExternalScalerServer).GetMetricSpec(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/distsql.ExternalScaler/GetMetricSpec"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExternalScalerServer).GetMetricSpec(ctx, req.(*ScaledObjectRef))
	}
	return interceptor(ctx, in, info, handler)
}

func _ExternalScaler_GetMetrics_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetMetricsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExternalScalerServer).GetMetrics(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/distsql.ExternalScaler/GetMetrics"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExternalScalerServer).GetMetrics(ctx, req.(*GetMetricsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var ExternalScaler_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "distsql.ExternalScaler",
	HandlerType: (*ExternalScalerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IsActive", Handler: _ExternalScaler_IsActive_Handler},
		{MethodName: "GetMetricSpec", Handler: _ExternalScaler_GetMetricSpec_Handler},
		{MethodName: "GetMetrics", Handler: _ExternalScaler_GetMetrics_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scheduler.proto",
}

func RegisterExternalScalerServer(s grpc.ServiceRegistrar, srv ExternalScalerServer) {
	s.RegisterService(&ExternalScaler_ServiceDesc, srv)
}

// ExecutorGrpcServer is implemented by executor processes (out of scope to
// implement here). The scheduler itself uses only the client side, through
// its outbound executor client pool; tests host a fake implementation.
type ExecutorGrpcServer interface {
	LaunchTask(context.Context, *LaunchTaskParams) (*LaunchTaskResult, error)
}

type ExecutorGrpcClient interface {
	LaunchTask(ctx context.Context, in *LaunchTaskParams, opts ...grpc.CallOption) (*LaunchTaskResult, error)
}

type executorGrpcClient struct {
	cc grpc.ClientConnInterface
}

func NewExecutorGrpcClient(cc grpc.ClientConnInterface) ExecutorGrpcClient {
	return &executorGrpcClient{cc: cc}
}

func (c *executorGrpcClient) LaunchTask(ctx context.Context, in *LaunchTaskParams, opts ...grpc.CallOption) (*LaunchTaskResult, error) {
	out := new(LaunchTaskResult)
	if err := c.cc.Invoke(ctx, "/distsql.ExecutorGrpc/LaunchTask", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _ExecutorGrpc_LaunchTask_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LaunchTaskParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExecutorGrpcServer).LaunchTask(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/distsql.ExecutorGrpc/LaunchTask"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExecutorGrpcServer).LaunchTask(ctx, req.(*LaunchTaskParams))
	}
	return interceptor(ctx, in, info, handler)
}

// ExecutorGrpc_ServiceDesc lets a test or a reference executor implementation
// register ExecutorGrpcServer on a *grpc.Server; the scheduler itself never
// calls RegisterExecutorGrpcServer, since it is this service's client, not
// its host.
var ExecutorGrpc_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "distsql.ExecutorGrpc",
	HandlerType: (*ExecutorGrpcServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "LaunchTask", Handler: _ExecutorGrpc_LaunchTask_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scheduler.proto",
}

func RegisterExecutorGrpcServer(s grpc.ServiceRegistrar, srv ExecutorGrpcServer) {
	s.RegisterService(&ExecutorGrpc_ServiceDesc, srv)
}

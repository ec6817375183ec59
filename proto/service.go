package proto

import (
	"context"

	"google.golang.org/grpc"
)

// SchedulerGrpcServer is implemented by the scheduler's RPC handlers
// (pkg/scheduler.Server).
type SchedulerGrpcServer interface {
	ExecuteQuery(context.Context, *ExecuteQueryParams) (*ExecuteQueryResult, error)
	PollWork(context.Context, *PollWorkParams) (*PollWorkResult, error)
	RegisterExecutor(context.Context, *RegisterExecutorParams) (*RegisterExecutorResult, error)
	HeartBeatFromExecutor(context.Context, *HeartBeatParams) (*HeartBeatResult, error)
	UpdateTaskStatus(context.Context, *UpdateTaskStatusParams) (*UpdateTaskStatusResult, error)
	GetJobStatus(context.Context, *GetJobStatusParams) (*GetJobStatusResult, error)
}

// SchedulerGrpcClient is the outbound interface a SQL client driver calls.
type SchedulerGrpcClient interface {
	ExecuteQuery(ctx context.Context, in *ExecuteQueryParams, opts ...grpc.CallOption) (*ExecuteQueryResult, error)
	PollWork(ctx context.Context, in *PollWorkParams, opts ...grpc.CallOption) (*PollWorkResult, error)
	RegisterExecutor(ctx context.Context, in *RegisterExecutorParams, opts ...grpc.CallOption) (*RegisterExecutorResult, error)
	HeartBeatFromExecutor(ctx context.Context, in *HeartBeatParams, opts ...grpc.CallOption) (*HeartBeatResult, error)
	UpdateTaskStatus(ctx context.Context, in *UpdateTaskStatusParams, opts ...grpc.CallOption) (*UpdateTaskStatusResult, error)
	GetJobStatus(ctx context.Context, in *GetJobStatusParams, opts ...grpc.CallOption) (*GetJobStatusResult, error)
}

type schedulerGrpcClient struct {
	cc grpc.ClientConnInterface
}

// NewSchedulerGrpcClient wraps an established connection with the typed
// client interface.
func NewSchedulerGrpcClient(cc grpc.ClientConnInterface) SchedulerGrpcClient {
	return &schedulerGrpcClient{cc: cc}
}

func (c *schedulerGrpcClient) ExecuteQuery(ctx context.Context, in *ExecuteQueryParams, opts ...grpc.CallOption) (*ExecuteQueryResult, error) {
	out := new(ExecuteQueryResult)
	if err := c.cc.Invoke(ctx, "/distsql.SchedulerGrpc/ExecuteQuery", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerGrpcClient) PollWork(ctx context.Context, in *PollWorkParams, opts ...grpc.CallOption) (*PollWorkResult, error) {
	out := new(PollWorkResult)
	if err := c.cc.Invoke(ctx, "/distsql.SchedulerGrpc/PollWork", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerGrpcClient) RegisterExecutor(ctx context.Context, in *RegisterExecutorParams, opts ...grpc.CallOption) (*RegisterExecutorResult, error) {
	out := new(RegisterExecutorResult)
	if err := c.cc.Invoke(ctx, "/distsql.SchedulerGrpc/RegisterExecutor", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerGrpcClient) HeartBeatFromExecutor(ctx context.Context, in *HeartBeatParams, opts ...grpc.CallOption) (*HeartBeatResult, error) {
	out := new(HeartBeatResult)
	if err := c.cc.Invoke(ctx, "/distsql.SchedulerGrpc/HeartBeatFromExecutor", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerGrpcClient) UpdateTaskStatus(ctx context.Context, in *UpdateTaskStatusParams, opts ...grpc.CallOption) (*UpdateTaskStatusResult, error) {
	out := new(UpdateTaskStatusResult)
	if err := c.cc.Invoke(ctx, "/distsql.SchedulerGrpc/UpdateTaskStatus", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerGrpcClient) GetJobStatus(ctx context.Context, in *GetJobStatusParams, opts ...grpc.CallOption) (*GetJobStatusResult, error) {
	out := new(GetJobStatusResult)
	if err := c.cc.Invoke(ctx, "/distsql.SchedulerGrpc/GetJobStatus", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _SchedulerGrpc_ExecuteQuery_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExecuteQueryParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerGrpcServer).ExecuteQuery(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/distsql.SchedulerGrpc/ExecuteQuery"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerGrpcServer).ExecuteQuery(ctx, req.(*ExecuteQueryParams))
	}
	return interceptor(ctx, in, info, handler)
}

func _SchedulerGrpc_PollWork_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PollWorkParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerGrpcServer).PollWork(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/distsql.SchedulerGrpc/PollWork"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerGrpcServer).PollWork(ctx, req.(*PollWorkParams))
	}
	return interceptor(ctx, in, info, handler)
}

func _SchedulerGrpc_RegisterExecutor_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RegisterExecutorParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerGrpcServer).RegisterExecutor(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/distsql.SchedulerGrpc/RegisterExecutor"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerGrpcServer).RegisterExecutor(ctx, req.(*RegisterExecutorParams))
	}
	return interceptor(ctx, in, info, handler)
}

func _SchedulerGrpc_HeartBeatFromExecutor_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HeartBeatParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerGrpcServer).HeartBeatFromExecutor(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/distsql.SchedulerGrpc/HeartBeatFromExecutor"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerGrpcServer).HeartBeatFromExecutor(ctx, req.(*HeartBeatParams))
	}
	return interceptor(ctx, in, info, handler)
}

func _SchedulerGrpc_UpdateTaskStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpdateTaskStatusParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerGrpcServer).UpdateTaskStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/distsql.SchedulerGrpc/UpdateTaskStatus"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerGrpcServer).UpdateTaskStatus(ctx, req.(*UpdateTaskStatusParams))
	}
	return interceptor(ctx, in, info, handler)
}

func _SchedulerGrpc_GetJobStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetJobStatusParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerGrpcServer).GetJobStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/distsql.SchedulerGrpc/GetJobStatus"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerGrpcServer).GetJobStatus(ctx, req.(*GetJobStatusParams))
	}
	return interceptor(ctx, in, info, handler)
}

// SchedulerGrpc_ServiceDesc mirrors the protoc-gen-go-grpc output for the
// SchedulerGrpc service defined in scheduler.proto.
var SchedulerGrpc_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "distsql.SchedulerGrpc",
	HandlerType: (*SchedulerGrpcServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExecuteQuery", Handler: _SchedulerGrpc_ExecuteQuery_Handler},
		{MethodName: "PollWork", Handler: _SchedulerGrpc_PollWork_Handler},
		{MethodName: "RegisterExecutor", Handler: _SchedulerGrpc_RegisterExecutor_Handler},
		{MethodName: "HeartBeatFromExecutor", Handler: _SchedulerGrpc_HeartBeatFromExecutor_Handler},
		{MethodName: "UpdateTaskStatus", Handler: _SchedulerGrpc_UpdateTaskStatus_Handler},
		{MethodName: "GetJobStatus", Handler: _SchedulerGrpc_GetJobStatus_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scheduler.proto",
}

// RegisterSchedulerGrpcServer registers srv's RPC handlers on s.
func RegisterSchedulerGrpcServer(s grpc.ServiceRegistrar, srv SchedulerGrpcServer) {
	s.RegisterService(&SchedulerGrpc_ServiceDesc, srv)
}

// Package proto holds the control-plane wire messages and gRPC service
// definitions for the scheduler, hand-written to mirror what
// protoc-gen-go/protoc-gen-go-grpc would generate from scheduler.proto.
// protoc isn't run as part of building this module (see DESIGN.md): the
// wire format is opaque to the scheduler by design, so a JSON codec
// (codec.go) stands in for the generated protobuf marshaling.
package proto

// ExecutorRegistration is the network identity an executor announces.
type ExecutorRegistration struct {
	ID        string `json:"id"`
	Host      string `json:"host"`
	Port      int32  `json:"port"`
	GRPCPort  int32  `json:"grpc_port"`
	TaskSlots int32  `json:"task_slots"`
}

// PartitionId identifies one task uniquely within a job.
type PartitionId struct {
	JobID       string `json:"job_id"`
	StageID     int32  `json:"stage_id"`
	PartitionID int32  `json:"partition_id"`
}

// PartitionLocation is where a completed task's output partition lives.
type PartitionLocation struct {
	ExecutorID string `json:"executor_id"`
	Path       string `json:"path"`
}

// TaskStatus is the wire form of a task's lifecycle record.
type TaskStatus struct {
	TaskID          *PartitionId         `json:"task_id"`
	State           string               `json:"state"`
	ExecutorID      string               `json:"executor_id,omitempty"`
	StartedAtUnixMs int64                `json:"started_at_unix_ms,omitempty"`
	Partitions      []*PartitionLocation `json:"partitions,omitempty"`
	Error           string               `json:"error,omitempty"`
}

// PartitionScheme is the wire form of a stage's output partitioning.
type PartitionScheme struct {
	Scheme         string   `json:"scheme"`
	PartitionCount int32    `json:"partition_count"`
	HashExprs      []string `json:"hash_exprs,omitempty"`
}

// TaskDefinition is what LaunchTask and PollWork hand an executor: the
// task's serialized plan, its identity, and its output partitioning.
type TaskDefinition struct {
	Plan               []byte           `json:"plan"`
	TaskID             *PartitionId     `json:"task_id"`
	OutputPartitioning *PartitionScheme `json:"output_partitioning"`
}

// JobStatus is the wire form of a job's lifecycle status.
type JobStatus struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type ExecuteQueryParams struct {
	SQL         string `json:"sql,omitempty"`
	LogicalPlan []byte `json:"logical_plan,omitempty"`
}

type ExecuteQueryResult struct {
	JobID string `json:"job_id"`
}

type PollWorkParams struct {
	Metadata      *ExecutorRegistration `json:"metadata"`
	CanAcceptTask bool                  `json:"can_accept_task"`
	TaskStatus    []*TaskStatus         `json:"task_status,omitempty"`
}

type PollWorkResult struct {
	Task    *TaskDefinition `json:"task,omitempty"`
	HasTask bool            `json:"has_task"`
}

type RegisterExecutorParams struct {
	Metadata *ExecutorRegistration `json:"metadata"`
}

type RegisterExecutorResult struct {
	Success bool `json:"success"`
}

type HeartBeatParams struct {
	ExecutorID string `json:"executor_id"`
	State      string `json:"state,omitempty"`
}

type HeartBeatResult struct {
	Reregister bool `json:"reregister"`
}

type UpdateTaskStatusParams struct {
	ExecutorID string        `json:"executor_id"`
	TaskStatus []*TaskStatus `json:"task_status"`
}

type UpdateTaskStatusResult struct {
	Success bool `json:"success"`
}

type GetJobStatusParams struct {
	JobID string `json:"job_id"`
}

type GetJobStatusResult struct {
	Status *JobStatus `json:"status"`
}

type LaunchTaskParams struct {
	Tasks []*TaskDefinition `json:"tasks"`
}

type LaunchTaskResult struct {
	Success bool `json:"success"`
}

// ScaledObjectRef identifies the KEDA ScaledObject a metric request is for.
type ScaledObjectRef struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

type IsActiveResponse struct {
	Result bool `json:"result"`
}

type MetricSpec struct {
	MetricName string `json:"metric_name"`
	TargetSize int64  `json:"target_size"`
}

type GetMetricSpecResponse struct {
	MetricSpecs []*MetricSpec `json:"metric_specs"`
}

type GetMetricsRequest struct {
	ScaledObjectRef *ScaledObjectRef `json:"scaled_object_ref"`
	MetricName      string           `json:"metric_name"`
}

type MetricValue struct {
	MetricName  string `json:"metric_name"`
	MetricValue int64  `json:"metric_value"`
}

type GetMetricsResponse struct {
	MetricValues []*MetricValue `json:"metric_values"`
}

package types

import "time"

// ExecutorMetadata is the network identity an executor announces at
// registration (push policy) or first poll (pull policy).
type ExecutorMetadata struct {
	ID          string `json:"id"`
	Host        string `json:"host"`
	Port        int    `json:"port"`         // task data port
	GRPCPort    int    `json:"grpc_port"`    // control port (LaunchTask)
	TaskSlots   int    `json:"task_slots"`
}

// ExecutorData tracks an executor's slot accounting. Invariant: Available <= Total.
type ExecutorData struct {
	ExecutorID          string `json:"executor_id"`
	TotalTaskSlots      int    `json:"total_task_slots"`
	AvailableTaskSlots  int    `json:"available_task_slots"`
}

// ExecutorHeartbeat is the last-seen liveness record for an executor.
type ExecutorHeartbeat struct {
	ExecutorID string    `json:"executor_id"`
	Timestamp  time.Time `json:"timestamp"`
	State      string    `json:"state,omitempty"`
}

// JobStatusKind tags the JobStatus variant.
type JobStatusKind string

const (
	JobStatusQueued    JobStatusKind = "queued"
	JobStatusRunning   JobStatusKind = "running"
	JobStatusCompleted JobStatusKind = "completed"
	JobStatusFailed    JobStatusKind = "failed"
)

// JobStatus is a tagged variant over a job's lifecycle. Transitions are
// one-way: Queued -> Running -> {Completed, Failed}.
type JobStatus struct {
	JobID     string        `json:"job_id"`
	Status    JobStatusKind `json:"status"`
	Error     string        `json:"error,omitempty"` // set iff Status == JobStatusFailed
	CreatedAt time.Time     `json:"created_at"`       // insertion order for round-robin job iteration
}

// StageKey identifies a stage within a job.
type StageKey struct {
	JobID   string `json:"job_id"`
	StageID int    `json:"stage_id"`
}

// StagePlan is a persisted stage: a serialized physical sub-plan rooted at
// a shuffle writer, plus its output partitioning descriptor.
type StagePlan struct {
	JobID          string         `json:"job_id"`
	StageID        int            `json:"stage_id"`
	PlanBytes      []byte         `json:"plan_bytes"`
	OutputPartCount int           `json:"output_partition_count"`
	Partitioning   PartitionScheme `json:"partitioning"`
}

// PartitionScheme describes a stage's output partitioning.
type PartitionScheme struct {
	Scheme         string   `json:"scheme"` // "hash", "unknown_partitioning", "round_robin"
	PartitionCount int      `json:"partition_count"`
	HashExprs      []string `json:"hash_exprs,omitempty"`
}

// TaskKey identifies a task uniquely within a job.
type TaskKey struct {
	JobID       string `json:"job_id"`
	StageID     int    `json:"stage_id"`
	PartitionID int    `json:"partition_id"`
}

// TaskStateKind tags the TaskStatus variant. Status is monotonic:
// Pending < Running < {Completed, Failed}, with Completed/Failed terminal.
type TaskStateKind string

const (
	TaskStatePending   TaskStateKind = "pending"
	TaskStateRunning   TaskStateKind = "running"
	TaskStateCompleted TaskStateKind = "completed"
	TaskStateFailed    TaskStateKind = "failed"
)

// Rank orders task states for the monotonicity invariant.
func (k TaskStateKind) Rank() int {
	switch k {
	case TaskStatePending:
		return 0
	case TaskStateRunning:
		return 1
	case TaskStateCompleted, TaskStateFailed:
		return 2
	default:
		return -1
	}
}

// PartitionLocation is where one output partition of a Completed task can
// be read from: the executor that produced it and an opaque file handle.
type PartitionLocation struct {
	ExecutorID string `json:"executor_id"`
	Path       string `json:"path"`
}

// TaskStatus is the full persisted record for one task.
type TaskStatus struct {
	TaskKey    TaskKey             `json:"task_key"`
	State      TaskStateKind       `json:"state"`
	ExecutorID string              `json:"executor_id,omitempty"` // set when Running or later
	StartedAt  time.Time           `json:"started_at,omitempty"`
	Partitions []PartitionLocation `json:"partitions,omitempty"` // set when Completed
	Error      string              `json:"error,omitempty"`      // set when Failed
}

// Advance reports whether moving from the receiver's state to next is a
// legal monotonic transition: rank must not decrease, and a terminal
// state (Completed, Failed) has no further transition, including to the
// other terminal state.
func (t TaskStatus) Advance(next TaskStateKind) bool {
	if t.IsTerminal() {
		return next == t.State
	}
	return next.Rank() >= t.State.Rank()
}

// IsTerminal reports whether the task's state is Completed or Failed.
func (t TaskStatus) IsTerminal() bool {
	return t.State == TaskStateCompleted || t.State == TaskStateFailed
}

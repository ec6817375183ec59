/*
Package types defines the scheduler's core data model: executors, jobs,
stages, and tasks.

# Core types

Executors:
  - ExecutorMetadata: network identity announced at registration
  - ExecutorData: slot accounting (invariant: Available <= Total)
  - ExecutorHeartbeat: last-seen liveness record

Jobs:
  - JobStatus: one query's lifecycle (Queued/Running/Completed/Failed)

Stages and tasks:
  - StagePlan: one job stage's serialized physical plan and output
    partitioning
  - TaskKey: identifies a task uniquely within a job (job, stage, partition)
  - TaskStatus: a task's current state, with Advance enforcing the
    monotonic Pending < Running < {Completed, Failed} transition order
  - PartitionLocation: where a completed task's output partition landed,
    for a downstream stage's ShuffleReaderExec to read from

# Integration points

  - pkg/state: persists every type in this package as JSON
  - pkg/scheduler: the RPC handlers that create and mutate these records
  - proto: the wire message shapes these types are converted to/from
*/
package types

/*
Package scheduler implements the distributed SQL scheduler's control
plane: accepting queries, splitting them into stages and tasks, and
handing those tasks to executors under one of two dispatch policies.

# Architecture

	┌──────────────────────────────────────────────────────────┐
	│                     ExecuteQuery                          │
	│   SQL/logical plan -> optimizer -> DistributedPlanner    │
	│         -> stages persisted, job marked Running           │
	└───────────────────────┬────────────────────────────────────┘
	                        │
	          ┌─────────────┴─────────────┐
	          ▼                           ▼
	  pull-staged policy           push-staged policy
	  executors call PollWork      dispatch loop calls
	  to claim work                LaunchTask on executors

Server implements proto.SchedulerGrpcServer; ExternalScaler implements the
KEDA external-scaler contract against the same state store, so executor
replica counts can track inflight_tasks without a separate metrics path.

# Dispatch Policies

Pull-staged: executors long-poll PollWork, reporting their own metadata,
completed/failed task statuses, and (if they have a free slot) asking for
one more task in the same round trip. The scheduler never initiates
contact with a pull-policy executor.

Push-staged: the scheduler's dispatch loop (RunDispatchLoop) drains a
channel of job ids needing attention, assigns whatever schedulable tasks
it can across available executors (descending by free slots), and calls
LaunchTask on each chosen executor directly. A job is re-enqueued after a
fixed backoff when no executor is live, or when the pass launched at least
one task; a pass that assigns nothing leaves the job to be re-enqueued by
the next UpdateTaskStatus that frees a slot.

# Task Status and Slot Accounting

UpdateTaskStatus (and PollWork's embedded task-status reports) advance a
task's persisted state monotonically. A slot is credited back to its
executor exactly once per task, on the Running -> {Completed, Failed}
transition — computed by comparing against the task's previously
persisted state, not by trusting the incoming report's state in
isolation. This guards against exactly the bug a naive per-report credit
would introduce: a duplicate or retried status update double-crediting
available_task_slots and letting the scheduler over-assign.

# Job Finalization

No persisted dependency graph records how many tasks belong to a job in
total; a job is computed Completed once every one of its currently known
tasks is Completed, and Failed as soon as any one task is Failed. This
check runs after every task-status batch that moves a task out of
Running.
*/
package scheduler

// Package state is the typed facade over storage.Store: the scheduler
// state machine operations the RPC handlers and dispatch loop depend on,
// encoding/decoding entity records and implementing task assignment.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cuemby/distsql/pkg/plan"
	"github.com/cuemby/distsql/pkg/storage"
	"github.com/cuemby/distsql/pkg/types"
)

// State is the scheduler's typed view over a Store. It owns no concurrency
// primitives of its own beyond the Store's advisory Lock: callers (the RPC
// handlers, the dispatch loop) share one State value by reference.
type State struct {
	store     storage.Store
	namespace string
	codec     plan.PhysicalCodec

	// LivenessWindow bounds how stale an executor's last heartbeat may be
	// before GetAvailableExecutorsData excludes it. The spec leaves this
	// undefined (Open Question 2); distsql fixes it at 30s, three times
	// the executor's expected 10s heartbeat interval.
	LivenessWindow time.Duration
}

// New constructs a State over store, namespaced under ns, using codec to
// reconstitute persisted physical plans.
func New(store storage.Store, ns string, codec plan.PhysicalCodec) *State {
	return &State{store: store, namespace: ns, codec: codec, LivenessWindow: 30 * time.Second}
}

func (s *State) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func (s *State) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveExecutorMetadata upserts an executor's network identity.
func (s *State) SaveExecutorMetadata(ctx context.Context, meta types.ExecutorMetadata) error {
	return s.putJSON(ctx, executorKey(s.namespace, meta.ID), meta)
}

// GetExecutorMetadata returns an executor's metadata, or ErrNotFound.
func (s *State) GetExecutorMetadata(ctx context.Context, id string) (types.ExecutorMetadata, error) {
	var meta types.ExecutorMetadata
	ok, err := s.getJSON(ctx, executorKey(s.namespace, id), &meta)
	if err != nil {
		return meta, err
	}
	if !ok {
		return meta, ErrNotFound
	}
	return meta, nil
}

// GetExecutorsMetadata lists every registered executor.
func (s *State) GetExecutorsMetadata(ctx context.Context) ([]types.ExecutorMetadata, error) {
	kvs, err := s.store.Scan(ctx, executorsPrefix(s.namespace))
	if err != nil {
		return nil, fmt.Errorf("scan executors: %w", err)
	}
	out := make([]types.ExecutorMetadata, 0, len(kvs))
	for _, kv := range kvs {
		var meta types.ExecutorMetadata
		if err := json.Unmarshal(kv.Value, &meta); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kv.Key, err)
		}
		out = append(out, meta)
	}
	return out, nil
}

// SaveExecutorHeartbeat records the last time an executor was seen alive.
func (s *State) SaveExecutorHeartbeat(ctx context.Context, hb types.ExecutorHeartbeat) error {
	return s.putJSON(ctx, heartbeatKey(s.namespace, hb.ExecutorID), hb)
}

func (s *State) getHeartbeat(ctx context.Context, id string) (types.ExecutorHeartbeat, bool, error) {
	var hb types.ExecutorHeartbeat
	ok, err := s.getJSON(ctx, heartbeatKey(s.namespace, id), &hb)
	return hb, ok, err
}

// SaveExecutorData upserts an executor's slot accounting.
func (s *State) SaveExecutorData(ctx context.Context, data types.ExecutorData) error {
	return s.putJSON(ctx, slotsKey(s.namespace, data.ExecutorID), data)
}

// GetExecutorData returns an executor's slot accounting, or ErrNotFound.
func (s *State) GetExecutorData(ctx context.Context, id string) (types.ExecutorData, error) {
	var data types.ExecutorData
	ok, err := s.getJSON(ctx, slotsKey(s.namespace, id), &data)
	if err != nil {
		return data, err
	}
	if !ok {
		return data, ErrNotFound
	}
	return data, nil
}

// GetAvailableExecutorsData returns a snapshot of every executor with a
// live heartbeat (within LivenessWindow), sorted by descending
// available_task_slots — the order the push-policy dispatch loop walks
// executors in.
func (s *State) GetAvailableExecutorsData(ctx context.Context) ([]types.ExecutorData, error) {
	kvs, err := s.store.Scan(ctx, fmt.Sprintf("/%s/slots/", s.namespace))
	if err != nil {
		return nil, fmt.Errorf("scan slots: %w", err)
	}

	now := time.Now()
	out := make([]types.ExecutorData, 0, len(kvs))
	for _, kv := range kvs {
		var data types.ExecutorData
		if err := json.Unmarshal(kv.Value, &data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kv.Key, err)
		}
		hb, ok, err := s.getHeartbeat(ctx, data.ExecutorID)
		if err != nil {
			return nil, err
		}
		if !ok || now.Sub(hb.Timestamp) > s.LivenessWindow {
			continue
		}
		out = append(out, data)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvailableTaskSlots > out[j].AvailableTaskSlots
	})
	return out, nil
}

// SaveJobMetadata upserts a job's lifecycle status.
func (s *State) SaveJobMetadata(ctx context.Context, job types.JobStatus) error {
	return s.putJSON(ctx, jobKey(s.namespace, job.JobID), job)
}

// GetJobMetadata returns the persisted JobStatus, or ErrNotFound.
func (s *State) GetJobMetadata(ctx context.Context, jobID string) (types.JobStatus, error) {
	var job types.JobStatus
	ok, err := s.getJSON(ctx, jobKey(s.namespace, jobID), &job)
	if err != nil {
		return job, err
	}
	if !ok {
		return job, ErrNotFound
	}
	return job, nil
}

// runningJobsByInsertionOrder lists every job in JobStatusRunning, ordered
// by CreatedAt ascending — the insertion order AssignNextSchedulableTask
// iterates jobs in, per the spec's "no persisted dependency graph" note:
// dependency and scheduling order between jobs is derived here, not from a
// separate index.
func (s *State) runningJobsByInsertionOrder(ctx context.Context) ([]types.JobStatus, error) {
	kvs, err := s.store.Scan(ctx, jobsPrefix(s.namespace))
	if err != nil {
		return nil, fmt.Errorf("scan jobs: %w", err)
	}
	var running []types.JobStatus
	for _, kv := range kvs {
		var job types.JobStatus
		if err := json.Unmarshal(kv.Value, &job); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kv.Key, err)
		}
		if job.Status == types.JobStatusRunning {
			running = append(running, job)
		}
	}
	sort.SliceStable(running, func(i, j int) bool { return running[i].CreatedAt.Before(running[j].CreatedAt) })
	return running, nil
}

// SaveStagePlan persists a planner-emitted stage: its serialized physical
// sub-plan and output partitioning descriptor.
func (s *State) SaveStagePlan(ctx context.Context, stage types.StagePlan) error {
	return s.putJSON(ctx, stageKey(s.namespace, stage.JobID, stage.StageID), stage)
}

// GetStagePlan returns a persisted stage, or ErrNotFound.
func (s *State) GetStagePlan(ctx context.Context, jobID string, stageID int) (types.StagePlan, error) {
	var stage types.StagePlan
	ok, err := s.getJSON(ctx, stageKey(s.namespace, jobID, stageID), &stage)
	if err != nil {
		return stage, err
	}
	if !ok {
		return stage, ErrNotFound
	}
	return stage, nil
}

// SaveTaskStatus persists a task's status record, upserting by
// (job_id, stage_id, partition_id).
func (s *State) SaveTaskStatus(ctx context.Context, ts types.TaskStatus) error {
	k := taskKey(s.namespace, ts.TaskKey.JobID, ts.TaskKey.StageID, ts.TaskKey.PartitionID)
	return s.putJSON(ctx, k, ts)
}

func (s *State) getTaskStatus(ctx context.Context, key types.TaskKey) (types.TaskStatus, bool, error) {
	var ts types.TaskStatus
	ok, err := s.getJSON(ctx, taskKey(s.namespace, key.JobID, key.StageID, key.PartitionID), &ts)
	return ts, ok, err
}

// GetAllTasks returns every persisted task status across every job —
// the set the autoscaling metric surface (§4.8) inspects for liveness.
func (s *State) GetAllTasks(ctx context.Context) ([]types.TaskStatus, error) {
	kvs, err := s.store.Scan(ctx, tasksPrefix(s.namespace))
	if err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}
	out := make([]types.TaskStatus, 0, len(kvs))
	for _, kv := range kvs {
		var ts types.TaskStatus
		if err := json.Unmarshal(kv.Value, &ts); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kv.Key, err)
		}
		out = append(out, ts)
	}
	return out, nil
}

// GetTasksForJob returns every task belonging to jobID, ascending by
// (stage_id, partition_id).
func (s *State) GetTasksForJob(ctx context.Context, jobID string) ([]types.TaskStatus, error) {
	kvs, err := s.store.Scan(ctx, tasksForJobPrefix(s.namespace, jobID))
	if err != nil {
		return nil, fmt.Errorf("scan tasks for %s: %w", jobID, err)
	}
	out := make([]types.TaskStatus, 0, len(kvs))
	for _, kv := range kvs {
		var ts types.TaskStatus
		if err := json.Unmarshal(kv.Value, &ts); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kv.Key, err)
		}
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskKey.StageID != out[j].TaskKey.StageID {
			return out[i].TaskKey.StageID < out[j].TaskKey.StageID
		}
		return out[i].TaskKey.PartitionID < out[j].TaskKey.PartitionID
	})
	return out, nil
}

// stageEligible reports whether every stage with a smaller stage_id in the
// same job is fully Completed — invariant 3. No explicit dependency graph
// is persisted (Open Question 1); distsql infers dependency order directly
// from stage_id, matching the planner's leaves-first assignment.
func stageEligible(tasks []types.TaskStatus, stageID int) bool {
	for _, t := range tasks {
		if t.TaskKey.StageID < stageID && t.State != types.TaskStateCompleted {
			return false
		}
	}
	return true
}

// AssignNextSchedulableJobTask selects one Pending task from jobID whose
// stage is ready, marks it Running{executor_id, now}, decrements the
// executor's available_task_slots, and returns the task together with its
// reconstituted physical plan. Returns (nil, nil, nil) if nothing is
// schedulable right now. The mutation is made atomic per
// (executor_id, job_id) via the advisory lock /locks/assign/{executor_id}/{job_id}.
func (s *State) AssignNextSchedulableJobTask(ctx context.Context, executorID, jobID string) (*types.TaskStatus, plan.Node, error) {
	unlock, err := s.store.Lock(ctx, assignLockKey(s.namespace, executorID, jobID))
	if err != nil {
		return nil, nil, fmt.Errorf("acquire assign lock: %w", err)
	}
	defer unlock()

	execData, err := s.GetExecutorData(ctx, executorID)
	if err != nil {
		return nil, nil, err
	}
	if execData.AvailableTaskSlots <= 0 {
		return nil, nil, nil
	}

	tasks, err := s.GetTasksForJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}

	for _, t := range tasks {
		if t.State != types.TaskStatePending {
			continue
		}
		if !stageEligible(tasks, t.TaskKey.StageID) {
			continue
		}

		stage, err := s.GetStagePlan(ctx, jobID, t.TaskKey.StageID)
		if err != nil {
			return nil, nil, fmt.Errorf("load stage plan for assignment: %w", err)
		}
		node, err := s.codec.TryDecode(stage.PlanBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("decode stage plan: %w", err)
		}
		if _, ok := node.(*plan.ShuffleWriterExec); !ok {
			return nil, nil, fmt.Errorf("%w: stage %d root is not a ShuffleWriterExec", ErrInvariantViolation, t.TaskKey.StageID)
		}

		t.State = types.TaskStateRunning
		t.ExecutorID = executorID
		t.StartedAt = time.Now()
		if err := s.SaveTaskStatus(ctx, t); err != nil {
			return nil, nil, err
		}

		execData.AvailableTaskSlots--
		if err := s.SaveExecutorData(ctx, execData); err != nil {
			return nil, nil, err
		}

		assigned := t
		return &assigned, node, nil
	}

	return nil, nil, nil
}

// AssignNextSchedulableTask iterates jobs in Running status in insertion
// order and returns the first task produced by AssignNextSchedulableJobTask.
func (s *State) AssignNextSchedulableTask(ctx context.Context, executorID string) (*types.TaskStatus, plan.Node, error) {
	jobs, err := s.runningJobsByInsertionOrder(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, job := range jobs {
		ts, node, err := s.AssignNextSchedulableJobTask(ctx, executorID, job.JobID)
		if err != nil {
			return nil, nil, err
		}
		if ts != nil {
			return ts, node, nil
		}
	}
	return nil, nil, nil
}

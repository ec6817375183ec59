package state

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/distsql/pkg/plan"
	"github.com/cuemby/distsql/pkg/storage"
	"github.com/cuemby/distsql/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, "test", plan.DefaultPhysicalCodec{})
}

func registerExecutor(t *testing.T, s *State, id string, slots int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SaveExecutorMetadata(ctx, types.ExecutorMetadata{ID: id, Host: "127.0.0.1", TaskSlots: slots}))
	require.NoError(t, s.SaveExecutorHeartbeat(ctx, types.ExecutorHeartbeat{ExecutorID: id, Timestamp: time.Now()}))
	require.NoError(t, s.SaveExecutorData(ctx, types.ExecutorData{ExecutorID: id, TotalTaskSlots: slots, AvailableTaskSlots: slots}))
}

// seedSingleTaskJob persists a 1-stage, 1-partition job ready to run,
// mirroring scenario S2's preload.
func seedSingleTaskJob(t *testing.T, s *State, jobID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SaveJobMetadata(ctx, types.JobStatus{JobID: jobID, Status: types.JobStatusRunning, CreatedAt: time.Now()}))

	writer := &plan.ShuffleWriterExec{JobID: jobID, StageID: 0, OutputPartCount: 1, Input: &plan.Scan{Table: "t", Partitions: 1}}
	encoded, err := plan.DefaultPhysicalCodec{}.TryEncode(writer)
	require.NoError(t, err)
	require.NoError(t, s.SaveStagePlan(ctx, types.StagePlan{JobID: jobID, StageID: 0, PlanBytes: encoded, OutputPartCount: 1}))

	require.NoError(t, s.SaveTaskStatus(ctx, types.TaskStatus{
		TaskKey: types.TaskKey{JobID: jobID, StageID: 0, PartitionID: 0},
		State:   types.TaskStatePending,
	}))
}

func TestGetAvailableExecutorsDataSortedDescending(t *testing.T) {
	s := newTestState(t)
	registerExecutor(t, s, "e1", 2)
	registerExecutor(t, s, "e2", 5)
	registerExecutor(t, s, "e3", 1)

	avail, err := s.GetAvailableExecutorsData(context.Background())
	require.NoError(t, err)
	require.Len(t, avail, 3)
	require.Equal(t, "e2", avail[0].ExecutorID)
	require.Equal(t, "e1", avail[1].ExecutorID)
	require.Equal(t, "e3", avail[2].ExecutorID)
}

func TestGetAvailableExecutorsDataExcludesStale(t *testing.T) {
	s := newTestState(t)
	s.LivenessWindow = 10 * time.Millisecond
	registerExecutor(t, s, "fresh", 1)

	ctx := context.Background()
	require.NoError(t, s.SaveExecutorHeartbeat(ctx, types.ExecutorHeartbeat{ExecutorID: "stale", Timestamp: time.Now().Add(-time.Hour)}))
	require.NoError(t, s.SaveExecutorData(ctx, types.ExecutorData{ExecutorID: "stale", TotalTaskSlots: 1, AvailableTaskSlots: 1}))

	avail, err := s.GetAvailableExecutorsData(ctx)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	require.Equal(t, "fresh", avail[0].ExecutorID)
}

// TestAssignNextSchedulableJobTaskSlotInvariant covers invariant 2: for any
// executor, available + running == total, before and after assignment.
func TestAssignNextSchedulableJobTaskSlotInvariant(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()
	registerExecutor(t, s, "e1", 2)
	seedSingleTaskJob(t, s, "job1")

	ts, node, err := s.AssignNextSchedulableJobTask(ctx, "e1", "job1")
	require.NoError(t, err)
	require.NotNil(t, ts)
	require.Equal(t, types.TaskStateRunning, ts.State)
	require.Equal(t, "e1", ts.ExecutorID)

	_, ok := node.(*plan.ShuffleWriterExec)
	require.True(t, ok)

	data, err := s.GetExecutorData(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, 1, data.AvailableTaskSlots)
	require.Equal(t, 2, data.TotalTaskSlots)

	// No more pending tasks: a second attempt finds nothing.
	ts2, _, err := s.AssignNextSchedulableJobTask(ctx, "e1", "job1")
	require.NoError(t, err)
	require.Nil(t, ts2)
}

// TestAssignNextSchedulableJobTaskNoSlots covers the case where an
// executor has no available_task_slots left.
func TestAssignNextSchedulableJobTaskNoSlots(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()
	registerExecutor(t, s, "e1", 1)
	require.NoError(t, s.SaveExecutorData(ctx, types.ExecutorData{ExecutorID: "e1", TotalTaskSlots: 1, AvailableTaskSlots: 0}))
	seedSingleTaskJob(t, s, "job1")

	ts, _, err := s.AssignNextSchedulableJobTask(ctx, "e1", "job1")
	require.NoError(t, err)
	require.Nil(t, ts)
}

// TestAssignNextSchedulableJobTaskStageDependency covers invariant 3: a
// stage-1 task is not handed out until all stage-0 tasks are Completed.
func TestAssignNextSchedulableJobTaskStageDependency(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()
	registerExecutor(t, s, "e1", 4)
	require.NoError(t, s.SaveJobMetadata(ctx, types.JobStatus{JobID: "job1", Status: types.JobStatusRunning, CreatedAt: time.Now()}))

	stage0 := &plan.ShuffleWriterExec{JobID: "job1", StageID: 0, OutputPartCount: 1, Input: &plan.Scan{Table: "t", Partitions: 1}}
	encoded0, err := plan.DefaultPhysicalCodec{}.TryEncode(stage0)
	require.NoError(t, err)
	require.NoError(t, s.SaveStagePlan(ctx, types.StagePlan{JobID: "job1", StageID: 0, PlanBytes: encoded0}))
	require.NoError(t, s.SaveTaskStatus(ctx, types.TaskStatus{TaskKey: types.TaskKey{JobID: "job1", StageID: 0, PartitionID: 0}, State: types.TaskStatePending}))

	stage1 := &plan.ShuffleWriterExec{JobID: "job1", StageID: 1, OutputPartCount: 1, Input: &plan.ShuffleReaderExec{JobID: "job1", StageID: 0, InputPartCount: 1}}
	encoded1, err := plan.DefaultPhysicalCodec{}.TryEncode(stage1)
	require.NoError(t, err)
	require.NoError(t, s.SaveStagePlan(ctx, types.StagePlan{JobID: "job1", StageID: 1, PlanBytes: encoded1}))
	require.NoError(t, s.SaveTaskStatus(ctx, types.TaskStatus{TaskKey: types.TaskKey{JobID: "job1", StageID: 1, PartitionID: 0}, State: types.TaskStatePending}))

	// First assignment must be stage 0, never stage 1, while stage 0 is
	// incomplete.
	ts, _, err := s.AssignNextSchedulableJobTask(ctx, "e1", "job1")
	require.NoError(t, err)
	require.NotNil(t, ts)
	require.Equal(t, 0, ts.TaskKey.StageID)

	// Stage 1 still not eligible: no pending stage-0 task remains, but the
	// one that ran hasn't completed yet.
	ts2, _, err := s.AssignNextSchedulableJobTask(ctx, "e1", "job1")
	require.NoError(t, err)
	require.Nil(t, ts2)

	ts.State = types.TaskStateCompleted
	require.NoError(t, s.SaveTaskStatus(ctx, *ts))

	ts3, _, err := s.AssignNextSchedulableJobTask(ctx, "e1", "job1")
	require.NoError(t, err)
	require.NotNil(t, ts3)
	require.Equal(t, 1, ts3.TaskKey.StageID)
}

func TestAssignNextSchedulableTaskInsertionOrder(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()
	registerExecutor(t, s, "e1", 4)

	seedSingleTaskJob(t, s, "later")
	time.Sleep(2 * time.Millisecond)
	job, err := s.GetJobMetadata(ctx, "later")
	require.NoError(t, err)
	job.CreatedAt = time.Now()
	require.NoError(t, s.SaveJobMetadata(ctx, job))

	seedSingleTaskJob(t, s, "earlier")
	job2, err := s.GetJobMetadata(ctx, "earlier")
	require.NoError(t, err)
	job2.CreatedAt = job.CreatedAt.Add(-time.Hour)
	require.NoError(t, s.SaveJobMetadata(ctx, job2))

	ts, _, err := s.AssignNextSchedulableTask(ctx, "e1")
	require.NoError(t, err)
	require.NotNil(t, ts)
	require.Equal(t, "earlier", ts.TaskKey.JobID)
}

func TestGetJobMetadataNotFound(t *testing.T) {
	s := newTestState(t)
	_, err := s.GetJobMetadata(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTaskAdvanceMonotonic(t *testing.T) {
	pending := types.TaskStatus{State: types.TaskStatePending}
	require.True(t, pending.Advance(types.TaskStateRunning))
	require.False(t, types.TaskStatus{State: types.TaskStateCompleted}.Advance(types.TaskStateRunning))
	require.True(t, types.TaskStatus{State: types.TaskStateRunning}.Advance(types.TaskStateCompleted))
}

func TestTaskAdvanceTerminalHasNoExit(t *testing.T) {
	require.False(t, types.TaskStatus{State: types.TaskStateCompleted}.Advance(types.TaskStateFailed))
	require.False(t, types.TaskStatus{State: types.TaskStateFailed}.Advance(types.TaskStateCompleted))
	require.True(t, types.TaskStatus{State: types.TaskStateCompleted}.Advance(types.TaskStateCompleted))
}

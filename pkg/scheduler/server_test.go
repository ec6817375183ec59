package scheduler

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/cuemby/distsql/pkg/executor"
	"github.com/cuemby/distsql/pkg/plan"
	"github.com/cuemby/distsql/pkg/state"
	"github.com/cuemby/distsql/pkg/storage"
	"github.com/cuemby/distsql/pkg/types"
	"github.com/cuemby/distsql/proto"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

func newTestServer(t *testing.T, policy Policy) *Server {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	st := state.New(store, "test", plan.DefaultPhysicalCodec{})
	pool := executor.NewPool()
	t.Cleanup(func() { pool.Close() })
	return NewServer(st, pool, policy)
}

// TestPollWorkPullSmoke covers S1: an empty store, one executor with 2
// slots polling with can_accept=false yields no task and a registered
// executor with slots {2,2}.
func TestPollWorkPullSmoke(t *testing.T) {
	srv := newTestServer(t, PolicyPullStaged)
	ctx := context.Background()

	res, err := srv.PollWork(ctx, &proto.PollWorkParams{
		Metadata:      &proto.ExecutorRegistration{ID: "abc", Host: "127.0.0.1", GRPCPort: 9000, TaskSlots: 2},
		CanAcceptTask: false,
	})
	require.NoError(t, err)
	require.False(t, res.HasTask)

	data, err := srv.state.GetExecutorData(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, 2, data.TotalTaskSlots)
	require.Equal(t, 2, data.AvailableTaskSlots)
}

// TestPollWorkTaskHandoff covers S2: a single ready task is handed to the
// polling executor and its slot is decremented.
func TestPollWorkTaskHandoff(t *testing.T) {
	srv := newTestServer(t, PolicyPullStaged)
	ctx := context.Background()

	writer := &plan.ShuffleWriterExec{JobID: "j1", StageID: 0, OutputPartCount: 1, Input: &plan.Scan{Table: "t", Partitions: 1}}
	planBytes, err := plan.DefaultPhysicalCodec{}.TryEncode(writer)
	require.NoError(t, err)
	require.NoError(t, srv.state.SaveStagePlan(ctx, types.StagePlan{JobID: "j1", StageID: 0, PlanBytes: planBytes, OutputPartCount: 1}))
	require.NoError(t, srv.state.SaveTaskStatus(ctx, types.TaskStatus{
		TaskKey: types.TaskKey{JobID: "j1", StageID: 0, PartitionID: 0}, State: types.TaskStatePending,
	}))
	require.NoError(t, srv.state.SaveJobMetadata(ctx, types.JobStatus{JobID: "j1", Status: types.JobStatusRunning, CreatedAt: time.Now()}))

	res, err := srv.PollWork(ctx, &proto.PollWorkParams{
		Metadata:      &proto.ExecutorRegistration{ID: "abc", Host: "127.0.0.1", GRPCPort: 9000, TaskSlots: 2},
		CanAcceptTask: true,
	})
	require.NoError(t, err)
	require.True(t, res.HasTask)
	require.Equal(t, "j1", res.Task.TaskID.JobID)

	data, err := srv.state.GetExecutorData(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, 1, data.AvailableTaskSlots)
}

// TestPollWorkRejectedUnderPushPolicy covers the policy guard: a push-mode
// scheduler must refuse PollWork.
func TestPollWorkRejectedUnderPushPolicy(t *testing.T) {
	srv := newTestServer(t, PolicyPushStaged)
	_, err := srv.PollWork(context.Background(), &proto.PollWorkParams{
		Metadata: &proto.ExecutorRegistration{ID: "abc", TaskSlots: 1},
	})
	require.Error(t, err)
}

// fakeExecutor is a minimal proto.ExecutorGrpcServer recording LaunchTask
// calls, standing in for a real executor process in push-mode tests.
type fakeExecutor struct {
	received chan *proto.TaskDefinition
}

func (f *fakeExecutor) LaunchTask(_ context.Context, req *proto.LaunchTaskParams) (*proto.LaunchTaskResult, error) {
	for _, task := range req.Tasks {
		f.received <- task
	}
	return &proto.LaunchTaskResult{Success: true}, nil
}

func startFakeExecutor(t *testing.T) (addr string, fe *fakeExecutor) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	gs := grpc.NewServer()
	fe = &fakeExecutor{received: make(chan *proto.TaskDefinition, 16)}
	proto.RegisterExecutorGrpcServer(gs, fe)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)
	return lis.Addr().String(), fe
}

// TestPushModeEndToEnd covers S3: a count(*) query plans into two stages;
// with two registered executors, stage 0's two tasks are launched, and
// once both complete, stage 1's single task launches and the job
// eventually reports Completed.
func TestPushModeEndToEnd(t *testing.T) {
	srv := newTestServer(t, PolicyPushStaged)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.RunDispatchLoop(ctx)

	addr1, fe1 := startFakeExecutor(t)
	addr2, fe2 := startFakeExecutor(t)
	host1, port1 := splitHostPort(t, addr1)
	host2, port2 := splitHostPort(t, addr2)

	_, err := srv.RegisterExecutor(ctx, &proto.RegisterExecutorParams{
		Metadata: &proto.ExecutorRegistration{ID: "e1", Host: host1, GRPCPort: port1, TaskSlots: 2},
	})
	require.NoError(t, err)
	_, err = srv.RegisterExecutor(ctx, &proto.RegisterExecutorParams{
		Metadata: &proto.ExecutorRegistration{ID: "e2", Host: host2, GRPCPort: port2, TaskSlots: 2},
	})
	require.NoError(t, err)

	res, err := srv.ExecuteQuery(ctx, &proto.ExecuteQueryParams{SQL: "SELECT count(*) FROM t"})
	require.NoError(t, err)

	var firstTask *proto.TaskDefinition
	select {
	case firstTask = <-fe1.received:
	case firstTask = <-fe2.received:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stage 0 task to launch")
	}
	require.Equal(t, 0, int(firstTask.TaskID.StageID))

	// Report both stage-0 tasks complete so stage 1 becomes eligible.
	for p := 0; p < 2; p++ {
		_, err := srv.UpdateTaskStatus(ctx, &proto.UpdateTaskStatusParams{
			ExecutorID: "e1",
			TaskStatus: []*proto.TaskStatus{{
				TaskID: &proto.PartitionId{JobID: res.JobID, StageID: 0, PartitionID: int32(p)},
				State:  string(types.TaskStateCompleted),
			}},
		})
		require.NoError(t, err)
	}

	// Stage 1 is the collapsed single-partition merge: exactly one task is
	// ever launched for it, on whichever executor receives it.
	var stage1Tasks []*proto.TaskDefinition
	collect := func(task *proto.TaskDefinition) {
		if int(task.TaskID.StageID) == 1 {
			stage1Tasks = append(stage1Tasks, task)
		}
	}
	select {
	case task := <-fe1.received:
		collect(task)
	case task := <-fe2.received:
		collect(task)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stage 1 task to launch")
	}

	// Drain both channels briefly to confirm no second stage-1 task follows.
	timeout := time.After(200 * time.Millisecond)
drain:
	for {
		select {
		case task := <-fe1.received:
			collect(task)
		case task := <-fe2.received:
			collect(task)
		case <-timeout:
			break drain
		}
	}
	require.Len(t, stage1Tasks, 1)
	require.Equal(t, 0, int(stage1Tasks[0].TaskID.PartitionID))
}

// TestExecuteQueryUnsupportedOperator covers S5: ExecuteQuery still returns
// a job id for a query the scheduler cannot plan, and the job then turns
// Failed.
func TestExecuteQueryUnsupportedOperator(t *testing.T) {
	srv := newTestServer(t, PolicyPullStaged)
	ctx := context.Background()

	res, err := srv.ExecuteQuery(ctx, &proto.ExecuteQueryParams{SQL: "DROP TABLE t"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		job, err := srv.state.GetJobMetadata(ctx, res.JobID)
		return err == nil && job.Status == types.JobStatusFailed
	}, time.Second, 10*time.Millisecond)
}

// TestGetJobStatusNotFound covers Open Question 4.
func TestGetJobStatusNotFound(t *testing.T) {
	srv := newTestServer(t, PolicyPullStaged)
	_, err := srv.GetJobStatus(context.Background(), &proto.GetJobStatusParams{JobID: "missing"})
	require.Error(t, err)
}

// TestUpdateTaskStatusDoesNotDoubleCreditSlots covers the round-trip
// idempotence requirement: replaying a completion report must not credit
// the slot twice.
func TestUpdateTaskStatusDoesNotDoubleCreditSlots(t *testing.T) {
	srv := newTestServer(t, PolicyPullStaged)
	ctx := context.Background()

	require.NoError(t, srv.state.SaveExecutorData(ctx, types.ExecutorData{ExecutorID: "abc", TotalTaskSlots: 2, AvailableTaskSlots: 1}))
	require.NoError(t, srv.state.SaveTaskStatus(ctx, types.TaskStatus{
		TaskKey: types.TaskKey{JobID: "j1", StageID: 0, PartitionID: 0}, State: types.TaskStateRunning, ExecutorID: "abc",
	}))

	report := &proto.UpdateTaskStatusParams{
		ExecutorID: "abc",
		TaskStatus: []*proto.TaskStatus{{
			TaskID: &proto.PartitionId{JobID: "j1", StageID: 0, PartitionID: 0},
			State:  string(types.TaskStateCompleted),
		}},
	}
	_, err := srv.UpdateTaskStatus(ctx, report)
	require.NoError(t, err)
	_, err = srv.UpdateTaskStatus(ctx, report)
	require.NoError(t, err)

	data, err := srv.state.GetExecutorData(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, 2, data.AvailableTaskSlots)
}

func splitHostPort(t *testing.T, addr string) (string, int32) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, int32(port)
}

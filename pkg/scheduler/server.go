package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cuemby/distsql/pkg/executor"
	"github.com/cuemby/distsql/pkg/log"
	"github.com/cuemby/distsql/pkg/metrics"
	"github.com/cuemby/distsql/pkg/plan"
	"github.com/cuemby/distsql/pkg/planner"
	"github.com/cuemby/distsql/pkg/state"
	"github.com/cuemby/distsql/pkg/types"
	"github.com/cuemby/distsql/proto"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Policy selects how tasks move from the scheduler to executors.
type Policy string

const (
	// PolicyPullStaged has executors long-poll PollWork for work.
	PolicyPullStaged Policy = "pull-staged"
	// PolicyPushStaged has the scheduler call LaunchTask on executors as
	// soon as they have free slots.
	PolicyPushStaged Policy = "push-staged"
)

// Server implements proto.SchedulerGrpcServer: the scheduler's control
// plane. Its background goroutines are the push-staged dispatch loop (run
// by the caller via RunDispatchLoop), the planning goroutine ExecuteQuery
// starts per job, and short-lived goroutines that re-enqueue job ids.
type Server struct {
	state    *state.State
	planner  *planner.DistributedPlanner
	optimize plan.Optimizer
	codec    plan.PhysicalCodec
	pool     *executor.Pool
	policy   Policy

	dispatchCh chan string
	log        zerolog.Logger
}

// NewServer wires a Server over the given state store, using
// plan.DefaultPhysicalCodec to serialize staged physical plans and pool to
// reach registered executors.
func NewServer(st *state.State, pool *executor.Pool, policy Policy) *Server {
	return &Server{
		state:      st,
		planner:    planner.New(),
		optimize:   plan.DefaultOptimizer{},
		codec:      plan.DefaultPhysicalCodec{},
		pool:       pool,
		policy:     policy,
		dispatchCh: make(chan string, 256),
		log:        log.WithComponent("scheduler"),
	}
}

// ExecuteQuery accepts a query, assigns it a job id, and plans it in the
// background; the job id is returned immediately so the caller can poll
// GetJobStatus rather than block on planning.
func (s *Server) ExecuteQuery(ctx context.Context, req *proto.ExecuteQueryParams) (*proto.ExecuteQueryResult, error) {
	jobID := newJobID()
	jobLog := log.WithJobID(jobID)

	if err := s.state.SaveJobMetadata(ctx, types.JobStatus{
		JobID:     jobID,
		Status:    types.JobStatusQueued,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, status.Errorf(codes.Internal, "persist job: %v", err)
	}
	metrics.JobsTotal.WithLabelValues(string(types.JobStatusQueued)).Inc()

	go s.planJob(context.Background(), jobID, req)

	jobLog.Info().Msg("query accepted")
	return &proto.ExecuteQueryResult{JobID: jobID}, nil
}

// planJob runs the optimizer and distributed planner, stages the resulting
// plan, and marks the job Running. It runs detached from the RPC that
// created it: ExecuteQuery returns before planning completes.
func (s *Server) planJob(ctx context.Context, jobID string, req *proto.ExecuteQueryParams) {
	timer := metrics.NewTimer()
	jobLog := log.WithJobID(jobID)

	lp, err := decodeLogicalPlan(req)
	if err != nil {
		s.failJob(ctx, jobID, fmt.Errorf("decode query: %w", err))
		return
	}

	physical, err := s.optimize.Optimize(ctx, lp)
	if err != nil {
		s.failJob(ctx, jobID, fmt.Errorf("optimize: %w", err))
		return
	}

	stages, err := s.planner.PlanQueryStages(jobID, physical)
	if err != nil {
		s.failJob(ctx, jobID, fmt.Errorf("plan stages: %w", err))
		return
	}

	for _, stg := range stages {
		planBytes, err := s.codec.TryEncode(stg.Plan)
		if err != nil {
			s.failJob(ctx, jobID, fmt.Errorf("encode stage %d: %w", stg.StageID, err))
			return
		}
		part := types.PartitionScheme{Scheme: "hash", PartitionCount: stg.Plan.OutputPartCount, HashExprs: stg.Plan.HashExprs}
		if len(part.HashExprs) == 0 {
			part.Scheme = "unknown_partitioning"
		}
		if err := s.state.SaveStagePlan(ctx, types.StagePlan{
			JobID:           jobID,
			StageID:         stg.StageID,
			PlanBytes:       planBytes,
			OutputPartCount: stg.Plan.OutputPartCount,
			Partitioning:    part,
		}); err != nil {
			s.failJob(ctx, jobID, fmt.Errorf("save stage %d: %w", stg.StageID, err))
			return
		}
		for p := 0; p < inputPartitionCount(stg.Plan.Input); p++ {
			ts := types.TaskStatus{
				TaskKey: types.TaskKey{JobID: jobID, StageID: stg.StageID, PartitionID: p},
				State:   types.TaskStatePending,
			}
			if err := s.state.SaveTaskStatus(ctx, ts); err != nil {
				s.failJob(ctx, jobID, fmt.Errorf("seed task %d/%d: %w", stg.StageID, p, err))
				return
			}
		}
	}

	if err := s.state.SaveJobMetadata(ctx, types.JobStatus{JobID: jobID, Status: types.JobStatusRunning, CreatedAt: time.Now()}); err != nil {
		jobLog.Error().Err(err).Msg("mark job running")
		return
	}
	metrics.JobsTotal.WithLabelValues(string(types.JobStatusRunning)).Inc()
	timer.ObserveDuration(metrics.PlanningDuration)
	jobLog.Info().Int("stages", len(stages)).Msg("job planned")

	if s.policy == PolicyPushStaged {
		s.enqueueDispatch(jobID)
	}
}

func (s *Server) failJob(ctx context.Context, jobID string, cause error) {
	log.WithJobID(jobID).Error().Err(cause).Msg("planning failed")
	_ = s.state.SaveJobMetadata(ctx, types.JobStatus{JobID: jobID, Status: types.JobStatusFailed, Error: cause.Error(), CreatedAt: time.Now()})
	metrics.JobsTotal.WithLabelValues(string(types.JobStatusFailed)).Inc()
}

// inputPartitionCount reports how many tasks a stage's writer needs: one
// per input partition of the subtree it wraps.
func inputPartitionCount(n plan.Node) int {
	switch v := n.(type) {
	case *plan.Scan:
		if v.Partitions <= 0 {
			return 1
		}
		return v.Partitions
	case *plan.ShuffleReaderExec:
		return v.InputPartCount
	default:
		children := n.Children()
		if len(children) == 0 {
			return 1
		}
		return inputPartitionCount(children[0])
	}
}

// PollWork is the pull-policy RPC: an executor reports its metadata and
// any completed/failed task statuses, and optionally asks for a new task
// in the same round trip. The executor's slot accounting is initialized on
// its first poll and left unchanged by later polls.
func (s *Server) PollWork(ctx context.Context, req *proto.PollWorkParams) (*proto.PollWorkResult, error) {
	if s.policy != PolicyPullStaged {
		return nil, status.Error(codes.FailedPrecondition, "scheduler is running push-staged; executors must not poll")
	}
	if req.Metadata == nil {
		return nil, status.Error(codes.InvalidArgument, "metadata is required")
	}

	if err := s.upsertExecutor(ctx, req.Metadata, false); err != nil {
		return nil, status.Errorf(codes.Internal, "register executor: %v", err)
	}
	if err := s.applyTaskStatuses(ctx, req.Metadata.ID, req.TaskStatus); err != nil {
		return nil, status.Errorf(codes.Internal, "apply task status: %v", err)
	}

	if !req.CanAcceptTask {
		return &proto.PollWorkResult{}, nil
	}

	ts, node, err := s.state.AssignNextSchedulableTask(ctx, req.Metadata.ID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "assign task: %v", err)
	}
	if ts == nil {
		return &proto.PollWorkResult{}, nil
	}

	def, err := s.taskDefinition(ctx, *ts, node)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build task definition: %v", err)
	}
	metrics.TasksAssignedTotal.Inc()
	return &proto.PollWorkResult{Task: def, HasTask: true}, nil
}

// RegisterExecutor opens an outbound client to the executor and persists
// its metadata and initial slot count. Idempotent: re-registering the same
// executor id replaces its client connection and resets its slot count.
func (s *Server) RegisterExecutor(ctx context.Context, req *proto.RegisterExecutorParams) (*proto.RegisterExecutorResult, error) {
	if req.Metadata == nil {
		return nil, status.Error(codes.InvalidArgument, "metadata is required")
	}
	if err := s.upsertExecutor(ctx, req.Metadata, true); err != nil {
		return nil, status.Errorf(codes.Internal, "register executor: %v", err)
	}
	log.WithExecutorID(req.Metadata.ID).Info().Str("host", req.Metadata.Host).Msg("executor registered")
	return &proto.RegisterExecutorResult{Success: true}, nil
}

func (s *Server) upsertExecutor(ctx context.Context, reg *proto.ExecutorRegistration, resetSlots bool) error {
	if err := s.pool.Register(ctx, reg.ID, reg.Host, int(reg.GRPCPort)); err != nil {
		return err
	}
	if err := s.state.SaveExecutorMetadata(ctx, types.ExecutorMetadata{
		ID: reg.ID, Host: reg.Host, Port: int(reg.Port), GRPCPort: int(reg.GRPCPort), TaskSlots: int(reg.TaskSlots),
	}); err != nil {
		return err
	}
	if !resetSlots {
		_, err := s.state.GetExecutorData(ctx, reg.ID)
		if err != nil && !errors.Is(err, state.ErrNotFound) {
			return err
		}
		resetSlots = err != nil
	}
	if resetSlots {
		if err := s.state.SaveExecutorData(ctx, types.ExecutorData{
			ExecutorID: reg.ID, TotalTaskSlots: int(reg.TaskSlots), AvailableTaskSlots: int(reg.TaskSlots),
		}); err != nil {
			return err
		}
	}
	if err := s.state.SaveExecutorHeartbeat(ctx, types.ExecutorHeartbeat{ExecutorID: reg.ID, Timestamp: time.Now()}); err != nil {
		return err
	}
	metrics.ExecutorsTotal.Set(float64(len(mustExecutors(ctx, s.state))))
	return nil
}

func mustExecutors(ctx context.Context, st *state.State) []types.ExecutorMetadata {
	metas, err := st.GetExecutorsMetadata(ctx)
	if err != nil {
		return nil
	}
	return metas
}

// HeartBeatFromExecutor refreshes an executor's liveness timestamp. It
// never asks an executor to re-register: under this scheduler's design an
// executor only needs to re-register after a process restart, which it
// detects locally.
func (s *Server) HeartBeatFromExecutor(ctx context.Context, req *proto.HeartBeatParams) (*proto.HeartBeatResult, error) {
	if err := s.state.SaveExecutorHeartbeat(ctx, types.ExecutorHeartbeat{
		ExecutorID: req.ExecutorID,
		Timestamp:  time.Now(),
		State:      req.State,
	}); err != nil {
		return nil, status.Errorf(codes.Internal, "save heartbeat: %v", err)
	}
	return &proto.HeartBeatResult{Reregister: false}, nil
}

// UpdateTaskStatus persists a batch of task status reports. Slots are
// credited back to the executor exactly once per task that actually
// transitions out of Running — not once per reported status — so a
// retried or duplicate report can't over-credit available_task_slots.
func (s *Server) UpdateTaskStatus(ctx context.Context, req *proto.UpdateTaskStatusParams) (*proto.UpdateTaskStatusResult, error) {
	if err := s.applyTaskStatuses(ctx, req.ExecutorID, req.TaskStatus); err != nil {
		return nil, status.Errorf(codes.Internal, "apply task status: %v", err)
	}
	return &proto.UpdateTaskStatusResult{Success: true}, nil
}

// applyTaskStatuses persists each reported task status and, for push
// policy, enqueues the owning job for re-dispatch once a task frees a
// slot. See Open Question 3: credit a slot only on the Running->terminal
// edge, determined by comparing against the task's previously persisted
// state rather than trusting the report in isolation.
func (s *Server) applyTaskStatuses(ctx context.Context, executorID string, reports []*proto.TaskStatus) error {
	touchedJobs := make(map[string]struct{})
	for _, r := range reports {
		if r == nil || r.TaskID == nil {
			continue
		}
		key := types.TaskKey{JobID: r.TaskID.JobID, StageID: int(r.TaskID.StageID), PartitionID: int(r.TaskID.PartitionID)}
		next := types.TaskStateKind(r.State)

		prev, err := s.getTaskOrZero(ctx, key)
		if err != nil {
			return err
		}
		if !prev.Advance(next) {
			continue
		}

		wasRunning := prev.State == types.TaskStateRunning
		prev.State = next
		prev.Error = r.Error
		if r.ExecutorID != "" {
			prev.ExecutorID = r.ExecutorID
		}
		for _, p := range r.Partitions {
			prev.Partitions = append(prev.Partitions, types.PartitionLocation{ExecutorID: p.ExecutorID, Path: p.Path})
		}
		if err := s.state.SaveTaskStatus(ctx, prev); err != nil {
			return err
		}

		if next == types.TaskStateFailed {
			metrics.TasksFailedTotal.Inc()
		}
		if wasRunning && prev.IsTerminal() {
			if err := s.creditSlot(ctx, executorID); err != nil {
				return err
			}
			touchedJobs[key.JobID] = struct{}{}
		}
	}
	for jobID := range touchedJobs {
		if err := s.finalizeJobIfDone(ctx, jobID); err != nil {
			return err
		}
		if s.policy == PolicyPushStaged {
			s.enqueueDispatch(jobID)
		}
	}
	return nil
}

// finalizeJobIfDone marks a job Completed once every one of its tasks is
// Completed, or Failed as soon as any task is Failed. No persisted
// dependency graph records how many tasks a job has in total (Open
// Question 1), so "done" is computed by scanning its current task set:
// a job with zero tasks is never finalized this way, which can only
// happen before planJob has seeded any, a window finalizeJobIfDone's
// callers don't run in.
func (s *Server) finalizeJobIfDone(ctx context.Context, jobID string) error {
	tasks, err := s.state.GetTasksForJob(ctx, jobID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	allCompleted := true
	failed := false
	var failure string
	for _, t := range tasks {
		if t.State == types.TaskStateFailed && !failed {
			failed = true
			failure = t.Error
		}
		if t.State != types.TaskStateCompleted {
			allCompleted = false
		}
	}

	job, err := s.state.GetJobMetadata(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status == types.JobStatusCompleted || job.Status == types.JobStatusFailed {
		return nil
	}

	switch {
	case failed:
		job.Status = types.JobStatusFailed
		job.Error = failure
		metrics.JobsTotal.WithLabelValues(string(types.JobStatusFailed)).Inc()
	case allCompleted:
		job.Status = types.JobStatusCompleted
		metrics.JobsTotal.WithLabelValues(string(types.JobStatusCompleted)).Inc()
	default:
		return nil
	}
	return s.state.SaveJobMetadata(ctx, job)
}

func (s *Server) getTaskOrZero(ctx context.Context, key types.TaskKey) (types.TaskStatus, error) {
	tasks, err := s.state.GetTasksForJob(ctx, key.JobID)
	if err != nil {
		return types.TaskStatus{}, err
	}
	for _, t := range tasks {
		if t.TaskKey == key {
			return t, nil
		}
	}
	return types.TaskStatus{TaskKey: key, State: types.TaskStatePending}, nil
}

func (s *Server) creditSlot(ctx context.Context, executorID string) error {
	data, err := s.state.GetExecutorData(ctx, executorID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil
		}
		return err
	}
	if data.AvailableTaskSlots < data.TotalTaskSlots {
		data.AvailableTaskSlots++
	}
	return s.state.SaveExecutorData(ctx, data)
}

// GetJobStatus returns NotFound for an unrecognized job id (Open Question
// 4), rather than a zero-value status that would read as "queued".
func (s *Server) GetJobStatus(ctx context.Context, req *proto.GetJobStatusParams) (*proto.GetJobStatusResult, error) {
	job, err := s.state.GetJobMetadata(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, status.Errorf(codes.NotFound, "job %s not found", req.JobID)
		}
		return nil, status.Errorf(codes.Internal, "load job: %v", err)
	}
	return &proto.GetJobStatusResult{Status: &proto.JobStatus{JobID: job.JobID, Status: string(job.Status), Error: job.Error}}, nil
}

func (s *Server) taskDefinition(ctx context.Context, ts types.TaskStatus, node plan.Node) (*proto.TaskDefinition, error) {
	stage, err := s.state.GetStagePlan(ctx, ts.TaskKey.JobID, ts.TaskKey.StageID)
	if err != nil {
		return nil, err
	}
	return &proto.TaskDefinition{
		Plan: stage.PlanBytes,
		TaskID: &proto.PartitionId{
			JobID: ts.TaskKey.JobID, StageID: int32(ts.TaskKey.StageID), PartitionID: int32(ts.TaskKey.PartitionID),
		},
		OutputPartitioning: &proto.PartitionScheme{
			Scheme: stage.Partitioning.Scheme, PartitionCount: int32(stage.Partitioning.PartitionCount), HashExprs: stage.Partitioning.HashExprs,
		},
	}, nil
}

func (s *Server) enqueueDispatch(jobID string) {
	select {
	case s.dispatchCh <- jobID:
	default:
		go func() { s.dispatchCh <- jobID }()
	}
}

package scheduler

import (
	"context"
	"time"

	"github.com/cuemby/distsql/pkg/log"
	"github.com/cuemby/distsql/pkg/metrics"
	"github.com/cuemby/distsql/pkg/types"
	"github.com/cuemby/distsql/proto"
)

// dispatchBackoff is how long the dispatch loop waits before re-enqueuing
// a job: after a pass that found no live executor, and after a pass that
// launched at least one task.
const dispatchBackoff = 100 * time.Millisecond

// RunDispatchLoop drains the push-policy dispatch channel until ctx is
// canceled. It is a no-op under pull policy: nothing is ever enqueued to
// dispatchCh in that mode, so the loop can run unconditionally and simply
// sit idle.
func (s *Server) RunDispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-s.dispatchCh:
			s.dispatchJob(ctx, jobID)
		}
	}
}

// dispatchJob round-robins one task assignment across every currently
// available executor (descending by free slots, per
// state.GetAvailableExecutorsData), launching each assigned task remotely
// before moving to the next executor. If no executor is live, the job is
// re-enqueued after dispatchBackoff; if live executors exist but nothing
// was assigned, it is not re-enqueued here.
func (s *Server) dispatchJob(ctx context.Context, jobID string) {
	timer := metrics.NewTimer()
	jobLog := log.WithJobID(jobID)

	executors, err := s.state.GetAvailableExecutorsData(ctx)
	if err != nil {
		jobLog.Error().Err(err).Msg("list available executors")
		return
	}
	if len(executors) == 0 {
		metrics.DispatchBackpressureTotal.Inc()
		s.requeueAfter(jobID, dispatchBackoff)
		return
	}

	dispatched := false
	for _, ex := range executors {
		if ex.AvailableTaskSlots <= 0 {
			continue
		}
		ts, node, err := s.state.AssignNextSchedulableJobTask(ctx, ex.ExecutorID, jobID)
		if err != nil {
			jobLog.Error().Err(err).Str("executor_id", ex.ExecutorID).Msg("assign task")
			continue
		}
		if ts == nil {
			continue
		}

		def, err := s.taskDefinition(ctx, *ts, node)
		if err != nil {
			jobLog.Error().Err(err).Msg("build task definition")
			continue
		}
		if err := s.pool.LaunchTask(ctx, ex.ExecutorID, []*proto.TaskDefinition{def}); err != nil {
			jobLog.Error().Err(err).Str("executor_id", ex.ExecutorID).Msg("launch task")
			continue
		}
		metrics.TasksAssignedTotal.Inc()
		dispatched = true
	}

	if dispatched {
		timer.ObserveDuration(metrics.DispatchLatency)
	}

	if !dispatched {
		// Nothing assigned this pass: either every ready task is blocked on
		// an earlier stage, or executors are fully occupied. Either way,
		// UpdateTaskStatus re-enqueues this job itself once a task
		// completes and frees a slot or unblocks the next stage — no need
		// to keep polling in the meantime.
		return
	}

	job, err := s.state.GetJobMetadata(ctx, jobID)
	if err == nil && (job.Status == types.JobStatusCompleted || job.Status == types.JobStatusFailed) {
		return
	}

	// The job may have more schedulable tasks than executors had free
	// slots for in this pass: re-enqueue for another round.
	s.requeueAfter(jobID, dispatchBackoff)
}

func (s *Server) requeueAfter(jobID string, d time.Duration) {
	go func() {
		time.Sleep(d)
		s.enqueueDispatch(jobID)
	}()
}

package scheduler

import (
	"context"
	"testing"

	"github.com/cuemby/distsql/pkg/types"
	"github.com/cuemby/distsql/proto"
	"github.com/stretchr/testify/require"
)

// TestExternalScalerTracksInflightTasks covers S6: IsActive is true and
// GetMetrics reports saturatingMetricValue while a non-terminal task
// exists, flipping to inactive and zero once every task has reached a
// terminal state.
func TestExternalScalerTracksInflightTasks(t *testing.T) {
	srv := newTestServer(t, PolicyPullStaged)
	scaler := NewExternalScaler(srv)
	ctx := context.Background()

	active, err := scaler.IsActive(ctx, &proto.ScaledObjectRef{Name: "executors"})
	require.NoError(t, err)
	require.False(t, active.Result)

	require.NoError(t, srv.state.SaveTaskStatus(ctx, types.TaskStatus{
		TaskKey: types.TaskKey{JobID: "j1", StageID: 0, PartitionID: 0}, State: types.TaskStateRunning,
	}))

	active, err = scaler.IsActive(ctx, &proto.ScaledObjectRef{Name: "executors"})
	require.NoError(t, err)
	require.True(t, active.Result)

	metrics, err := scaler.GetMetrics(ctx, &proto.GetMetricsRequest{MetricName: inflightTasksMetric})
	require.NoError(t, err)
	require.Len(t, metrics.MetricValues, 1)
	require.Equal(t, int64(saturatingMetricValue), metrics.MetricValues[0].MetricValue)

	require.NoError(t, srv.state.SaveTaskStatus(ctx, types.TaskStatus{
		TaskKey: types.TaskKey{JobID: "j1", StageID: 0, PartitionID: 0}, State: types.TaskStateCompleted,
	}))

	active, err = scaler.IsActive(ctx, &proto.ScaledObjectRef{Name: "executors"})
	require.NoError(t, err)
	require.False(t, active.Result)

	metrics, err = scaler.GetMetrics(ctx, &proto.GetMetricsRequest{MetricName: inflightTasksMetric})
	require.NoError(t, err)
	require.Equal(t, int64(0), metrics.MetricValues[0].MetricValue)
}

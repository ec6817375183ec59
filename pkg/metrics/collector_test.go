package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/distsql/pkg/plan"
	"github.com/cuemby/distsql/pkg/state"
	"github.com/cuemby/distsql/pkg/storage"
	"github.com/cuemby/distsql/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorRefreshesGauges(t *testing.T) {
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	st := state.New(store, "test", plan.DefaultPhysicalCodec{})
	ctx := context.Background()
	require.NoError(t, st.SaveExecutorHeartbeat(ctx, types.ExecutorHeartbeat{ExecutorID: "a", Timestamp: time.Now()}))
	require.NoError(t, st.SaveExecutorData(ctx, types.ExecutorData{ExecutorID: "a", TotalTaskSlots: 4, AvailableTaskSlots: 3}))
	require.NoError(t, st.SaveTaskStatus(ctx, types.TaskStatus{
		TaskKey: types.TaskKey{JobID: "j1", StageID: 0, PartitionID: 0}, State: types.TaskStateCompleted,
	}))

	c := NewCollector(st)
	c.collect()

	require.Equal(t, float64(1), testutil.ToFloat64(ExecutorsTotal))
	require.Equal(t, float64(3), testutil.ToFloat64(TaskSlotsAvailable))
	require.Equal(t, float64(1), testutil.ToFloat64(TasksTotal.WithLabelValues(string(types.TaskStateCompleted))))
}

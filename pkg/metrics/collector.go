package metrics

import (
	"context"
	"time"

	"github.com/cuemby/distsql/pkg/state"
	"github.com/cuemby/distsql/pkg/types"
)

// Collector periodically refreshes gauges that aggregate across the whole
// state store rather than a single RPC's worth of work — executor and slot
// counts, and the per-state task breakdown.
type Collector struct {
	state  *state.State
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over st.
func NewCollector(st *state.State) *Collector {
	return &Collector{
		state:  st,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15s interval.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	ctx := context.Background()
	c.collectExecutorMetrics(ctx)
	c.collectTaskMetrics(ctx)
}

func (c *Collector) collectExecutorMetrics(ctx context.Context) {
	executors, err := c.state.GetAvailableExecutorsData(ctx)
	if err != nil {
		return
	}

	ExecutorsTotal.Set(float64(len(executors)))

	var availableSlots int
	for _, e := range executors {
		availableSlots += e.AvailableTaskSlots
	}
	TaskSlotsAvailable.Set(float64(availableSlots))
}

func (c *Collector) collectTaskMetrics(ctx context.Context) {
	tasks, err := c.state.GetAllTasks(ctx)
	if err != nil {
		return
	}

	counts := make(map[types.TaskStateKind]int)
	for _, t := range tasks {
		counts[t.State]++
	}

	for _, st := range []types.TaskStateKind{
		types.TaskStatePending, types.TaskStateRunning,
		types.TaskStateCompleted, types.TaskStateFailed,
	} {
		TasksTotal.WithLabelValues(string(st)).Set(float64(counts[st]))
	}
}

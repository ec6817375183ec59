package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ExecutorsTotal counts executors: set to the number of registered
	// executors on each registration, and refreshed by Collector to the
	// number with a live heartbeat.
	ExecutorsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "distsql_executors_total",
			Help: "Total number of registered executors",
		},
	)

	// TaskSlotsAvailable is the sum of available_task_slots across every
	// live executor.
	TaskSlotsAvailable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "distsql_task_slots_available",
			Help: "Sum of available task slots across all live executors",
		},
	)

	// JobsTotal counts jobs by their terminal or in-flight status.
	JobsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "distsql_jobs_total",
			Help: "Total number of jobs by status",
		},
		[]string{"status"},
	)

	// TasksTotal counts tasks by their lifecycle state.
	TasksTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "distsql_tasks_total",
			Help: "Total number of tasks by state",
		},
		[]string{"state"},
	)

	// InflightTasks is the live count of non-terminal tasks, refreshed on
	// every ExternalScaler IsActive/GetMetrics call. The value GetMetrics
	// sends to the autoscaler is a saturating constant, not this count.
	InflightTasks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "distsql_inflight_tasks",
			Help: "Number of non-terminal tasks as of the last autoscaler query",
		},
	)

	// RPCRequestsTotal counts control-plane RPCs by method and status.
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "distsql_rpc_requests_total",
			Help: "Total number of control-plane RPCs by method and status",
		},
		[]string{"method", "status"},
	)

	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "distsql_rpc_request_duration_seconds",
			Help:    "Control-plane RPC duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// PlanningDuration is the time the background planning step takes to
	// bring a job to Running; planning attempts that fail are not observed.
	PlanningDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "distsql_planning_duration_seconds",
			Help:    "Time taken to optimize, physically plan, and stage a query",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DispatchLatency is the duration of one dispatch pass over a job,
	// observed only for passes that launched at least one task.
	DispatchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "distsql_dispatch_latency_seconds",
			Help:    "Duration of a dispatch pass that launched at least one task",
			Buckets: prometheus.DefBuckets,
		},
	)

	TasksAssignedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "distsql_tasks_assigned_total",
			Help: "Total number of tasks assigned to an executor",
		},
	)

	TasksFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "distsql_tasks_failed_total",
			Help: "Total number of tasks that transitioned to Failed",
		},
	)

	DispatchBackpressureTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "distsql_dispatch_backpressure_total",
			Help: "Total number of times the dispatch loop backed off for lack of available executors",
		},
	)
)

func init() {
	prometheus.MustRegister(ExecutorsTotal)
	prometheus.MustRegister(TaskSlotsAvailable)
	prometheus.MustRegister(JobsTotal)
	prometheus.MustRegister(TasksTotal)
	prometheus.MustRegister(InflightTasks)
	prometheus.MustRegister(RPCRequestsTotal)
	prometheus.MustRegister(RPCRequestDuration)
	prometheus.MustRegister(PlanningDuration)
	prometheus.MustRegister(DispatchLatency)
	prometheus.MustRegister(TasksAssignedTotal)
	prometheus.MustRegister(TasksFailedTotal)
	prometheus.MustRegister(DispatchBackpressureTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

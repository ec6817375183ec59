package scheduler

import (
	"context"

	"github.com/cuemby/distsql/pkg/metrics"
	"github.com/cuemby/distsql/proto"
)

// inflightTasksMetric is the only metric this scheduler exposes to the
// external autoscaler: KEDA scales the executor replica count to keep
// pace with it.
const inflightTasksMetric = "inflight_tasks"

// saturatingMetricValue is the wire value GetMetrics reports whenever any
// task is inflight: a very high number to saturate the HPA, forcing the
// external autoscaler to provision its configured maximum executor
// replica count rather than scale proportionally to the live count.
const saturatingMetricValue = 10000000

// ExternalScaler implements proto.ExternalScalerServer, the KEDA
// external-push-scaler contract, backed by the same state store the
// control plane uses.
type ExternalScaler struct {
	server *Server
}

// NewExternalScaler wraps srv's state for the autoscaler RPCs.
func NewExternalScaler(srv *Server) *ExternalScaler {
	return &ExternalScaler{server: srv}
}

// IsActive reports true while any task is not yet in a terminal state —
// KEDA keeps the executor deployment's replica count above zero as long
// as this holds.
func (e *ExternalScaler) IsActive(ctx context.Context, _ *proto.ScaledObjectRef) (*proto.IsActiveResponse, error) {
	count, err := e.inflightCount(ctx)
	if err != nil {
		return nil, err
	}
	return &proto.IsActiveResponse{Result: count > 0}, nil
}

// GetMetricSpec advertises the single metric this scaler reports, with a
// target size of 1. Since GetMetrics reports saturatingMetricValue rather
// than the live count, replicas do not scale 1:1 with inflight tasks.
func (e *ExternalScaler) GetMetricSpec(ctx context.Context, _ *proto.ScaledObjectRef) (*proto.GetMetricSpecResponse, error) {
	return &proto.GetMetricSpecResponse{
		MetricSpecs: []*proto.MetricSpec{{MetricName: inflightTasksMetric, TargetSize: 1}},
	}, nil
}

// GetMetrics reports saturatingMetricValue while any task is inflight, or
// zero once none are — the live count still drives IsActive and the
// Prometheus gauge via inflightCount, but the value KEDA sees is
// deliberately saturating, not proportional.
func (e *ExternalScaler) GetMetrics(ctx context.Context, req *proto.GetMetricsRequest) (*proto.GetMetricsResponse, error) {
	count, err := e.inflightCount(ctx)
	if err != nil {
		return nil, err
	}
	value := int64(0)
	if count > 0 {
		value = saturatingMetricValue
	}
	return &proto.GetMetricsResponse{
		MetricValues: []*proto.MetricValue{{MetricName: req.MetricName, MetricValue: value}},
	}, nil
}

func (e *ExternalScaler) inflightCount(ctx context.Context) (int64, error) {
	tasks, err := e.server.state.GetAllTasks(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, t := range tasks {
		if !t.IsTerminal() {
			n++
		}
	}
	metrics.InflightTasks.Set(float64(n))
	return n, nil
}

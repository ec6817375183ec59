package plan

import (
	"context"
	"fmt"
)

// Optimizer turns a logical plan into an initial physical plan. The real
// query planner/optimizer is out of scope for the scheduler; Optimizer is
// the abstract collaborator interface it would sit behind.
type Optimizer interface {
	Optimize(ctx context.Context, lp LogicalPlan) (Node, error)
}

// DefaultOptimizer recognizes a minimal logical-plan shape — a scan,
// optionally followed by a two-phase group-by/aggregate — sufficient to
// exercise the distributed planner end-to-end in tests without a real SQL
// engine attached.
type DefaultOptimizer struct{}

func (DefaultOptimizer) Optimize(_ context.Context, lp LogicalPlan) (Node, error) {
	scan, ok := lp.(*LogicalScan)
	if !ok {
		return nil, fmt.Errorf("unsupported logical plan: %T", lp)
	}

	partitions := scan.Partitions
	if partitions <= 0 {
		partitions = 1
	}
	var plan Node = &Scan{Table: scan.Table, Partitions: partitions}

	if len(scan.AggExprs) == 0 {
		return plan, nil
	}

	plan = &HashAggregate{GroupExprs: scan.GroupExprs, AggExprs: scan.AggExprs, Final: false, Input: plan}
	plan = &HashAggregate{GroupExprs: scan.GroupExprs, AggExprs: scan.AggExprs, Final: true, Input: plan}
	return plan, nil
}

// Package planner implements the distributed planner: splitting a physical
// plan tree into an ordered list of shuffle-writer stages at every pipeline
// breaker, per the scheduler's stage-decomposition algorithm.
package planner

import (
	"fmt"

	"github.com/cuemby/distsql/pkg/plan"
)

// Stage is one emitted ShuffleWriterExec, ready to persist.
type Stage struct {
	StageID int
	Plan    *plan.ShuffleWriterExec
}

// DistributedPlanner splits a physical plan into stages at pipeline
// breakers. Post-order traversal: at a full-repartition aggregation, the
// breaker's own input subtree is cut into a new stage and replaced with a
// ShuffleReaderExec, while the aggregation itself stays in the parent
// stage; at an explicit Repartition node, the node itself is replaced
// entirely by the ShuffleReaderExec since repartitioning the shuffle
// output is exactly what the read already performs. The plan root is
// always cut last into the final stage, with single-partition output
// (the query result). Stage ids are assigned in emit order, so a
// dependency always has a smaller id than its dependent.
type DistributedPlanner struct{}

// New returns a DistributedPlanner. It carries no state: every call to
// PlanQueryStages is independent and deterministic in its own right.
func New() *DistributedPlanner {
	return &DistributedPlanner{}
}

// PlanQueryStages splits physical into an ordered ([]Stage) list, leaves
// first, the root's ShuffleWriterExec last. Fails if physical contains an
// operator this planner doesn't recognize.
func (p *DistributedPlanner) PlanQueryStages(jobID string, physical plan.Node) ([]Stage, error) {
	var stages []Stage
	nextStageID := 0

	emitStage := func(sub plan.Node, partCount int, hashExprs []string) *plan.ShuffleReaderExec {
		stageID := nextStageID
		nextStageID++
		writer := &plan.ShuffleWriterExec{
			JobID:           jobID,
			StageID:         stageID,
			OutputPartCount: partCount,
			HashExprs:       hashExprs,
			Input:           sub,
		}
		stages = append(stages, Stage{StageID: stageID, Plan: writer})
		return &plan.ShuffleReaderExec{JobID: jobID, StageID: stageID, InputPartCount: partCount}
	}

	var visit func(n plan.Node) (plan.Node, error)
	visit = func(n plan.Node) (plan.Node, error) {
		if err := checkSupported(n); err != nil {
			return nil, err
		}

		children := n.Children()
		newChildren := make([]plan.Node, len(children))
		for i, c := range children {
			rewritten, err := visit(c)
			if err != nil {
				return nil, err
			}
			newChildren[i] = rewritten
		}
		if len(children) > 0 {
			n = n.WithNewChildren(newChildren)
		}

		switch v := n.(type) {
		case *plan.HashAggregate:
			if !v.Final {
				return v, nil
			}
			// No GROUP BY: the merge has nowhere to partition by, so the
			// shuffle must collapse to a single partition (the Go analogue
			// of DataFusion's CoalescePartitionsExec) ahead of the final
			// single-task merge.
			partCount := partitionCountOf(v.Input)
			if len(v.GroupExprs) == 0 {
				partCount = 1
			}
			reader := emitStage(v.Input, partCount, groupExprsOf(v.Input))
			return &plan.HashAggregate{GroupExprs: v.GroupExprs, AggExprs: v.AggExprs, Final: true, Input: reader}, nil
		case *plan.Repartition:
			return emitStage(v.Input, v.PartitionCount, v.HashExprs), nil
		default:
			return n, nil
		}
	}

	rewritten, err := visit(physical)
	if err != nil {
		return nil, err
	}

	rootStageID := nextStageID
	nextStageID++
	rootWriter := &plan.ShuffleWriterExec{
		JobID:           jobID,
		StageID:         rootStageID,
		OutputPartCount: 1,
		Input:           rewritten,
	}
	stages = append(stages, Stage{StageID: rootStageID, Plan: rootWriter})

	return stages, nil
}

// checkSupported fails planning on an operator this planner has no rule
// for, surfacing the operator's name so the job's Failed{error} names it.
func checkSupported(n plan.Node) error {
	switch n.(type) {
	case *plan.Scan, *plan.Projection, *plan.HashAggregate, *plan.Repartition,
		*plan.ShuffleWriterExec, *plan.ShuffleReaderExec:
		return nil
	default:
		return fmt.Errorf("unsupported operator: %s", n.Name())
	}
}

// partitionCountOf walks down through non-breaking nodes to find the
// natural partitioning a node inherits from its input chain.
func partitionCountOf(n plan.Node) int {
	switch v := n.(type) {
	case *plan.Scan:
		return v.Partitions
	case *plan.Repartition:
		return v.PartitionCount
	case *plan.ShuffleReaderExec:
		return v.InputPartCount
	default:
		children := n.Children()
		if len(children) == 0 {
			return 1
		}
		return partitionCountOf(children[0])
	}
}

// groupExprsOf reports the grouping expressions a node's output is
// naturally keyed by, if any — used as the shuffle's hash-partitioning
// keys so a downstream final aggregation reads co-located groups.
func groupExprsOf(n plan.Node) []string {
	if v, ok := n.(*plan.HashAggregate); ok {
		return v.GroupExprs
	}
	return nil
}

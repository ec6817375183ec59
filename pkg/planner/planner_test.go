package planner

import (
	"testing"

	"github.com/cuemby/distsql/pkg/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPlanQueryStagesCountStar exercises S3 from the scheduler's testable
// scenarios: a 2-stage count(*) plan (scan+partial-agg, final-agg).
func TestPlanQueryStagesCountStar(t *testing.T) {
	physical := &plan.HashAggregate{
		AggExprs: []string{"count(*)"},
		Final:    true,
		Input: &plan.HashAggregate{
			AggExprs: []string{"count(*)"},
			Final:    false,
			Input:    &plan.Scan{Table: "t", Partitions: 2},
		},
	}

	stages, err := New().PlanQueryStages("job1", physical)
	require.NoError(t, err)
	require.Len(t, stages, 2)

	assert.Equal(t, 0, stages[0].StageID)
	assert.Equal(t, 1, stages[0].Plan.OutputPartCount)
	partial, ok := stages[0].Plan.Input.(*plan.HashAggregate)
	require.True(t, ok)
	assert.False(t, partial.Final)
	_, ok = partial.Input.(*plan.Scan)
	assert.True(t, ok)

	assert.Equal(t, 1, stages[1].StageID)
	assert.Equal(t, 1, stages[1].Plan.OutputPartCount)
	final, ok := stages[1].Plan.Input.(*plan.HashAggregate)
	require.True(t, ok)
	assert.True(t, final.Final)
	reader, ok := final.Input.(*plan.ShuffleReaderExec)
	require.True(t, ok)
	assert.Equal(t, 0, reader.StageID)
}

// TestPlanQueryStagesDeterminism covers invariant 4: identical input plans
// yield stages with identical ids, ordering, and partitioning descriptors.
func TestPlanQueryStagesDeterminism(t *testing.T) {
	build := func() plan.Node {
		return &plan.HashAggregate{
			Final: true,
			Input: &plan.HashAggregate{
				Final: false,
				Input: &plan.Scan{Table: "t", Partitions: 4},
			},
		}
	}

	a, err := New().PlanQueryStages("jobA", build())
	require.NoError(t, err)
	b, err := New().PlanQueryStages("jobA", build())
	require.NoError(t, err)

	require.Len(t, a, len(b))
	for i := range a {
		assert.Equal(t, a[i].StageID, b[i].StageID)
		assert.Equal(t, a[i].Plan.OutputPartCount, b[i].Plan.OutputPartCount)
	}
}

// TestPlanQueryStagesScanOnly covers the trivial case: a single-stage plan
// with no pipeline breaker below the root.
func TestPlanQueryStagesScanOnly(t *testing.T) {
	physical := &plan.Projection{Exprs: []string{"a"}, Input: &plan.Scan{Table: "t", Partitions: 3}}

	stages, err := New().PlanQueryStages("job2", physical)
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.Equal(t, 0, stages[0].StageID)
	assert.Equal(t, 1, stages[0].Plan.OutputPartCount)
}

// TestPlanQueryStagesExplicitRepartition covers the Repartition pipeline
// breaker: it's replaced entirely by the shuffle reader, not kept above it.
func TestPlanQueryStagesExplicitRepartition(t *testing.T) {
	physical := &plan.Repartition{
		PartitionCount: 4,
		HashExprs:      []string{"k"},
		Input:          &plan.Scan{Table: "t", Partitions: 2},
	}

	stages, err := New().PlanQueryStages("job3", physical)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, 4, stages[0].Plan.OutputPartCount)
	assert.Equal(t, []string{"k"}, stages[0].Plan.HashExprs)

	reader, ok := stages[1].Plan.Input.(*plan.ShuffleReaderExec)
	require.True(t, ok)
	assert.Equal(t, 0, reader.StageID)
}

// TestPlanQueryStagesUnsupportedOperator covers planning failure: an
// unrecognized operator fails the whole step, naming itself in the error.
type unsupportedNode struct{}

func (unsupportedNode) Name() string                         { return "Unsupported" }
func (unsupportedNode) Children() []plan.Node                { return nil }
func (unsupportedNode) WithNewChildren(c []plan.Node) plan.Node { return unsupportedNode{} }

func TestPlanQueryStagesUnsupportedOperator(t *testing.T) {
	_, err := New().PlanQueryStages("job4", unsupportedNode{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported")
}

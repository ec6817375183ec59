package scheduler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cuemby/distsql/pkg/plan"
	"github.com/cuemby/distsql/proto"
)

// countStarPattern recognizes one of the two SQL shapes this scheduler can
// plan without a real query engine attached: a full-table count aggregate. A
// real SQL front end (out of scope) would replace this with a parser and
// logical planner producing the same plan.LogicalScan shape.
var countStarPattern = regexp.MustCompile(`(?i)^\s*select\s+count\(\s*\*\s*\)\s+from\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*;?\s*$`)

// scanPattern recognizes a bare "select * from <table>".
var scanPattern = regexp.MustCompile(`(?i)^\s*select\s+\*\s+from\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*;?\s*$`)

// decodeLogicalPlan turns an ExecuteQuery request into the logical plan
// the optimizer consumes, either by decoding the caller-supplied encoded
// plan or by recognizing a handful of literal SQL shapes.
func decodeLogicalPlan(req *proto.ExecuteQueryParams) (plan.LogicalPlan, error) {
	if len(req.LogicalPlan) > 0 {
		return plan.DefaultLogicalCodec{}.TryDecodeLogical(req.LogicalPlan)
	}

	sql := strings.TrimSpace(req.SQL)
	if sql == "" {
		return nil, fmt.Errorf("request carries neither sql nor logical_plan")
	}
	if m := countStarPattern.FindStringSubmatch(sql); m != nil {
		return &plan.LogicalScan{Table: m[1], AggExprs: []string{"count(*)"}, Partitions: 2}, nil
	}
	if m := scanPattern.FindStringSubmatch(sql); m != nil {
		return &plan.LogicalScan{Table: m[1], Partitions: 1}, nil
	}
	return nil, fmt.Errorf("unsupported query: %q", sql)
}

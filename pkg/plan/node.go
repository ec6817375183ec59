// Package plan provides a physical-plan node tree for the distributed
// planner to operate on. The real query optimizer and wire codec are out of
// scope for this scheduler; this package supplies just enough of a tree
// shape (modeled on the pipeline-breaker boundaries the planner cuts at) to
// exercise the planner end-to-end without a real SQL engine attached.
package plan

import "fmt"

// Node is a physical-plan operator. Every concrete node implements it.
type Node interface {
	Name() string
	Children() []Node
	WithNewChildren(children []Node) Node
}

// RequiresRepartition reports whether n is a pipeline breaker: a node the
// distributed planner must cut the plan at, inserting a shuffle boundary.
func RequiresRepartition(n Node) bool {
	switch v := n.(type) {
	case *HashAggregate:
		return v.Final
	case *Repartition:
		return true
	default:
		return false
	}
}

// Scan is a leaf node reading from a table or file source.
type Scan struct {
	Table       string
	Projection  []string
	Partitions  int
}

func (s *Scan) Name() string       { return fmt.Sprintf("Scan(%s)", s.Table) }
func (s *Scan) Children() []Node    { return nil }
func (s *Scan) WithNewChildren(c []Node) Node {
	if len(c) != 0 {
		panic("Scan takes no children")
	}
	return s
}

// Projection evaluates a fixed list of expressions over its input.
type Projection struct {
	Exprs []string
	Input Node
}

func (p *Projection) Name() string    { return "Projection" }
func (p *Projection) Children() []Node { return []Node{p.Input} }
func (p *Projection) WithNewChildren(c []Node) Node {
	return &Projection{Exprs: p.Exprs, Input: mustOne(c)}
}

// HashAggregate is a two-phase aggregation operator. Partial runs per
// partition with no shuffle; Final requires its input to be fully
// repartitioned by group key first, making it a pipeline breaker.
type HashAggregate struct {
	GroupExprs []string
	AggExprs   []string
	Final      bool
	Input      Node
}

func (h *HashAggregate) Name() string {
	if h.Final {
		return "HashAggregate(final)"
	}
	return "HashAggregate(partial)"
}
func (h *HashAggregate) Children() []Node { return []Node{h.Input} }
func (h *HashAggregate) WithNewChildren(c []Node) Node {
	return &HashAggregate{GroupExprs: h.GroupExprs, AggExprs: h.AggExprs, Final: h.Final, Input: mustOne(c)}
}

// Repartition explicitly redistributes rows across a new partition count,
// always a pipeline breaker.
type Repartition struct {
	PartitionCount int
	HashExprs      []string // nil means round-robin
	Input          Node
}

func (r *Repartition) Name() string    { return "Repartition" }
func (r *Repartition) Children() []Node { return []Node{r.Input} }
func (r *Repartition) WithNewChildren(c []Node) Node {
	return &Repartition{PartitionCount: r.PartitionCount, HashExprs: r.HashExprs, Input: mustOne(c)}
}

// ShuffleWriterExec roots one stage: it materializes its input's output
// partitions so downstream stages can read them via ShuffleReaderExec.
type ShuffleWriterExec struct {
	JobID           string
	StageID         int
	OutputPartCount int
	HashExprs       []string // nil means round-robin or single-partition
	Input           Node
}

func (s *ShuffleWriterExec) Name() string    { return fmt.Sprintf("ShuffleWriterExec(stage=%d)", s.StageID) }
func (s *ShuffleWriterExec) Children() []Node { return []Node{s.Input} }
func (s *ShuffleWriterExec) WithNewChildren(c []Node) Node {
	return &ShuffleWriterExec{JobID: s.JobID, StageID: s.StageID, OutputPartCount: s.OutputPartCount, HashExprs: s.HashExprs, Input: mustOne(c)}
}

// ShuffleReaderExec replaces a cut point in the parent plan: it reads the
// output partitions a prior stage's ShuffleWriterExec produced.
type ShuffleReaderExec struct {
	JobID           string
	StageID         int // the dependency stage being read
	InputPartCount  int
}

func (s *ShuffleReaderExec) Name() string       { return fmt.Sprintf("ShuffleReaderExec(stage=%d)", s.StageID) }
func (s *ShuffleReaderExec) Children() []Node    { return nil }
func (s *ShuffleReaderExec) WithNewChildren(c []Node) Node {
	if len(c) != 0 {
		panic("ShuffleReaderExec takes no children")
	}
	return s
}

func mustOne(c []Node) Node {
	if len(c) != 1 {
		panic(fmt.Sprintf("expected exactly one child, got %d", len(c)))
	}
	return c[0]
}

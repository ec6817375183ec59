package plan

import (
	"encoding/json"
	"fmt"
)

// PhysicalCodec encodes and decodes a physical plan tree to/from the opaque
// bytes the state store and the executor RPCs carry. Threaded through
// constructors rather than subclassed, per the scheduler's parameterization
// over plan encodings.
type PhysicalCodec interface {
	TryEncode(n Node) ([]byte, error)
	TryDecode(data []byte) (Node, error)
}

// LogicalCodec is the logical-plan analogue of PhysicalCodec, used to
// decode an ExecuteQuery request's encoded-logical-plan variant before
// handing it to the optimizer.
type LogicalCodec interface {
	TryDecodeLogical(data []byte) (LogicalPlan, error)
}

// LogicalPlan is the pre-optimization input the Optimizer consumes. It
// deliberately carries far less structure than Node: the real logical
// planner (out of scope) would own a much richer representation.
type LogicalPlan interface {
	logicalPlanMarker()
}

// LogicalScan names a table to read, with optional group-by/aggregate shape
// sufficient to drive DefaultOptimizer.
type LogicalScan struct {
	Table      string
	GroupExprs []string
	AggExprs   []string
	Partitions int
}

func (*LogicalScan) logicalPlanMarker() {}

// taggedNode is the wire shape DefaultPhysicalCodec serializes Node trees
// into: a type tag plus the concrete node's own JSON, recursed into for
// children so the tree round-trips exactly.
type taggedNode struct {
	Type  string          `json:"type"`
	Node  json.RawMessage `json:"node"`
}

// DefaultPhysicalCodec is the built-in PhysicalCodec, standing in for the
// spec's "built-in protobuf messages" — the real wire format is opaque and
// out of scope, so tagged JSON serves the same structural role.
type DefaultPhysicalCodec struct{}

func (DefaultPhysicalCodec) TryEncode(n Node) ([]byte, error) {
	tn, err := encodeNode(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tn)
}

func (DefaultPhysicalCodec) TryDecode(data []byte) (Node, error) {
	var tn taggedNode
	if err := json.Unmarshal(data, &tn); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return decodeNode(tn)
}

// DefaultLogicalCodec is the built-in LogicalCodec: it decodes the plain
// JSON form of a LogicalScan, the only logical-plan shape DefaultOptimizer
// recognizes.
type DefaultLogicalCodec struct{}

func (DefaultLogicalCodec) TryDecodeLogical(data []byte) (LogicalPlan, error) {
	var ls LogicalScan
	if err := json.Unmarshal(data, &ls); err != nil {
		return nil, fmt.Errorf("decode logical plan: %w", err)
	}
	return &ls, nil
}

// wire mirrors of each concrete Node, substituting nested plans with their
// own taggedNode so json.Marshal/Unmarshal can recurse.
type scanWire struct {
	Table      string   `json:"table"`
	Projection []string `json:"projection,omitempty"`
	Partitions int      `json:"partitions"`
}
type projectionWire struct {
	Exprs []string   `json:"exprs"`
	Input taggedNode `json:"input"`
}
type hashAggregateWire struct {
	GroupExprs []string   `json:"group_exprs,omitempty"`
	AggExprs   []string   `json:"agg_exprs,omitempty"`
	Final      bool       `json:"final"`
	Input      taggedNode `json:"input"`
}
type repartitionWire struct {
	PartitionCount int        `json:"partition_count"`
	HashExprs      []string   `json:"hash_exprs,omitempty"`
	Input          taggedNode `json:"input"`
}
type shuffleWriterWire struct {
	JobID           string     `json:"job_id"`
	StageID         int        `json:"stage_id"`
	OutputPartCount int        `json:"output_partition_count"`
	HashExprs       []string   `json:"hash_exprs,omitempty"`
	Input           taggedNode `json:"input"`
}
type shuffleReaderWire struct {
	JobID          string `json:"job_id"`
	StageID        int    `json:"stage_id"`
	InputPartCount int    `json:"input_partition_count"`
}

func encodeNode(n Node) (taggedNode, error) {
	switch v := n.(type) {
	case *Scan:
		b, err := json.Marshal(scanWire{Table: v.Table, Projection: v.Projection, Partitions: v.Partitions})
		return wrap("scan", b, err)
	case *Projection:
		input, err := encodeNode(v.Input)
		if err != nil {
			return taggedNode{}, err
		}
		b, err := json.Marshal(projectionWire{Exprs: v.Exprs, Input: input})
		return wrap("projection", b, err)
	case *HashAggregate:
		input, err := encodeNode(v.Input)
		if err != nil {
			return taggedNode{}, err
		}
		b, err := json.Marshal(hashAggregateWire{GroupExprs: v.GroupExprs, AggExprs: v.AggExprs, Final: v.Final, Input: input})
		return wrap("hash_aggregate", b, err)
	case *Repartition:
		input, err := encodeNode(v.Input)
		if err != nil {
			return taggedNode{}, err
		}
		b, err := json.Marshal(repartitionWire{PartitionCount: v.PartitionCount, HashExprs: v.HashExprs, Input: input})
		return wrap("repartition", b, err)
	case *ShuffleWriterExec:
		input, err := encodeNode(v.Input)
		if err != nil {
			return taggedNode{}, err
		}
		b, err := json.Marshal(shuffleWriterWire{JobID: v.JobID, StageID: v.StageID, OutputPartCount: v.OutputPartCount, HashExprs: v.HashExprs, Input: input})
		return wrap("shuffle_writer", b, err)
	case *ShuffleReaderExec:
		b, err := json.Marshal(shuffleReaderWire{JobID: v.JobID, StageID: v.StageID, InputPartCount: v.InputPartCount})
		return wrap("shuffle_reader", b, err)
	default:
		return taggedNode{}, fmt.Errorf("unsupported operator: %T", n)
	}
}

func wrap(typ string, body []byte, err error) (taggedNode, error) {
	if err != nil {
		return taggedNode{}, err
	}
	return taggedNode{Type: typ, Node: body}, nil
}

func decodeNode(tn taggedNode) (Node, error) {
	switch tn.Type {
	case "scan":
		var w scanWire
		if err := json.Unmarshal(tn.Node, &w); err != nil {
			return nil, err
		}
		return &Scan{Table: w.Table, Projection: w.Projection, Partitions: w.Partitions}, nil
	case "projection":
		var w projectionWire
		if err := json.Unmarshal(tn.Node, &w); err != nil {
			return nil, err
		}
		input, err := decodeNode(w.Input)
		if err != nil {
			return nil, err
		}
		return &Projection{Exprs: w.Exprs, Input: input}, nil
	case "hash_aggregate":
		var w hashAggregateWire
		if err := json.Unmarshal(tn.Node, &w); err != nil {
			return nil, err
		}
		input, err := decodeNode(w.Input)
		if err != nil {
			return nil, err
		}
		return &HashAggregate{GroupExprs: w.GroupExprs, AggExprs: w.AggExprs, Final: w.Final, Input: input}, nil
	case "repartition":
		var w repartitionWire
		if err := json.Unmarshal(tn.Node, &w); err != nil {
			return nil, err
		}
		input, err := decodeNode(w.Input)
		if err != nil {
			return nil, err
		}
		return &Repartition{PartitionCount: w.PartitionCount, HashExprs: w.HashExprs, Input: input}, nil
	case "shuffle_writer":
		var w shuffleWriterWire
		if err := json.Unmarshal(tn.Node, &w); err != nil {
			return nil, err
		}
		input, err := decodeNode(w.Input)
		if err != nil {
			return nil, err
		}
		return &ShuffleWriterExec{JobID: w.JobID, StageID: w.StageID, OutputPartCount: w.OutputPartCount, HashExprs: w.HashExprs, Input: input}, nil
	case "shuffle_reader":
		var w shuffleReaderWire
		if err := json.Unmarshal(tn.Node, &w); err != nil {
			return nil, err
		}
		return &ShuffleReaderExec{JobID: w.JobID, StageID: w.StageID, InputPartCount: w.InputPartCount}, nil
	default:
		return nil, fmt.Errorf("unsupported operator: %s", tn.Type)
	}
}

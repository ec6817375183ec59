package state

import "errors"

// ErrNotFound is returned when a lookup by id finds no record. Handlers
// translate it into a gRPC NotFound status.
var ErrNotFound = errors.New("not found")

// ErrInvariantViolation marks a condition the state machine's invariants
// rule out in a correctly functioning planner/dispatcher — e.g. a stage
// plan whose root is not a ShuffleWriterExec. Handlers translate it into a
// gRPC Internal status.
var ErrInvariantViolation = errors.New("invariant violation")

package board

import "fmt"

// InvariantError signals a bug: an internal consistency invariant was
// violated (spec §7, "Invariant-violation"). The current operation must be
// aborted with all save/restore windows closed; callers should treat this
// as fatal.
type InvariantError struct {
	Op      string
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("board: invariant violated in %s: %s", e.Op, e.Message)
}

// NewInvariantError builds an InvariantError.
func NewInvariantError(op, format string, args ...interface{}) *InvariantError {
	return &InvariantError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// InvalidInputError signals a rejected mutation (spec §7,
// "Invalid-input"): duplicate names, pruning all layers, unknown
// identifiers, degenerate vias, grids larger than MaxGridCells, and so on.
type InvalidInputError struct {
	Op      string
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("board: invalid input for %s: %s", e.Op, e.Message)
}

// NewInvalidInputError builds an InvalidInputError.
func NewInvalidInputError(op, format string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// GeometryDegenerateError signals a recoverable geometric edge case (spec
// §7, "Geometry-degenerate"): callers should warn and fall back rather than
// fail the whole operation.
type GeometryDegenerateError struct {
	Op      string
	Message string
}

func (e *GeometryDegenerateError) Error() string {
	return fmt.Sprintf("board: degenerate geometry in %s: %s", e.Op, e.Message)
}

// RoutingFailureReason enumerates why run_path_finding failed to produce a
// track, without otherwise changing board state (spec §4.7, §7).
type RoutingFailureReason int

const (
	ReasonNone RoutingFailureReason = iota
	ReasonOutOfArea
	ReasonBlocked
	ReasonLayerMaskEmpty
	ReasonTimeout
	ReasonCancelled
)

func (r RoutingFailureReason) String() string {
	switch r {
	case ReasonOutOfArea:
		return "OUT_OF_AREA"
	case ReasonBlocked:
		return "BLOCKED"
	case ReasonLayerMaskEmpty:
		return "LAYER_MASK_EMPTY"
	case ReasonTimeout:
		return "TIMEOUT"
	case ReasonCancelled:
		return "CANCELLED"
	default:
		return "NONE"
	}
}

// RoutingFailure is returned by pathfinding operations on failure; it
// carries no partial state change (spec §7 propagation policy).
type RoutingFailure struct {
	Reason RoutingFailureReason
}

func (e *RoutingFailure) Error() string {
	return fmt.Sprintf("board: routing failure: %s", e.Reason)
}

// Warning is a soft, non-fatal diagnostic (spec §7, "Soft warning"): a
// renamed component, a segment touching but not endpointing in a pin, a
// nudged circular track. Operations that produce warnings continue and
// collect them rather than aborting.
type Warning struct {
	Op      string
	Message string
}

func (w *Warning) Error() string {
	return fmt.Sprintf("board: warning in %s: %s", w.Op, w.Message)
}

// NewWarning builds a Warning.
func NewWarning(op, format string, args ...interface{}) *Warning {
	return &Warning{Op: op, Message: fmt.Sprintf(format, args...)}
}

package segreduce

// State is a step of the dispatch state machine.
//
// A sizing call moves Configuring → Sizing → AwaitingStorage. An execution
// call moves Configuring → Executing → Completed, or to Failed from any
// step.
type State uint8

const (
	StateConfiguring State = iota
	StateSizing
	StateAwaitingStorage
	StateExecuting
	StateCompleted
	StateFailed
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateSizing:
		return "sizing"
	case StateAwaitingStorage:
		return "awaiting_storage"
	case StateExecuting:
		return "executing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a call.
func (s State) Terminal() bool {
	return s == StateAwaitingStorage || s == StateCompleted || s == StateFailed
}

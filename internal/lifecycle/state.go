package lifecycle

import "fmt"

// State is a lifecycle state of a component instance.
type State int

const (
	Created State = iota
	Validated
	Initialized
	Running
	ResultCollected
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "CREATED"
	case Validated:
		return "VALIDATED"
	case Initialized:
		return "INITIALIZED"
	case Running:
		return "RUNNING"
	case ResultCollected:
		return "RESULT_COLLECTED"
	case Closed:
		return "CLOSED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TransitionError reports an attempt to move an instance out of order.
type TransitionError struct {
	Instance string
	From     State
	To       State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("component %s: illegal transition %s -> %s", e.Instance, e.From, e.To)
}

package runtime

import (
	"fmt"

	"github.com/vk/dqgrid/internal/job"
)

// Phase names the step of a component's life in which an error occurred.
type Phase string

const (
	PhaseCreate     Phase = "create"
	PhaseValidate   Phase = "validate"
	PhaseInitialize Phase = "initialize"
	PhaseRow        Phase = "row"
	PhaseResult     Phase = "result"
	PhaseClose      Phase = "close"
)

// ComponentError is a failure of one component instance.
type ComponentError struct {
	Component *job.Component
	Table     string
	Phase     Phase
	// RowID is the failing row for PhaseRow errors and -1 otherwise.
	RowID int64
	Err   error
}

func (e *ComponentError) Error() string {
	if e.Phase == PhaseRow {
		return fmt.Sprintf("component %s on table %q failed at row %d: %v", e.Component, e.Table, e.RowID, e.Err)
	}
	return fmt.Sprintf("component %s on table %q failed during %s: %v", e.Component, e.Table, e.Phase, e.Err)
}

func (e *ComponentError) Unwrap() error { return e.Err }

// fatal reports whether the error makes the run unsuccessful. Validation
// failures only drop the component and close failures happen after the
// results are final.
func (e *ComponentError) fatal() bool {
	return e.Phase != PhaseValidate && e.Phase != PhaseClose
}

// EscalationError ends a run whose listener escalated a component error.
type EscalationError struct {
	Cause *ComponentError
}

func (e *EscalationError) Error() string {
	return "run stopped after escalated error: " + e.Cause.Error()
}

func (e *EscalationError) Unwrap() error { return e.Cause }

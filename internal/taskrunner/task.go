package taskrunner

import (
	"context"
	"fmt"
	"time"
)

// Task is one unit of work. Listener is optional.
type Task struct {
	Name     string
	Fn       func(ctx context.Context) error
	Listener TaskListener
}

// TaskListener observes a task's execution. Callbacks run on the goroutine
// executing the task.
type TaskListener interface {
	OnBegin(t *Task)
	OnComplete(t *Task, elapsed time.Duration)
	OnError(t *Task, err error)
}

// ListenerFuncs adapts plain functions to TaskListener. Nil fields are
// skipped.
type ListenerFuncs struct {
	Begin    func(t *Task)
	Complete func(t *Task, elapsed time.Duration)
	Error    func(t *Task, err error)
}

func (l ListenerFuncs) OnBegin(t *Task) {
	if l.Begin != nil {
		l.Begin(t)
	}
}

func (l ListenerFuncs) OnComplete(t *Task, elapsed time.Duration) {
	if l.Complete != nil {
		l.Complete(t, elapsed)
	}
}

func (l ListenerFuncs) OnError(t *Task, err error) {
	if l.Error != nil {
		l.Error(t, err)
	}
}

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Task  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %q panicked: %v", e.Task, e.Value)
}

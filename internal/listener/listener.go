package listener

import (
	"context"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/job"
)

// Listener receives the events of a job run. Methods may be called from
// several goroutines at once.
type Listener interface {
	JobBegin(ctx context.Context, g *job.Graph)
	JobSuccess(ctx context.Context, g *job.Graph)
	JobFailed(ctx context.Context, g *job.Graph, err error)
	// RowProgress reports the number of rows pulled so far from a table.
	RowProgress(ctx context.Context, g *job.Graph, table string, rows int64)
	ComponentSuccess(ctx context.Context, c *job.Component, result component.Result)
	// ComponentError reports a component failure. row is nil outside of row
	// processing.
	ComponentError(ctx context.Context, c *job.Component, row column.Row, err error)
}

// Escalator is implemented by listeners that can stop a run. When Escalate
// returns true the run stops pulling rows and fails.
type Escalator interface {
	Escalate(c *job.Component, err error) bool
}

// Nop ignores every event. Embed it to implement only some methods.
type Nop struct{}

func (Nop) JobBegin(context.Context, *job.Graph)                               {}
func (Nop) JobSuccess(context.Context, *job.Graph)                             {}
func (Nop) JobFailed(context.Context, *job.Graph, error)                       {}
func (Nop) RowProgress(context.Context, *job.Graph, string, int64)             {}
func (Nop) ComponentSuccess(context.Context, *job.Component, component.Result) {}
func (Nop) ComponentError(context.Context, *job.Component, column.Row, error)  {}

// FailFast escalates every component error.
type FailFast struct{ Nop }

func (FailFast) Escalate(*job.Component, error) bool { return true }

// Multi fans events out to several listeners in order.
type Multi []Listener

func (m Multi) JobBegin(ctx context.Context, g *job.Graph) {
	for _, l := range m {
		l.JobBegin(ctx, g)
	}
}

func (m Multi) JobSuccess(ctx context.Context, g *job.Graph) {
	for _, l := range m {
		l.JobSuccess(ctx, g)
	}
}

func (m Multi) JobFailed(ctx context.Context, g *job.Graph, err error) {
	for _, l := range m {
		l.JobFailed(ctx, g, err)
	}
}

func (m Multi) RowProgress(ctx context.Context, g *job.Graph, table string, rows int64) {
	for _, l := range m {
		l.RowProgress(ctx, g, table, rows)
	}
}

func (m Multi) ComponentSuccess(ctx context.Context, c *job.Component, result component.Result) {
	for _, l := range m {
		l.ComponentSuccess(ctx, c, result)
	}
}

func (m Multi) ComponentError(ctx context.Context, c *job.Component, row column.Row, err error) {
	for _, l := range m {
		l.ComponentError(ctx, c, row, err)
	}
}

// Escalate is true when any member escalates.
func (m Multi) Escalate(c *job.Component, err error) bool {
	for _, l := range m {
		if e, ok := l.(Escalator); ok && e.Escalate(c, err) {
			return true
		}
	}
	return false
}

// ShouldEscalate asks l whether err must stop the run.
func ShouldEscalate(l Listener, c *job.Component, err error) bool {
	e, ok := l.(Escalator)
	return ok && e.Escalate(c, err)
}

package runtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/job"
	"github.com/vk/dqgrid/internal/taskrunner"
)

// rowRun is the state of one row while its consumers execute.
type rowRun struct {
	outcomes *job.OutcomeSet
	pending  []atomic.Int32

	mu      sync.Mutex
	current column.Row
}

func (rr *rowRun) snapshot() column.Row {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.current
}

func (rr *rowRun) derive(cols []*column.Column, values []any) {
	layer := make(map[*column.Column]any, len(cols))
	for i, c := range cols {
		layer[c] = values[i]
	}
	rr.mu.Lock()
	rr.current = column.Derive(rr.current, layer)
	rr.mu.Unlock()
}

// startRow dispatches the consumers of a fresh row that depend on nothing.
func (cr *chainRun) startRow(row column.Row) {
	rr := &rowRun{
		outcomes: job.NewOutcomeSet(),
		pending:  make([]atomic.Int32, len(cr.units)),
		current:  row,
	}
	for i, deps := range cr.deps {
		rr.pending[i].Store(int32(len(deps)))
	}
	for _, i := range cr.roots {
		cr.dispatch(rr, i)
	}
}

// dispatch runs consumer i for the row: serial consumers inline, the others
// through the task runner. The task listener records a failure before the
// consumer's dependents are released, so they never observe a half-failed
// component.
func (cr *chainRun) dispatch(rr *rowRun, i int) {
	u := cr.units[i]
	r := cr.run
	r.inflight.Add(1)
	t := &taskrunner.Task{
		Name: u.name(),
		Fn:   func(ctx context.Context) error { return cr.invoke(ctx, rr, i) },
		Listener: taskrunner.ListenerFuncs{
			Complete: func(*taskrunner.Task, time.Duration) { cr.complete(rr, i) },
			Error: func(_ *taskrunner.Task, err error) {
				r.fail(r.ctx, u, PhaseRow, rr.snapshot(), err)
				cr.complete(rr, i)
			},
		},
	}
	if u.serial {
		r.runner.Run(r.ctx, t)
		return
	}
	r.runner.Submit(r.ctx, t)
}

// invoke runs consumer i for the row. Skipping is not an error.
func (cr *chainRun) invoke(ctx context.Context, rr *rowRun, i int) error {
	u := cr.units[i]
	if !u.runnable() || ctx.Err() != nil {
		return nil
	}
	if req := u.comp.Requirement(); req != nil && !req.Satisfied(rr.outcomes) {
		return nil
	}
	row := rr.snapshot()
	for _, in := range u.virtualInputs {
		if _, ok := row.Value(in); !ok {
			// The producing transformer was skipped for this row.
			return nil
		}
	}
	return u.consume(ctx, rr, row)
}

// complete releases the consumers waiting on consumer i.
func (cr *chainRun) complete(rr *rowRun, i int) {
	defer cr.run.inflight.Done()
	for _, d := range cr.dependents[i] {
		if rr.pending[d].Add(-1) == 0 {
			cr.dispatch(rr, d)
		}
	}
}

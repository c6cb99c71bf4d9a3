package runtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/job"
	"github.com/vk/dqgrid/internal/lifecycle"
)

// unit is one instance of a component job bound to a table.
type unit struct {
	comp  *job.Component
	table string
	inst  *lifecycle.Instance

	serial bool
	mu     sync.Mutex
	failed atomic.Bool

	filter      component.Filter
	transformer component.Transformer
	analyzer    component.Analyzer
	explorer    component.Explorer

	outputs       []*column.Column
	virtualInputs []*column.Column
}

func newUnit(c *job.Component, table string) *unit {
	u := &unit{
		comp:    c,
		table:   table,
		serial:  !c.Descriptor().IsConcurrent(),
		outputs: c.Outputs(),
	}
	for _, in := range c.Inputs() {
		if in.IsVirtual() {
			u.virtualInputs = append(u.virtualInputs, in)
		}
	}
	return u
}

func (u *unit) name() string { return u.comp.String() + "@" + u.table }

// bind checks that the instance implements its kind's contract.
func (u *unit) bind(c component.Component) error {
	var ok bool
	switch u.comp.Kind() {
	case component.KindFilter:
		u.filter, ok = c.(component.Filter)
	case component.KindTransformer:
		u.transformer, ok = c.(component.Transformer)
	case component.KindAnalyzer:
		u.analyzer, ok = c.(component.Analyzer)
	case component.KindExplorer:
		u.explorer, ok = c.(component.Explorer)
	}
	if !ok {
		return fmt.Errorf("%T does not implement the %s contract", c, u.comp.Kind())
	}
	return nil
}

// runnable reports whether the unit is ready and has not failed.
func (u *unit) runnable() bool {
	return u.inst != nil && !u.failed.Load() && u.inst.State() == lifecycle.Running
}

// consume invokes the component for one row and applies its effect to the
// row's state. Panics are recovered by the task runner.
func (u *unit) consume(ctx context.Context, rr *rowRun, row column.Row) error {
	if u.serial {
		u.mu.Lock()
		defer u.mu.Unlock()
	}

	switch u.comp.Kind() {
	case component.KindFilter:
		category, err := u.filter.Categorize(ctx, row)
		if err != nil {
			return err
		}
		if !u.comp.Descriptor().HasCategory(category) {
			return fmt.Errorf("undeclared category %q", category)
		}
		rr.outcomes.Add(u.comp.Outcome(category))
	case component.KindTransformer:
		values, err := u.transformer.Transform(ctx, row)
		if err != nil {
			return err
		}
		if len(values) != len(u.outputs) {
			return fmt.Errorf("produced %d values for %d output columns", len(values), len(u.outputs))
		}
		rr.derive(u.outputs, values)
	case component.KindAnalyzer:
		return u.analyzer.Consume(ctx, row, row.DistinctCount())
	}
	return nil
}

// explore runs an explorer over the whole table.
func (u *unit) explore(ctx context.Context, ds component.Dataset) error {
	return u.explorer.Run(ctx, ds)
}

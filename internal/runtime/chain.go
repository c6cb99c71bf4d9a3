package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/compiler"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/vk/dqgrid/internal/job"
	"github.com/vk/dqgrid/internal/source"
	"github.com/vk/dqgrid/internal/taskrunner"
)

// chainRun executes one compiled chain against its source.
type chainRun struct {
	run   *run
	chain *compiler.Chain
	src   source.Source

	units      []*unit
	deps       [][]int
	dependents [][]int
	roots      []int
	explorers  []*unit
	rows       int64
}

func newChainRun(r *run, chain *compiler.Chain, src source.Source) *chainRun {
	cr := &chainRun{run: r, chain: chain, src: src}
	consumers := chain.Consumers()
	index := make(map[*job.Component]int, len(consumers))
	for i, c := range consumers {
		index[c] = i
		cr.units = append(cr.units, newUnit(c, chain.Table()))
	}
	cr.deps = make([][]int, len(consumers))
	cr.dependents = make([][]int, len(consumers))
	for i, c := range consumers {
		for _, p := range chain.Dependencies(c) {
			cr.deps[i] = append(cr.deps[i], index[p])
		}
		for _, d := range chain.Dependents(c) {
			cr.dependents[i] = append(cr.dependents[i], index[d])
		}
		if len(cr.deps[i]) == 0 {
			cr.roots = append(cr.roots, i)
		}
	}
	for _, e := range chain.Explorers() {
		cr.explorers = append(cr.explorers, newUnit(e, chain.Table()))
	}
	return cr
}

// allUnits lists consumers then explorers.
func (cr *chainRun) allUnits() []*unit {
	return append(append([]*unit(nil), cr.units...), cr.explorers...)
}

// process pulls every row of the source. It stops early, without error,
// when ctx ends.
func (cr *chainRun) process(ctx context.Context) error {
	table := cr.chain.Table()
	logger := ctxlog.FromContext(ctx).With("table", table)

	it, err := cr.src.Open(ctx)
	if err != nil {
		return fmt.Errorf("open source %q: %w", table, err)
	}
	defer it.Close()

	for _, u := range cr.explorers {
		cr.startExplorer(u)
	}

	logger.Debug("Pulling rows.", "consumers", len(cr.units))
	interval := cr.run.rt.progressInterval
	for ctx.Err() == nil {
		row, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("read %q after %d rows: %w", table, cr.rows, err)
		}
		cr.startRow(row)
		cr.rows++
		if interval > 0 && cr.rows%interval == 0 {
			cr.run.listener.RowProgress(ctx, cr.run.graph, table, cr.rows)
		}
	}
	if interval <= 0 || cr.rows%interval != 0 {
		cr.run.listener.RowProgress(ctx, cr.run.graph, table, cr.rows)
	}
	logger.Debug("Finished pulling rows.", "rows", cr.rows)
	return nil
}

// startExplorer hands an explorer to the task runner. Explorers read the
// whole table, so when the queue is full they get their own goroutine
// instead of running on the chain's puller.
func (cr *chainRun) startExplorer(u *unit) {
	if !u.runnable() {
		return
	}
	r := cr.run
	r.inflight.Add(1)
	t := &taskrunner.Task{
		Name: u.name(),
		Fn:   func(ctx context.Context) error { return u.explore(ctx, &dataset{src: cr.src}) },
		Listener: taskrunner.ListenerFuncs{
			Complete: func(*taskrunner.Task, time.Duration) { r.inflight.Done() },
			Error: func(_ *taskrunner.Task, err error) {
				defer r.inflight.Done()
				r.fail(r.ctx, u, PhaseRow, nil, err)
			},
		},
	}
	if err := r.runner.TrySubmit(r.ctx, t); err != nil {
		ctxlog.FromContext(r.ctx).Debug("Running explorer on its own goroutine.", "component", u.name(), "reason", err)
		go r.runner.Run(r.ctx, t)
	}
}

// dataset is the whole-table view handed to explorers.
type dataset struct {
	src source.Source
}

var _ component.Dataset = (*dataset)(nil)

func (d *dataset) Table() string             { return d.src.Table() }
func (d *dataset) Columns() []*column.Column { return d.src.Columns() }

func (d *dataset) Each(ctx context.Context, fn func(column.Row) error) error {
	it, err := d.src.Open(ctx)
	if err != nil {
		return err
	}
	defer it.Close()
	for {
		row, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

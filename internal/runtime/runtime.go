package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/compiler"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/vk/dqgrid/internal/job"
	"github.com/vk/dqgrid/internal/lifecycle"
	"github.com/vk/dqgrid/internal/listener"
	"github.com/vk/dqgrid/internal/source"
	"github.com/vk/dqgrid/internal/storage"
	"github.com/vk/dqgrid/internal/taskrunner"
	"golang.org/x/sync/errgroup"
)

// Runtime executes a compiled plan. A Runtime may be run several times;
// every run creates fresh component instances.
type Runtime struct {
	plan             *compiler.Plan
	sources          map[string]source.Source
	listener         listener.Listener
	workers          int
	queueSize        int
	runner           *taskrunner.Runner
	progressInterval int64
	storage          storage.Backend
}

// New prepares a runtime for plan.
func New(plan *compiler.Plan, opts ...Option) *Runtime {
	r := &Runtime{
		plan:             plan,
		sources:          make(map[string]source.Source),
		listener:         listener.Nop{},
		workers:          1,
		queueSize:        DefaultQueueSize,
		progressInterval: DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Process runs the plan to completion. The returned error is the run-level
// error, also available from the future; component errors are reported by
// the future only.
func (rt *Runtime) Process(ctx context.Context) (*ResultFuture, error) {
	f := rt.Start(ctx)
	<-f.Done()
	return f, f.Err()
}

// Start runs the plan in the background.
func (rt *Runtime) Start(ctx context.Context) *ResultFuture {
	f := newFuture(rt.plan.Graph())
	go func() {
		defer close(f.done)
		rt.execute(ctx, f)
	}()
	return f
}

// run is the state of one execution.
type run struct {
	rt       *Runtime
	graph    *job.Graph
	future   *ResultFuture
	listener listener.Listener
	runner   *taskrunner.Runner
	storage  storage.Backend
	manager  *lifecycle.Manager

	ctx      context.Context
	cancel   context.CancelCauseFunc
	inflight sync.WaitGroup
}

func (rt *Runtime) execute(ctx context.Context, f *ResultFuture) {
	g := rt.plan.Graph()
	ctx = ctxlog.With(ctx, "job", g.Name())
	logger := ctxlog.FromContext(ctx)

	r := &run{rt: rt, graph: g, future: f, listener: rt.listener, manager: lifecycle.NewManager()}

	chains := rt.plan.Chains()
	for _, ch := range chains {
		if rt.sources[ch.Table()] == nil {
			err := fmt.Errorf("no source supplied for table %q", ch.Table())
			f.setErr(err)
			r.listener.JobFailed(ctx, g, err)
			return
		}
	}

	r.runner = rt.runner
	if r.runner == nil {
		r.runner = taskrunner.New(rt.workers, rt.queueSize)
		defer r.runner.Shutdown()
	}
	r.storage = rt.storage
	if r.storage == nil {
		mem := storage.NewMemory()
		defer mem.Close()
		r.storage = mem
	}

	r.ctx, r.cancel = context.WithCancelCause(ctx)
	defer r.cancel(nil)

	logger.Info("Starting job run.", "chains", len(chains), "workers", r.runner.Workers())
	r.listener.JobBegin(ctx, g)

	chainRuns := make([]*chainRun, len(chains))
	for i, ch := range chains {
		chainRuns[i] = newChainRun(r, ch, rt.sources[ch.Table()])
		for _, u := range chainRuns[i].allUnits() {
			r.prepare(r.ctx, u)
		}
	}

	eg, egCtx := errgroup.WithContext(r.ctx)
	for _, cr := range chainRuns {
		eg.Go(func() error { return cr.process(egCtx) })
	}
	readErr := eg.Wait()
	r.inflight.Wait()

	switch cause := context.Cause(r.ctx); {
	case readErr != nil:
		f.setErr(readErr)
	case cause != nil:
		f.setErr(cause)
	}

	r.collect(ctx, chainRuns)
	closeErr := r.manager.CloseAll(ctx, func(inst *lifecycle.Instance, err error) {
		for _, cr := range chainRuns {
			for _, u := range cr.allUnits() {
				if u.inst == inst {
					r.fail(ctx, u, PhaseClose, nil, err)
				}
			}
		}
	})
	if closeErr != nil {
		logger.Debug("Some components failed to close.", "error", closeErr)
	}

	stats := r.runner.Stats()
	logger.Debug("Task runner finished the run.",
		"submitted", stats.Submitted,
		"caller_runs", stats.CallerRuns,
		"completed", stats.Completed,
		"failed", stats.Failed,
	)

	if f.IsSuccessful() {
		logger.Info("Job run finished.", "results", len(f.Results()))
		r.listener.JobSuccess(ctx, g)
		return
	}
	err := f.Err()
	if err == nil {
		err = fmt.Errorf("%d component errors", len(f.Errors()))
	}
	logger.Warn("Job run finished with failures.", "error", err)
	r.listener.JobFailed(ctx, g, err)
}

// prepare creates the unit's instance and takes it to RUNNING. Failures
// exclude the unit for every row.
func (r *run) prepare(ctx context.Context, u *unit) {
	c := u.comp
	d := c.Descriptor()
	logger := ctxlog.FromContext(ctx).With("component", c.String(), "table", u.table)

	instance, err := d.New(ctx, component.Provided{
		Name:    c.Name(),
		Table:   u.table,
		Inputs:  c.Inputs(),
		Outputs: c.Outputs(),
		Config:  c.Config(),
		Storage: r.storage,
		Logger:  logger,
	})
	if err == nil {
		err = u.bind(instance)
	}
	if err != nil {
		u.failed.Store(true)
		r.fail(ctx, u, PhaseCreate, nil, err)
		return
	}

	u.inst = lifecycle.NewInstance(u.name(), d, instance)
	r.manager.Track(u.inst)
	if err := u.inst.Validate(ctx); err != nil {
		r.fail(ctx, u, PhaseValidate, nil, err)
		return
	}
	if err := u.inst.Initialize(ctx); err != nil {
		r.fail(ctx, u, PhaseInitialize, nil, err)
		return
	}
	if err := u.inst.Start(); err != nil {
		r.fail(ctx, u, PhaseInitialize, nil, err)
		return
	}
	logger.Debug("Component ready.", "serial", u.serial)
}

// fail records a component error. Row errors may escalate and stop the run.
func (r *run) fail(ctx context.Context, u *unit, phase Phase, row column.Row, err error) {
	rowID := int64(-1)
	if row != nil {
		rowID = row.ID()
	}
	cerr := &ComponentError{Component: u.comp, Table: u.table, Phase: phase, RowID: rowID, Err: err}
	if phase != PhaseClose {
		u.failed.Store(true)
	}
	r.future.addError(cerr)

	level := slog.LevelError
	if phase == PhaseClose || phase == PhaseValidate {
		level = slog.LevelWarn
	}
	ctxlog.FromContext(ctx).Log(ctx, level, "Component failed.", "component", u.comp.String(), "table", u.table, "phase", phase, "row", rowID, "error", err)
	r.listener.ComponentError(ctx, u.comp, row, err)

	if phase == PhaseRow && listener.ShouldEscalate(r.listener, u.comp, err) {
		r.cancel(&EscalationError{Cause: cerr})
	}
}

// collect gathers results once every row is done and publishes them.
func (r *run) collect(ctx context.Context, chainRuns []*chainRun) {
	f := r.future
	var order []*job.Component
	perJob := make(map[*job.Component][]component.Result)

	for _, cr := range chainRuns {
		for _, u := range cr.allUnits() {
			if !u.runnable() {
				continue
			}
			_, hasResult := u.inst.Component().(component.Resulter)
			res, err := u.inst.CollectResult()
			if err != nil {
				r.fail(ctx, u, PhaseResult, nil, err)
				continue
			}
			if !hasResult {
				continue
			}
			f.setTableResult(u.comp, u.table, res)
			if _, seen := perJob[u.comp]; !seen {
				order = append(order, u.comp)
			}
			perJob[u.comp] = append(perJob[u.comp], res)
		}
	}

	for _, c := range order {
		if f.isFailed(c) {
			continue
		}
		var merged component.Result
		var err error
		for _, res := range perJob[c] {
			if merged, err = component.Merge(merged, res); err != nil {
				break
			}
		}
		if err != nil {
			f.addError(&ComponentError{Component: c, Phase: PhaseResult, RowID: -1, Err: fmt.Errorf("merge table results: %w", err)})
			r.listener.ComponentError(ctx, c, nil, err)
			continue
		}
		f.setResult(c, merged)
		r.listener.ComponentSuccess(ctx, c, merged)
	}
}

// IsEscalation reports whether err stopped a run through escalation.
func IsEscalation(err error) bool {
	var e *EscalationError
	return errors.As(err, &e)
}

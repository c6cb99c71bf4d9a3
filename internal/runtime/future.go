package runtime

import (
	"context"
	"sync"

	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/job"
)

// ResultFuture is the outcome of a run. Its accessors are meaningful once
// Done is closed; partial results stay available when components failed.
type ResultFuture struct {
	graph *job.Graph
	done  chan struct{}

	mu       sync.Mutex
	err      error
	errs     []*ComponentError
	failed   map[*job.Component]bool
	perTable map[*job.Component]map[string]component.Result
	merged   map[*job.Component]component.Result
}

func newFuture(g *job.Graph) *ResultFuture {
	return &ResultFuture{
		graph:    g,
		done:     make(chan struct{}),
		failed:   make(map[*job.Component]bool),
		perTable: make(map[*job.Component]map[string]component.Result),
		merged:   make(map[*job.Component]component.Result),
	}
}

// Done is closed when the run has finished, including closing components.
func (f *ResultFuture) Done() <-chan struct{} { return f.done }

// Wait blocks until the run finishes or ctx ends, and returns the run-level
// error.
func (f *ResultFuture) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err is the error that stopped the run, such as an unreadable source or an
// escalated component error. Component errors that did not stop the run are
// listed by Errors.
func (f *ResultFuture) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// IsSuccessful is true when the run completed and no component failed
// while creating, initializing, processing rows or producing its result.
func (f *ResultFuture) IsSuccessful() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false
	}
	for _, e := range f.errs {
		if e.fatal() {
			return false
		}
	}
	return true
}

// Errors lists component errors in the order they were recorded.
func (f *ResultFuture) Errors() []*ComponentError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*ComponentError(nil), f.errs...)
}

// Results maps every successful component with a result to that result.
// Results of components replicated over several tables are merged.
func (f *ResultFuture) Results() map[*job.Component]component.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[*job.Component]component.Result, len(f.merged))
	for c, r := range f.merged {
		out[c] = r
	}
	return out
}

// Result returns the result of one component.
func (f *ResultFuture) Result(c *job.Component) (component.Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.merged[c]
	return r, ok
}

// ResultByName looks a result up by component name.
func (f *ResultFuture) ResultByName(name string) (component.Result, bool) {
	c := f.graph.Component(name)
	if c == nil {
		return nil, false
	}
	return f.Result(c)
}

// ResultsFor returns the unmerged per-table results of a component,
// including tables whose instance succeeded while another failed.
func (f *ResultFuture) ResultsFor(c *job.Component) map[string]component.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]component.Result, len(f.perTable[c]))
	for t, r := range f.perTable[c] {
		out[t] = r
	}
	return out
}

func (f *ResultFuture) addError(e *ComponentError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, e)
	if e.Phase != PhaseClose {
		f.failed[e.Component] = true
	}
}

func (f *ResultFuture) isFailed(c *job.Component) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failed[c]
}

func (f *ResultFuture) setTableResult(c *job.Component, table string, r component.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.perTable[c] == nil {
		f.perTable[c] = make(map[string]component.Result)
	}
	f.perTable[c][table] = r
}

func (f *ResultFuture) setResult(c *job.Component, r component.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merged[c] = r
}

func (f *ResultFuture) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err == nil {
		f.err = err
	}
}

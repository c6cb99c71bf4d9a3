package component

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/storage"
)

// Component is one concrete, mutable component instance.
type Component any

// Result is the value an analyzer or explorer publishes after all rows.
type Result any

// Filter categorizes a row. The returned category must be one of the
// descriptor's declared categories.
type Filter interface {
	Categorize(ctx context.Context, row column.Row) (string, error)
}

// Transformer derives new values from a row. The returned slice is aligned
// with the job's output columns.
type Transformer interface {
	Transform(ctx context.Context, row column.Row) ([]any, error)
}

// Analyzer accumulates a result over rows. Consume may be called from
// several goroutines at once unless the descriptor is Serial, so
// implementations accumulate with internal synchronization and must not
// depend on row order.
type Analyzer interface {
	Consume(ctx context.Context, row column.Row, distinctCount int) error
	Resulter
}

// Explorer is a whole-set component that runs once over a dataset.
type Explorer interface {
	Run(ctx context.Context, ds Dataset) error
	Resulter
}

// Resulter exposes the final result of a component.
type Resulter interface {
	Result() (Result, error)
}

// Validator is implemented by components that check their configuration
// before any row is processed.
type Validator interface {
	Validate(ctx context.Context) error
}

// Initializer is implemented by components that acquire resources before
// running.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Closer is implemented by components holding resources that must be
// released after the run.
type Closer interface {
	Close(ctx context.Context) error
}

// Mergeable results combine associatively with results of the same
// component computed over other rows, partitions or tables.
type Mergeable interface {
	Merge(other Result) (Result, error)
}

// Dataset is the input of an explorer: an iterable view of one source table.
type Dataset interface {
	Table() string
	Columns() []*column.Column
	Each(ctx context.Context, fn func(column.Row) error) error
}

// Provided carries everything a factory may use to build an instance. It is
// scoped to a single job run.
type Provided struct {
	Name    string
	Table   string
	Inputs  []*column.Column
	Outputs []*column.Column
	Config  any
	Storage storage.Backend
	Logger  *slog.Logger
}

// Factory creates a fresh component instance for one run.
type Factory func(ctx context.Context, p Provided) (Component, error)

// Merge combines two results. Either side may be nil.
func Merge(a, b Result) (Result, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}
	m, ok := a.(Mergeable)
	if !ok {
		return nil, &NotMergeableError{Result: a}
	}
	return m.Merge(b)
}

// NotMergeableError is returned when results that need merging do not
// implement Mergeable.
type NotMergeableError struct {
	Result Result
}

func (e *NotMergeableError) Error() string {
	return fmt.Sprintf("result of type %T is not mergeable", e.Result)
}

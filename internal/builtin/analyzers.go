package builtin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/storage"
	"github.com/zclconf/go-cty/cty"
)

// RowCount counts rows, weighted by their distinct count.
var RowCount = &component.Descriptor{
	Name:        "row_count",
	Kind:        component.KindAnalyzer,
	Description: "Counts rows.",
	New: func(context.Context, component.Provided) (component.Component, error) {
		return &rowCount{}, nil
	},
}

type rowCount struct {
	n atomic.Int64
}

func (a *rowCount) Consume(_ context.Context, _ column.Row, distinctCount int) error {
	a.n.Add(int64(distinctCount))
	return nil
}

func (a *rowCount) Result() (component.Result, error) { return Count(a.n.Load()), nil }

// NullCount counts rows where the input column is null or absent.
var NullCount = &component.Descriptor{
	Name:        "null_count",
	Kind:        component.KindAnalyzer,
	Description: "Counts null values of a column.",
	MinInputs:   1,
	MaxInputs:   1,
	New: func(_ context.Context, p component.Provided) (component.Component, error) {
		return &nullCount{col: p.Inputs[0]}, nil
	},
}

type nullCount struct {
	col *column.Column
	n   atomic.Int64
}

func (a *nullCount) Consume(_ context.Context, row column.Row, distinctCount int) error {
	if v, _ := row.Value(a.col); v == nil {
		a.n.Add(int64(distinctCount))
	}
	return nil
}

func (a *nullCount) Result() (component.Result, error) { return Count(a.n.Load()), nil }

// Sum adds up a number column. A row standing for several source records
// contributes its value once per record.
var Sum = &component.Descriptor{
	Name:        "sum",
	Kind:        component.KindAnalyzer,
	Description: "Sums a number column.",
	MinInputs:   1,
	MaxInputs:   1,
	InputType:   cty.Number,
	New: func(_ context.Context, p component.Provided) (component.Component, error) {
		return &sum{col: p.Inputs[0]}, nil
	},
}

type sum struct {
	col   *column.Column
	mu    sync.Mutex
	total float64
}

func (a *sum) Consume(_ context.Context, row column.Row, distinctCount int) error {
	v, _ := row.Value(a.col)
	if v == nil {
		return nil
	}
	n, err := toFloat(v)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.total += n * float64(distinctCount)
	a.mu.Unlock()
	return nil
}

func (a *sum) Result() (component.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return SumResult(a.total), nil
}

// NullKey is the distribution key of null values.
const NullKey = "<null>"

// ValueDistribution counts occurrences of each value in a storage
// collection, so large distributions can live on disk.
var ValueDistribution = &component.Descriptor{
	Name:        "value_distribution",
	Kind:        component.KindAnalyzer,
	Description: "Counts the occurrences of each distinct value.",
	MinInputs:   1,
	MaxInputs:   1,
	InitializeHooks: []component.Hook{{
		Name: "log_backend",
		Fn: func(_ context.Context, c component.Component) error {
			a := c.(*valueDistribution)
			a.logger.Debug("Value distribution uses storage backend.", "backend", fmt.Sprintf("%T", a.backend))
			return nil
		},
	}},
	New: func(_ context.Context, p component.Provided) (component.Component, error) {
		logger := p.Logger
		if logger == nil {
			logger = slog.Default()
		}
		return &valueDistribution{name: p.Name + "@" + p.Table, col: p.Inputs[0], backend: p.Storage, logger: logger}, nil
	},
}

type valueDistribution struct {
	name    string
	col     *column.Column
	backend storage.Backend
	logger  *slog.Logger
	coll    storage.Collection
}

func (a *valueDistribution) Validate(context.Context) error {
	if a.backend == nil {
		return fmt.Errorf("no storage backend provided")
	}
	return nil
}

func (a *valueDistribution) Initialize(ctx context.Context) error {
	coll, err := a.backend.Create(ctx, a.name)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	a.coll = coll
	return nil
}

func (a *valueDistribution) Consume(ctx context.Context, row column.Row, distinctCount int) error {
	key := NullKey
	if v, _ := row.Value(a.col); v != nil {
		key = fmt.Sprint(v)
	}
	return a.coll.Insert(ctx, key, int64(distinctCount))
}

func (a *valueDistribution) Result() (component.Result, error) {
	snap, err := storage.Snapshot(context.Background(), a.coll)
	if err != nil {
		return nil, err
	}
	return Distribution(snap), nil
}

func (a *valueDistribution) Close(ctx context.Context) error {
	if a.coll == nil {
		return nil
	}
	return a.coll.Clear(ctx)
}

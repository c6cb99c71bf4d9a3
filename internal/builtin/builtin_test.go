package builtin

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/compiler"
	"github.com/vk/dqgrid/internal/job"
	"github.com/vk/dqgrid/internal/registry"
	"github.com/vk/dqgrid/internal/runtime"
	"github.com/vk/dqgrid/internal/source"
	"github.com/vk/dqgrid/internal/storage"
	"github.com/zclconf/go-cty/cty"
)

func process(t *testing.T, b *job.Builder, opts ...runtime.Option) *runtime.ResultFuture {
	t.Helper()
	g, err := b.Build()
	require.NoError(t, err)
	plan, err := compiler.Compile(context.Background(), g)
	require.NoError(t, err)
	fut, err := runtime.New(plan, opts...).Process(context.Background())
	require.NoError(t, err)
	return fut
}

func ptr(f float64) *float64 { return &f }

func TestModule_RegistersValidCatalog(t *testing.T) {
	r := registry.Load(Module{})
	require.NoError(t, r.Validate(context.Background()))
	assert.Equal(t, []string{
		"concat", "not_null", "null_count", "number_range", "row_count",
		"sum", "table_summary", "uppercase", "value_distribution",
	}, r.Names())
}

func TestNullCountSumRowCount(t *testing.T) {
	amount := column.NewPhysical("orders", "amount", cty.Number)
	src := source.NewMemory("orders", amount).Append(10.0).Append(nil).Append(20.0)

	b := job.NewBuilder("orders")
	b.AddTable("orders", amount)
	nulls := b.Add("nulls", NullCount, job.WithInputs(amount))
	total := b.Add("total", Sum, job.WithInputs(amount))
	rows := b.Add("rows", RowCount)

	for _, workers := range []int{1, 4} {
		fut := process(t, b, runtime.WithSources(src), runtime.WithWorkers(workers))
		require.True(t, fut.IsSuccessful())
		r, _ := fut.Result(nulls)
		assert.Equal(t, Count(1), r)
		r, _ = fut.Result(total)
		assert.Equal(t, SumResult(30), r)
		r, _ = fut.Result(rows)
		assert.Equal(t, Count(3), r)
	}
}

func TestFiltersGateAnalyzers(t *testing.T) {
	age := column.NewPhysical("people", "age", cty.Number)
	src := source.NewMemory("people", age).Append(5.0).Append(30.0).Append(nil).Append(130.0).AppendCounted(2, 40.0)

	b := job.NewBuilder("ages")
	b.AddTable("people", age)
	rng := b.Add("plausible", NumberRange, job.WithInputs(age), job.WithConfig(&RangeConfig{Min: ptr(18), Max: ptr(120)}))
	valid := b.Add("valid", RowCount, job.WithTables("people"), job.WithRequirement(job.Require(rng.Outcome(Valid))))
	invalid := b.Add("invalid", RowCount, job.WithTables("people"), job.WithRequirement(job.Require(rng.Outcome(Invalid))))
	null := b.Add("null", RowCount, job.WithTables("people"), job.WithRequirement(job.Require(rng.Outcome(Null))))

	fut := process(t, b, runtime.WithSources(src), runtime.WithWorkers(3))
	require.True(t, fut.IsSuccessful(), "%v", fut.Errors())
	r, _ := fut.Result(valid)
	assert.Equal(t, Count(3), r)
	r, _ = fut.Result(invalid)
	assert.Equal(t, Count(2), r)
	r, _ = fut.Result(null)
	assert.Equal(t, Count(1), r)
}

func TestNumberRange_RejectsInvertedBounds(t *testing.T) {
	age := column.NewPhysical("people", "age", cty.Number)
	b := job.NewBuilder("bad")
	b.AddTable("people", age)
	b.Add("inverted", NumberRange, job.WithInputs(age), job.WithConfig(&RangeConfig{Min: ptr(10), Max: ptr(1)}))

	fut := process(t, b, runtime.WithSources(source.NewMemory("people", age).Append(3.0)))
	require.Len(t, fut.Errors(), 1)
	assert.Equal(t, runtime.PhaseValidate, fut.Errors()[0].Phase)
	assert.Contains(t, fut.Errors()[0].Error(), "min 10 exceeds max 1")
}

func TestTransformersFeedAnalyzers(t *testing.T) {
	first := column.NewPhysical("people", "first", cty.String)
	last := column.NewPhysical("people", "last", cty.String)
	src := source.NewMemory("people", first, last).
		Append("ada", "lovelace").
		Append("alan", nil).
		Append(nil, "hopper")

	b := job.NewBuilder("names")
	b.AddTable("people", first, last)
	present := b.Add("has_first", NotNull, job.WithInputs(first))
	up := b.Add("upper_first", Uppercase, job.WithInputs(first), job.WithRequirement(job.Require(present.Outcome(Valid))))
	full := b.Add("full", Concat, job.WithInputs(up.Output("upper"), last), job.WithConfig(&ConcatConfig{Separator: " "}))
	dist := b.Add("names", ValueDistribution, job.WithInputs(full.Output("concat")))

	fut := process(t, b, runtime.WithSources(src), runtime.WithWorkers(2))
	require.True(t, fut.IsSuccessful(), "%v", fut.Errors())
	r, ok := fut.Result(dist)
	require.True(t, ok)
	assert.Equal(t, Distribution{"ADA lovelace": 1, "ALAN": 1}, r)
}

func TestValueDistribution_SQLiteBackend(t *testing.T) {
	backend, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "dist.db"))
	require.NoError(t, err)
	defer backend.Close()

	color := column.NewPhysical("cars", "color", cty.String)
	src := source.NewMemory("cars", color).Append("red").AppendCounted(3, "blue").Append(nil).Append("red")

	b := job.NewBuilder("colors")
	b.AddTable("cars", color)
	dist := b.Add("colors", ValueDistribution, job.WithInputs(color))

	fut := process(t, b, runtime.WithSources(src), runtime.WithWorkers(4), runtime.WithStorage(backend))
	require.True(t, fut.IsSuccessful(), "%v", fut.Errors())
	r, _ := fut.Result(dist)
	assert.Equal(t, Distribution{"red": 2, "blue": 3, NullKey: 1}, r)
}

func TestTableSummary_MergesAcrossTables(t *testing.T) {
	a := column.NewPhysical("left", "a", cty.Number)
	c := column.NewPhysical("right", "c", cty.String)

	b := job.NewBuilder("summary")
	b.AddTable("left", a)
	b.AddTable("right", c)
	sum := b.Add("summary", TableSummary)

	fut := process(t, b, runtime.WithSources(
		source.NewMemory("left", a).Append(1.0).Append(nil),
		source.NewMemory("right", c).AppendCounted(4, nil),
	))
	require.True(t, fut.IsSuccessful(), "%v", fut.Errors())
	r, ok := fut.Result(sum)
	require.True(t, ok)
	s := r.(Summary)
	assert.Equal(t, []string{"left", "right"}, s.Tables)
	assert.Equal(t, int64(6), s.Rows)
	assert.Equal(t, map[string]int64{"left.a": 1, "right.c": 4}, s.Nulls)
}

func TestResultMergeTypeMismatch(t *testing.T) {
	_, err := Count(1).Merge(SumResult(1))
	assert.Error(t, err)
	_, err = Distribution{}.Merge(Count(1))
	assert.Error(t, err)
	_, err = SumResult(1).Merge(Count(1))
	assert.Error(t, err)
	_, err = Summary{}.Merge(Count(1))
	assert.Error(t, err)
}

package compiler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/job"
	"github.com/zclconf/go-cty/cty"
)

func newFactory() component.Factory {
	return func(context.Context, component.Provided) (component.Component, error) { return struct{}{}, nil }
}

var (
	filterDesc = &component.Descriptor{Name: "check", Kind: component.KindFilter, Categories: []string{"VALID", "INVALID"}, New: newFactory()}
	transDesc  = &component.Descriptor{Name: "upper", Kind: component.KindTransformer, Outputs: []component.OutputSpec{{Name: "out", Type: cty.String}}, New: newFactory()}
	analyzer   = &component.Descriptor{Name: "count", Kind: component.KindAnalyzer, New: newFactory()}
	explorer   = &component.Descriptor{Name: "summary", Kind: component.KindExplorer, New: newFactory()}
)

func positions(order []*job.Component) map[string]int {
	pos := make(map[string]int, len(order))
	for i, c := range order {
		pos[c.Name()] = i
	}
	return pos
}

func TestCompile_OrderRespectsDependencies(t *testing.T) {
	ctx := context.Background()
	name := column.NewPhysical("people", "name", cty.String)
	age := column.NewPhysical("people", "age", cty.Number)

	b := job.NewBuilder("people-job")
	b.AddTable("people", name, age)
	up := b.Add("up", transDesc, job.WithInputs(name))
	valid := b.Add("valid", filterDesc, job.WithInputs(up.Output("out")))
	b.Add("count_valid", analyzer, job.WithTables("people"), job.WithRequirement(job.Require(valid.Outcome("VALID"))))
	b.Add("unrelated", analyzer, job.WithInputs(age))
	b.Add("summary", explorer, job.WithTables("people"))
	g, err := b.Build()
	require.NoError(t, err)

	plan, err := Compile(ctx, g)
	require.NoError(t, err)

	pos := positions(plan.Order())
	assert.Less(t, pos["up"], pos["valid"])
	assert.Less(t, pos["valid"], pos["count_valid"])
	assert.Len(t, plan.Order(), 5)

	chain := plan.Chain("people")
	require.NotNil(t, chain)
	names := func(cs []*job.Component) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Name())
		}
		return out
	}
	assert.Equal(t, []string{"up", "valid", "count_valid", "unrelated"}, names(chain.Consumers()))
	assert.Equal(t, []string{"summary"}, names(chain.Explorers()))
	assert.Equal(t, []string{"up", "unrelated"}, names(chain.Roots()))
	assert.Equal(t, []string{"valid"}, names(chain.Dependencies(g.Component("count_valid"))))
	assert.Equal(t, []string{"count_valid"}, names(chain.Dependents(g.Component("valid"))))
}

func TestCompile_DeclarationOrderBreaksTies(t *testing.T) {
	a := column.NewPhysical("t", "a", cty.Number)
	b := job.NewBuilder("ties")
	b.AddTable("t", a)
	for _, n := range []string{"z", "m", "a"} {
		b.Add(n, analyzer, job.WithInputs(a))
	}
	g, err := b.Build()
	require.NoError(t, err)

	plan, err := Compile(context.Background(), g)
	require.NoError(t, err)
	var got []string
	for _, c := range plan.Order() {
		got = append(got, c.Name())
	}
	assert.Equal(t, []string{"z", "m", "a"}, got)
}

func TestCompile_ReplicatedJobsJoinEveryChain(t *testing.T) {
	x := column.NewPhysical("left", "x", cty.Number)
	y := column.NewPhysical("right", "y", cty.Number)
	b := job.NewBuilder("multi")
	b.AddTable("left", x)
	b.AddTable("right", y)
	b.AddTable("idle")
	b.Add("rows", analyzer)
	b.Add("only_left", analyzer, job.WithInputs(x))
	g, err := b.Build()
	require.NoError(t, err)

	plan, err := Compile(context.Background(), g)
	require.NoError(t, err)

	require.Len(t, plan.Chains(), 3)
	assert.Len(t, plan.Chain("left").Consumers(), 2)
	assert.Len(t, plan.Chain("right").Consumers(), 1)
	assert.Len(t, plan.Chain("idle").Consumers(), 1)
	assert.Same(t, g.Component("rows"), plan.Chain("right").Consumers()[0])
}

func TestCompile_RejectsCycles(t *testing.T) {
	a := column.NewPhysical("t", "a", cty.Number)
	b := job.NewBuilder("cyclic")
	b.AddTable("t", a)

	// f1 requires f2.VALID and f2 requires f1.VALID.
	var f2Valid job.Outcome
	f1 := b.Add("f1", filterDesc, job.WithInputs(a), job.WithRequirement(lazyRequire(func() job.Outcome { return f2Valid })))
	f2 := b.Add("f2", filterDesc, job.WithInputs(a), job.WithRequirement(job.Require(f1.Outcome("VALID"))))
	f2Valid = f2.Outcome("VALID")
	g, err := b.Build()
	require.NoError(t, err)

	_, err = Compile(context.Background(), g)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCyclicRequirement))

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, CyclicRequirement, cerr.Kind)
	assert.Equal(t, []string{"f1", "f2", "f1"}, cerr.Cycle)
	assert.Contains(t, err.Error(), "f1 -> f2 -> f1")
}

func TestCompile_RejectsSelfRequirement(t *testing.T) {
	a := column.NewPhysical("t", "a", cty.Number)
	b := job.NewBuilder("self")
	b.AddTable("t", a)

	var self job.Outcome
	f := b.Add("f", filterDesc, job.WithInputs(a), job.WithRequirement(lazyRequire(func() job.Outcome { return self })))
	self = f.Outcome("VALID")
	g, err := b.Build()
	require.NoError(t, err)

	_, err = Compile(context.Background(), g)
	assert.ErrorIs(t, err, ErrCyclicRequirement)
}

// lazyRequire resolves its outcome when asked, which lets tests build
// requirement cycles with the forward-only builder.
type lazyRequire func() job.Outcome

func (l lazyRequire) Satisfied(s *job.OutcomeSet) bool { return s.Contains(l()) }
func (l lazyRequire) Outcomes() []job.Outcome          { return []job.Outcome{l()} }
func (l lazyRequire) String() string                   { return l().String() }

func TestCompile_ConfigurationErrors(t *testing.T) {
	a := column.NewPhysical("t", "a", cty.Number)
	other := column.NewPhysical("u", "b", cty.Number)
	undeclared := column.NewPhysical("ghost", "c", cty.Number)
	orphan := column.NewVirtual("t", "orphan", cty.String)

	tests := []struct {
		name  string
		build func(b *job.Builder)
		kind  ErrorKind
		msg   string
	}{
		{
			name:  "undeclared physical column",
			build: func(b *job.Builder) { b.Add("c", analyzer, job.WithInputs(undeclared)) },
			kind:  MissingInput,
			msg:   "ghost.c",
		},
		{
			name:  "virtual column without producer",
			build: func(b *job.Builder) { b.Add("c", analyzer, job.WithInputs(orphan)) },
			kind:  MissingInput,
			msg:   "not produced",
		},
		{
			name:  "inputs from two tables",
			build: func(b *job.Builder) { b.Add("c", analyzer, job.WithInputs(a, other)) },
			kind:  CrossTable,
			msg:   "different tables",
		},
		{
			name:  "unknown explicit table",
			build: func(b *job.Builder) { b.Add("c", analyzer, job.WithTables("nope")) },
			kind:  MissingTable,
			msg:   `"nope"`,
		},
		{
			name: "undeclared category",
			build: func(b *job.Builder) {
				f := b.Add("f", filterDesc, job.WithInputs(a))
				b.Add("c", analyzer, job.WithInputs(a), job.WithRequirement(job.Require(f.Outcome("MAYBE"))))
			},
			kind: UnknownOutcome,
			msg:  `no category "MAYBE"`,
		},
		{
			name: "outcome of a non-filter",
			build: func(b *job.Builder) {
				x := b.Add("x", analyzer, job.WithInputs(a))
				b.Add("c", analyzer, job.WithInputs(a), job.WithRequirement(job.Require(x.Outcome("VALID"))))
			},
			kind: UnknownOutcome,
			msg:  "not a filter",
		},
		{
			name: "outcome from another table",
			build: func(b *job.Builder) {
				f := b.Add("f", filterDesc, job.WithInputs(other))
				b.Add("c", analyzer, job.WithInputs(a), job.WithRequirement(job.Require(f.Outcome("VALID"))))
			},
			kind: CrossTable,
			msg:  `not computed for table "t"`,
		},
		{
			name: "explorer with requirement",
			build: func(b *job.Builder) {
				f := b.Add("f", filterDesc, job.WithInputs(a))
				b.Add("e", explorer, job.WithTables("t"), job.WithRequirement(job.Require(f.Outcome("VALID"))))
			},
			kind: InvalidRequirement,
			msg:  "explorers",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := job.NewBuilder("bad")
			b.AddTable("t", a)
			b.AddTable("u", other)
			tc.build(b)
			g, err := b.Build()
			require.NoError(t, err)

			_, err = Compile(context.Background(), g)
			require.Error(t, err)
			var cerr *Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.kind, cerr.Kind)
			assert.Contains(t, err.Error(), tc.msg)
			assert.False(t, errors.Is(err, ErrCyclicRequirement))
		})
	}
}

package job

import (
	"errors"
	"fmt"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
)

// Builder assembles a Graph. Problems are collected and reported by Build.
type Builder struct {
	name       string
	tables     []Table
	components []*Component
	names      map[string]struct{}
	errs       []error
}

// NewBuilder starts an empty graph.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, names: make(map[string]struct{})}
}

// AddTable declares a source table and its physical columns.
func (b *Builder) AddTable(name string, cols ...*column.Column) *Builder {
	for _, t := range b.tables {
		if t.Name == name {
			b.errs = append(b.errs, fmt.Errorf("table %q declared twice", name))
			return b
		}
	}
	for _, c := range cols {
		if c.Table() != name || c.IsVirtual() {
			b.errs = append(b.errs, fmt.Errorf("column %s does not belong to table %q", c, name))
		}
	}
	b.tables = append(b.tables, Table{Name: name, Columns: append([]*column.Column(nil), cols...)})
	return b
}

// Option configures a component job.
type Option func(*Component)

// WithInputs sets the input columns.
func WithInputs(cols ...*column.Column) Option {
	return func(c *Component) { c.inputs = append(c.inputs, cols...) }
}

// WithRequirement gates the component on an outcome requirement.
func WithRequirement(r Requirement) Option {
	return func(c *Component) { c.requirement = r }
}

// WithTables replicates a component without inputs over the named tables.
func WithTables(tables ...string) Option {
	return func(c *Component) { c.tables = append(c.tables, tables...) }
}

// WithConfig attaches the decoded configuration value.
func WithConfig(cfg any) Option {
	return func(c *Component) { c.config = cfg }
}

// Add declares a component job. Output columns of transformers are created
// immediately so that later components can use them as inputs.
func (b *Builder) Add(name string, d *component.Descriptor, opts ...Option) *Component {
	c := &Component{index: len(b.components), name: name, descriptor: d}
	for _, opt := range opts {
		opt(c)
	}
	b.components = append(b.components, c)

	if d == nil {
		b.errs = append(b.errs, fmt.Errorf("component %q has no descriptor", name))
		c.descriptor = &component.Descriptor{Name: "<missing>"}
		return c
	}
	if err := d.Check(); err != nil {
		b.errs = append(b.errs, fmt.Errorf("component %q: %w", name, err))
	}
	if _, dup := b.names[name]; dup || name == "" {
		b.errs = append(b.errs, fmt.Errorf("component name %q is empty or not unique", name))
	}
	b.names[name] = struct{}{}

	if n := len(c.inputs); n < d.MinInputs || (d.MaxInputs > 0 && n > d.MaxInputs) {
		b.errs = append(b.errs, fmt.Errorf("component %q: %s accepts %s input columns, got %d", name, d.Name, arity(d), n))
	}
	for _, in := range c.inputs {
		if in == nil {
			b.errs = append(b.errs, fmt.Errorf("component %q: nil input column", name))
			continue
		}
		if !d.AcceptsType(in.DataType()) {
			b.errs = append(b.errs, fmt.Errorf("component %q: input %s has type %s, %s expects %s",
				name, in, in.TypeName(), d.Name, d.InputType.FriendlyName()))
		}
	}

	if d.Kind == component.KindTransformer && len(d.Outputs) > 0 {
		table := ""
		switch {
		case len(c.inputs) > 0 && c.inputs[0] != nil:
			table = c.inputs[0].Table()
		case len(c.tables) == 1:
			table = c.tables[0]
		default:
			b.errs = append(b.errs, fmt.Errorf("transformer %q needs inputs or exactly one table to own its output columns", name))
		}
		for _, spec := range d.Outputs {
			c.outputs = append(c.outputs, column.NewVirtual(table, spec.Name, spec.Type))
		}
	}
	return c
}

// Build returns the graph or every problem found while building it.
func (b *Builder) Build() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("invalid job %q: %w", b.name, errors.Join(b.errs...))
	}
	return &Graph{
		name:       b.name,
		tables:     append([]Table(nil), b.tables...),
		components: append([]*Component(nil), b.components...),
	}, nil
}

func arity(d *component.Descriptor) string {
	if d.MaxInputs == 0 {
		return fmt.Sprintf("at least %d", d.MinInputs)
	}
	if d.MinInputs == d.MaxInputs {
		return fmt.Sprintf("exactly %d", d.MinInputs)
	}
	return fmt.Sprintf("%d to %d", d.MinInputs, d.MaxInputs)
}

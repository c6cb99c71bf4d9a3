package job

import (
	"github.com/vk/dqgrid/internal/column"
)

// Table is a source table and its physical columns.
type Table struct {
	Name    string
	Columns []*column.Column
}

// Column returns the column with the given name.
func (t Table) Column(name string) *column.Column {
	for _, c := range t.Columns {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// Graph is the immutable description of a job.
type Graph struct {
	name       string
	tables     []Table
	components []*Component
}

func (g *Graph) Name() string { return g.name }

// Tables returns the source tables in declaration order.
func (g *Graph) Tables() []Table { return append([]Table(nil), g.tables...) }

// Table looks up a source table.
func (g *Graph) Table(name string) (Table, bool) {
	for _, t := range g.tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Components returns the component jobs in declaration order.
func (g *Graph) Components() []*Component {
	return append([]*Component(nil), g.components...)
}

// Component looks up a component job by name.
func (g *Graph) Component(name string) *Component {
	for _, c := range g.components {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Producer returns the transformer that produces a virtual column.
func (g *Graph) Producer(col *column.Column) *Component {
	if col == nil || !col.IsVirtual() {
		return nil
	}
	for _, c := range g.components {
		for _, out := range c.outputs {
			if out == col {
				return c
			}
		}
	}
	return nil
}

// HasPhysical reports whether a physical column belongs to a declared table.
func (g *Graph) HasPhysical(col *column.Column) bool {
	t, ok := g.Table(col.Table())
	if !ok {
		return false
	}
	for _, c := range t.Columns {
		if c.Key() == col.Key() {
			return true
		}
	}
	return false
}

// TablesOf resolves the source tables a component runs against: the table
// of its inputs, else its explicit tables, else every table of the graph.
func (g *Graph) TablesOf(c *Component) []string {
	if len(c.inputs) > 0 {
		return []string{c.inputs[0].Table()}
	}
	if len(c.tables) > 0 {
		return c.ExplicitTables()
	}
	names := make([]string, len(g.tables))
	for i, t := range g.tables {
		names[i] = t.Name
	}
	return names
}

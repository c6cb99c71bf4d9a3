package job

import (
	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
)

// Component is a node of the job graph: a descriptor plus the columns it
// reads, the columns it produces, and an optional requirement.
type Component struct {
	index       int
	name        string
	descriptor  *component.Descriptor
	inputs      []*column.Column
	outputs     []*column.Column
	requirement Requirement
	tables      []string
	config      any
}

// Index is the declaration order of the component in its graph.
func (c *Component) Index() int { return c.index }

func (c *Component) Name() string                      { return c.name }
func (c *Component) Descriptor() *component.Descriptor { return c.descriptor }
func (c *Component) Kind() component.Kind              { return c.descriptor.Kind }
func (c *Component) Requirement() Requirement          { return c.requirement }
func (c *Component) Config() any                       { return c.config }

// Inputs returns the input columns in declaration order.
func (c *Component) Inputs() []*column.Column { return append([]*column.Column(nil), c.inputs...) }

// Outputs returns the virtual columns produced by a transformer.
func (c *Component) Outputs() []*column.Column { return append([]*column.Column(nil), c.outputs...) }

// Output returns the produced column with the given declared name.
func (c *Component) Output(name string) *column.Column {
	for i, spec := range c.descriptor.Outputs {
		if spec.Name == name && i < len(c.outputs) {
			return c.outputs[i]
		}
	}
	return nil
}

// ExplicitTables are the tables a component without inputs is replicated over.
func (c *Component) ExplicitTables() []string { return append([]string(nil), c.tables...) }

// Outcome builds the outcome of this filter for the given category.
func (c *Component) Outcome(category string) Outcome {
	return Outcome{Filter: c, Category: category}
}

func (c *Component) String() string { return c.descriptor.Name + "." + c.name }

package compiler

import (
	"github.com/vk/dqgrid/internal/job"
)

// Plan is the compiled, immutable form of a job graph.
type Plan struct {
	graph  *job.Graph
	order  []*job.Component
	chains []*Chain
}

func (p *Plan) Graph() *job.Graph { return p.graph }

// Order lists every component in a valid execution order.
func (p *Plan) Order() []*job.Component { return append([]*job.Component(nil), p.order...) }

// Chains returns one chain per table that has work, in table declaration
// order.
func (p *Plan) Chains() []*Chain { return append([]*Chain(nil), p.chains...) }

// Chain returns the chain of a table, or nil.
func (p *Plan) Chain(table string) *Chain {
	for _, c := range p.chains {
		if c.table == table {
			return c
		}
	}
	return nil
}

// Chain is the work attached to one source table: the row-level consumers
// in execution order and the explorers that see the whole table.
type Chain struct {
	table      string
	consumers  []*job.Component
	explorers  []*job.Component
	deps       map[*job.Component][]*job.Component
	dependents map[*job.Component][]*job.Component
}

func (c *Chain) Table() string { return c.table }

// Consumers returns the row-level components in execution order.
func (c *Chain) Consumers() []*job.Component {
	return append([]*job.Component(nil), c.consumers...)
}

func (c *Chain) Explorers() []*job.Component {
	return append([]*job.Component(nil), c.explorers...)
}

// Dependencies returns the consumers that must finish for a row before comp
// may run on it.
func (c *Chain) Dependencies(comp *job.Component) []*job.Component {
	return c.deps[comp]
}

// Dependents returns the consumers waiting on comp.
func (c *Chain) Dependents(comp *job.Component) []*job.Component {
	return c.dependents[comp]
}

// Roots returns the consumers without dependencies.
func (c *Chain) Roots() []*job.Component {
	var roots []*job.Component
	for _, comp := range c.consumers {
		if len(c.deps[comp]) == 0 {
			roots = append(roots, comp)
		}
	}
	return roots
}

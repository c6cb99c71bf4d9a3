package compiler

import (
	"context"
	"errors"
	"slices"

	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/vk/dqgrid/internal/dag"
	"github.com/vk/dqgrid/internal/job"
)

// Compile validates g and builds its execution plan.
func Compile(ctx context.Context, g *job.Graph) (*Plan, error) {
	logger := ctxlog.FromContext(ctx).With("job", g.Name())

	if err := validate(g); err != nil {
		return nil, err
	}

	d := dag.New()
	for _, c := range g.Components() {
		d.AddNode(c.Name())
	}
	for _, c := range g.Components() {
		for _, pred := range predecessors(g, c) {
			if err := d.AddEdge(pred.Name(), c.Name()); err != nil {
				return nil, cycleError(err)
			}
		}
	}

	ids, err := d.TopologicalSort()
	if err != nil {
		return nil, cycleError(err)
	}
	order := make([]*job.Component, len(ids))
	for i, id := range ids {
		order[i] = g.Component(id)
	}

	plan := &Plan{graph: g, order: order}
	for _, t := range g.Tables() {
		chain := buildChain(g, t.Name, order)
		if len(chain.consumers) == 0 && len(chain.explorers) == 0 {
			continue
		}
		plan.chains = append(plan.chains, chain)
		logger.Debug("Compiled chain.", "table", t.Name, "consumers", len(chain.consumers), "explorers", len(chain.explorers))
	}
	logger.Debug("Compiled plan.", "components", len(order), "chains", len(plan.chains))
	return plan, nil
}

func cycleError(err error) error {
	var ce *dag.CycleError
	if errors.As(err, &ce) {
		return &Error{Kind: CyclicRequirement, Cycle: ce.Path}
	}
	return err
}

// predecessors lists the components c waits for: filters of its required
// outcomes and producers of its virtual inputs, without duplicates.
func predecessors(g *job.Graph, c *job.Component) []*job.Component {
	var preds []*job.Component
	add := func(p *job.Component) {
		if p != nil && !slices.Contains(preds, p) {
			preds = append(preds, p)
		}
	}
	if r := c.Requirement(); r != nil {
		for _, o := range r.Outcomes() {
			add(o.Filter)
		}
	}
	for _, in := range c.Inputs() {
		add(g.Producer(in))
	}
	return preds
}

func buildChain(g *job.Graph, table string, order []*job.Component) *Chain {
	chain := &Chain{
		table:      table,
		deps:       make(map[*job.Component][]*job.Component),
		dependents: make(map[*job.Component][]*job.Component),
	}
	for _, c := range order {
		if !slices.Contains(g.TablesOf(c), table) {
			continue
		}
		if !c.Kind().RowLevel() {
			chain.explorers = append(chain.explorers, c)
			continue
		}
		chain.consumers = append(chain.consumers, c)
		for _, p := range predecessors(g, c) {
			chain.deps[c] = append(chain.deps[c], p)
			chain.dependents[p] = append(chain.dependents[p], c)
		}
	}
	return chain
}

package compiler

import (
	"errors"
	"slices"

	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/job"
)

func validate(g *job.Graph) error {
	var errs []error
	for _, c := range g.Components() {
		errs = append(errs, validateComponent(g, c)...)
	}
	return errors.Join(errs...)
}

func validateComponent(g *job.Graph, c *job.Component) []error {
	var errs []error
	name := c.Name()

	for _, t := range c.ExplicitTables() {
		if _, ok := g.Table(t); !ok {
			errs = append(errs, newError(MissingTable, name, "table %q is not declared", t))
		}
	}

	inputs := c.Inputs()
	for _, in := range inputs {
		if in.IsVirtual() {
			if c.Kind() == component.KindExplorer {
				errs = append(errs, newError(MissingInput, name, "explorers read source rows and cannot use virtual column %s", in))
				continue
			}
			if g.Producer(in) == nil {
				errs = append(errs, newError(MissingInput, name, "virtual column %s is not produced by any transformer", in))
			}
			continue
		}
		if !g.HasPhysical(in) {
			errs = append(errs, newError(MissingInput, name, "column %s is not a column of a declared table", in))
		}
	}
	for _, in := range inputs[min(1, len(inputs)):] {
		if in.Table() != inputs[0].Table() {
			errs = append(errs, newError(CrossTable, name, "inputs %s and %s come from different tables", inputs[0], in))
		}
	}
	if len(inputs) > 0 && len(c.ExplicitTables()) > 0 {
		if !slices.Equal(c.ExplicitTables(), []string{inputs[0].Table()}) {
			errs = append(errs, newError(CrossTable, name, "explicit tables %v conflict with input table %q", c.ExplicitTables(), inputs[0].Table()))
		}
	}

	req := c.Requirement()
	if req == nil {
		return errs
	}
	if c.Kind() == component.KindExplorer {
		return append(errs, newError(InvalidRequirement, name, "explorers run over whole tables and cannot require outcomes"))
	}
	outcomes := req.Outcomes()
	if len(outcomes) == 0 {
		errs = append(errs, newError(InvalidRequirement, name, "requirement %s names no outcome", req))
	}
	tables := g.TablesOf(c)
	for _, o := range outcomes {
		f := o.Filter
		if f == nil || g.Component(f.Name()) != f {
			errs = append(errs, newError(UnknownOutcome, name, "outcome %s refers to a filter outside the job", o))
			continue
		}
		if f.Kind() != component.KindFilter {
			errs = append(errs, newError(UnknownOutcome, name, "outcome %s refers to %s, which is not a filter", o, f))
			continue
		}
		if !f.Descriptor().HasCategory(o.Category) {
			errs = append(errs, newError(UnknownOutcome, name, "filter %s has no category %q", f, o.Category))
			continue
		}
		filterTables := g.TablesOf(f)
		for _, t := range tables {
			if !slices.Contains(filterTables, t) {
				errs = append(errs, newError(CrossTable, name, "outcome %s is not computed for table %q", o, t))
			}
		}
	}
	return errs
}

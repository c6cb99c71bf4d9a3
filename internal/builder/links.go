package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/config"
	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/vk/dqgrid/internal/job"
	"github.com/vk/dqgrid/internal/registry"
)

// linker resolves references against the tables and the components added
// so far.
type linker struct {
	tables     map[string]job.Table
	components map[string]*job.Component
}

func (l *linker) add(ctx context.Context, b *job.Builder, r *registry.Registry, dec config.Decoder, c *config.Component) error {
	logger := ctxlog.FromContext(ctx).With("component", c.Name, "descriptor", c.Descriptor)

	d, ok := r.Lookup(c.Descriptor)
	if !ok {
		return fmt.Errorf("component %q: unknown descriptor %q", c.Name, c.Descriptor)
	}

	var opts []job.Option
	if len(c.Inputs) > 0 {
		cols := make([]*column.Column, 0, len(c.Inputs))
		for _, ref := range c.Inputs {
			col, err := l.column(ref)
			if err != nil {
				return fmt.Errorf("component %q: %w", c.Name, err)
			}
			cols = append(cols, col)
		}
		opts = append(opts, job.WithInputs(cols...))
	}

	req, err := l.requirement(c)
	if err != nil {
		return fmt.Errorf("component %q: %w", c.Name, err)
	}
	if req != nil {
		opts = append(opts, job.WithRequirement(req))
	}

	for _, t := range c.Tables {
		if _, ok := l.tables[t]; !ok {
			return fmt.Errorf("component %q: unknown table %q", c.Name, t)
		}
	}
	if len(c.Tables) > 0 {
		opts = append(opts, job.WithTables(c.Tables...))
	}

	switch {
	case d.NewConfig != nil:
		cfg := d.NewConfig()
		if err := dec.DecodeArguments(ctx, c, cfg); err != nil {
			return err
		}
		opts = append(opts, job.WithConfig(cfg))
	case c.Arguments != nil:
		return fmt.Errorf("component %q: %s takes no arguments", c.Name, d.Name)
	}

	logger.Debug("Linking component.", "inputs", len(c.Inputs), "tables", len(c.Tables), "requirement", req != nil)
	l.components[c.Name] = b.Add(c.Name, d, opts...)
	return nil
}

// column resolves "table.column" or "component.output".
func (l *linker) column(ref string) (*column.Column, error) {
	owner, name, ok := strings.Cut(ref, ".")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("input %q is not of the form <table>.<column> or <component>.<output>", ref)
	}
	t, isTable := l.tables[owner]
	c, isComponent := l.components[owner]
	switch {
	case isTable && isComponent:
		return nil, fmt.Errorf("input %q is ambiguous: %q names both a table and a component", ref, owner)
	case isTable:
		col := t.Column(name)
		if col == nil {
			return nil, fmt.Errorf("input %q: table %q has no column %q", ref, owner, name)
		}
		return col, nil
	case isComponent:
		if c.Kind() != component.KindTransformer {
			return nil, fmt.Errorf("input %q: %s %q produces no columns", ref, c.Kind(), owner)
		}
		col := c.Output(name)
		if col == nil {
			return nil, fmt.Errorf("input %q: transformer %q has no output %q", ref, owner, name)
		}
		return col, nil
	default:
		return nil, fmt.Errorf("input %q: no table or earlier component named %q", ref, owner)
	}
}

// outcome resolves "filter.CATEGORY". Whether the category is declared is
// left to the compiler, which reports it as a configuration error.
func (l *linker) outcome(ref string) (job.Outcome, error) {
	owner, category, ok := strings.Cut(ref, ".")
	if !ok || owner == "" || category == "" {
		return job.Outcome{}, fmt.Errorf("requirement %q is not of the form <filter>.<category>", ref)
	}
	c, ok := l.components[owner]
	if !ok {
		return job.Outcome{}, fmt.Errorf("requirement %q: no earlier component named %q", ref, owner)
	}
	return c.Outcome(category), nil
}

func (l *linker) requirement(c *config.Component) (job.Requirement, error) {
	if c.Requires != "" && len(c.RequiresAny) > 0 {
		return nil, fmt.Errorf("requires and requires_any are mutually exclusive")
	}
	if c.Requires != "" {
		o, err := l.outcome(c.Requires)
		if err != nil {
			return nil, err
		}
		return job.Require(o), nil
	}
	if len(c.RequiresAny) == 0 {
		return nil, nil
	}
	outcomes := make([]job.Outcome, 0, len(c.RequiresAny))
	for _, ref := range c.RequiresAny {
		o, err := l.outcome(ref)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return job.RequireAny(outcomes...), nil
}

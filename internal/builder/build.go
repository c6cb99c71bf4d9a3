package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/config"
	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/vk/dqgrid/internal/job"
	"github.com/vk/dqgrid/internal/registry"
	"github.com/vk/dqgrid/internal/source"
)

// Job is the product of a build: the component graph and the sources of
// its tables.
type Job struct {
	Graph   *job.Graph
	Sources []source.Source
}

// Build constructs the job graph described by a config model. Components
// may only reference tables and components declared before them.
func Build(ctx context.Context, model *config.Model, r *registry.Registry, dec config.Decoder) (*Job, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting job construction.", "job", model.Name)

	b := job.NewBuilder(model.Name)
	tables := make(map[string]job.Table, len(model.Sources))
	var sources []source.Source

	// First pass: tables and their sources.
	for _, s := range model.Sources {
		if _, dup := tables[s.Table]; dup {
			return nil, fmt.Errorf("table %q declared twice", s.Table)
		}
		cols := make([]*column.Column, len(s.Columns))
		for i, c := range s.Columns {
			cols[i] = column.NewPhysical(s.Table, c.Name, c.Type)
		}
		src, err := newSource(s, cols)
		if err != nil {
			return nil, err
		}
		b.AddTable(s.Table, cols...)
		tables[s.Table] = job.Table{Name: s.Table, Columns: cols}
		sources = append(sources, src)
	}
	logger.Debug("Build: Table creation complete.", "table_count", len(tables))

	// Second pass: components, linked to what was declared before them.
	l := &linker{tables: tables, components: make(map[string]*job.Component)}
	var errs []error
	for _, c := range model.Components {
		if err := l.add(ctx, b, r, dec, c); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid job %q: %w", model.Name, errors.Join(errs...))
	}
	logger.Debug("Build: Component linking complete.", "component_count", len(model.Components))

	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	logger.Info("Build: Job construction successful.", "job", g.Name(), "tables", len(tables), "components", len(g.Components()))
	return &Job{Graph: g, Sources: sources}, nil
}

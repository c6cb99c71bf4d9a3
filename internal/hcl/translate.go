// This file translates the decoded HCL schema structs into the
// format-agnostic model of the config package.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/dqgrid/internal/config"
	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

func translateEngine(e *Engine) config.Engine {
	var out config.Engine
	if e.Workers != nil {
		out.Workers = *e.Workers
	}
	if e.QueueSize != nil {
		out.QueueSize = *e.QueueSize
	}
	if e.ProgressInterval != nil {
		out.ProgressInterval = *e.ProgressInterval
	}
	if e.Storage != nil {
		out.Storage = *e.Storage
	}
	if e.StoragePath != nil {
		out.StoragePath = *e.StoragePath
	}
	if e.Partitions != nil {
		out.Partitions = *e.Partitions
	}
	return out
}

// translateSource converts a source block, parsing each column's type
// keyword.
func translateSource(ctx context.Context, s *Source) (*config.Source, error) {
	logger := ctxlog.FromContext(ctx).With("source_kind", s.Kind, "table", s.Table)
	logger.Debug("Translating HCL source to internal config model.")

	switch s.Kind {
	case config.SourceCSV, config.SourceSQLite:
	default:
		return nil, fmt.Errorf("source %q: unknown kind %q", s.Table, s.Kind)
	}
	if s.Kind == config.SourceCSV && s.Query != "" {
		return nil, fmt.Errorf("source %q: query is only valid for sqlite sources", s.Table)
	}
	if len(s.Delimiter) > 1 {
		return nil, fmt.Errorf("source %q: delimiter must be a single character", s.Table)
	}

	out := &config.Source{
		Kind:        s.Kind,
		Table:       s.Table,
		Path:        s.Path,
		Query:       s.Query,
		CountColumn: s.CountColumn,
		Delimiter:   s.Delimiter,
	}
	for _, c := range s.Columns {
		t := cty.DynamicPseudoType
		if isExprDefined(c.Type) {
			var err error
			t, err = typeExprToCtyType(ctx, c.Type)
			if err != nil {
				return nil, fmt.Errorf("source %q, column %q: %w", s.Table, c.Name, err)
			}
		}
		out.Columns = append(out.Columns, &config.Column{Name: c.Name, Type: t})
	}
	if len(out.Columns) == 0 {
		return nil, fmt.Errorf("source %q declares no columns", s.Table)
	}
	return out, nil
}

func translateComponent(c *Component) *config.Component {
	out := &config.Component{
		Descriptor:  c.Descriptor,
		Name:        c.Name,
		Inputs:      c.Inputs,
		Requires:    c.Requires,
		RequiresAny: c.RequiresAny,
		Tables:      c.Tables,
	}
	if c.Arguments != nil {
		out.Arguments = c.Arguments.Body
	}
	return out
}

// isExprDefined reports whether an optional attribute was written in the
// file. gohcl fills omitted expression fields with a zero-width
// placeholder, so a nil check is not enough.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

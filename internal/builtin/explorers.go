package builtin

import (
	"context"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
)

// TableSummary walks a whole table and counts rows and nulls per column.
var TableSummary = &component.Descriptor{
	Name:        "table_summary",
	Kind:        component.KindExplorer,
	Description: "Counts rows and null values per column of a table.",
	New: func(context.Context, component.Provided) (component.Component, error) {
		return &tableSummary{}, nil
	},
}

type tableSummary struct {
	result Summary
}

func (e *tableSummary) Run(ctx context.Context, ds component.Dataset) error {
	cols := ds.Columns()
	s := Summary{Tables: []string{ds.Table()}, Nulls: make(map[string]int64, len(cols))}
	for _, c := range cols {
		s.Nulls[c.Key()] = 0
	}
	err := ds.Each(ctx, func(row column.Row) error {
		n := int64(row.DistinctCount())
		s.Rows += n
		for _, c := range cols {
			if v, _ := row.Value(c); v == nil {
				s.Nulls[c.Key()] += n
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.result = s
	return nil
}

func (e *tableSummary) Result() (component.Result, error) { return e.result, nil }

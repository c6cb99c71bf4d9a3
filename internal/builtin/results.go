package builtin

import (
	"fmt"

	"github.com/vk/dqgrid/internal/component"
)

// Count is a mergeable counter result.
type Count int64

func (c Count) Merge(other component.Result) (component.Result, error) {
	o, ok := other.(Count)
	if !ok {
		return nil, fmt.Errorf("cannot merge %T into Count", other)
	}
	return c + o, nil
}

// SumResult is a mergeable sum of numbers.
type SumResult float64

func (s SumResult) Merge(other component.Result) (component.Result, error) {
	o, ok := other.(SumResult)
	if !ok {
		return nil, fmt.Errorf("cannot merge %T into SumResult", other)
	}
	return s + o, nil
}

// Distribution maps values to their number of occurrences.
type Distribution map[string]int64

func (d Distribution) Merge(other component.Result) (component.Result, error) {
	o, ok := other.(Distribution)
	if !ok {
		return nil, fmt.Errorf("cannot merge %T into Distribution", other)
	}
	out := make(Distribution, len(d)+len(o))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range o {
		out[k] += v
	}
	return out, nil
}

// Summary describes a whole table.
type Summary struct {
	Tables []string
	Rows   int64
	Nulls  map[string]int64
}

func (s Summary) Merge(other component.Result) (component.Result, error) {
	o, ok := other.(Summary)
	if !ok {
		return nil, fmt.Errorf("cannot merge %T into Summary", other)
	}
	out := Summary{
		Tables: append(append([]string(nil), s.Tables...), o.Tables...),
		Rows:   s.Rows + o.Rows,
		Nulls:  make(map[string]int64, len(s.Nulls)+len(o.Nulls)),
	}
	for k, v := range s.Nulls {
		out.Nulls[k] = v
	}
	for k, v := range o.Nulls {
		out.Nulls[k] += v
	}
	return out, nil
}

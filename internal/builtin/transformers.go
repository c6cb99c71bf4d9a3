package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
	"github.com/zclconf/go-cty/cty"
)

// Uppercase upper-cases a string column.
var Uppercase = &component.Descriptor{
	Name:        "uppercase",
	Kind:        component.KindTransformer,
	Description: "Produces the upper-case form of a string column.",
	Outputs:     []component.OutputSpec{{Name: "upper", Type: cty.String}},
	MinInputs:   1,
	MaxInputs:   1,
	InputType:   cty.String,
	New: func(_ context.Context, p component.Provided) (component.Component, error) {
		return &uppercase{col: p.Inputs[0]}, nil
	},
}

type uppercase struct {
	col *column.Column
}

func (t *uppercase) Transform(_ context.Context, row column.Row) ([]any, error) {
	v, _ := row.Value(t.col)
	if v == nil {
		return []any{nil}, nil
	}
	return []any{strings.ToUpper(fmt.Sprint(v))}, nil
}

// ConcatConfig configures Concat.
type ConcatConfig struct {
	Separator string `hcl:"separator,optional"`
}

// Concat joins the non-null values of its inputs.
var Concat = &component.Descriptor{
	Name:        "concat",
	Kind:        component.KindTransformer,
	Description: "Joins the non-null input values with a separator.",
	Outputs:     []component.OutputSpec{{Name: "concat", Type: cty.String}},
	MinInputs:   1,
	NewConfig:   func() any { return new(ConcatConfig) },
	New: func(_ context.Context, p component.Provided) (component.Component, error) {
		cfg, _ := p.Config.(*ConcatConfig)
		if cfg == nil {
			cfg = &ConcatConfig{}
		}
		return &concat{cols: p.Inputs, sep: cfg.Separator}, nil
	},
}

type concat struct {
	cols []*column.Column
	sep  string
}

func (t *concat) Transform(_ context.Context, row column.Row) ([]any, error) {
	parts := make([]string, 0, len(t.cols))
	for _, v := range column.Values(row, t.cols) {
		if v != nil {
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return []any{strings.Join(parts, t.sep)}, nil
}

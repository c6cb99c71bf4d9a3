package builtin

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
	"github.com/zclconf/go-cty/cty"
)

// Filter categories.
const (
	Valid   = "VALID"
	Invalid = "INVALID"
	Null    = "NULL"
)

// NotNull is VALID when every input holds a value.
var NotNull = &component.Descriptor{
	Name:        "not_null",
	Kind:        component.KindFilter,
	Description: "Checks that every input column holds a value.",
	Categories:  []string{Valid, Invalid},
	MinInputs:   1,
	New: func(_ context.Context, p component.Provided) (component.Component, error) {
		return &notNull{cols: p.Inputs}, nil
	},
}

type notNull struct {
	cols []*column.Column
}

func (f *notNull) Categorize(_ context.Context, row column.Row) (string, error) {
	for _, c := range f.cols {
		if v, ok := row.Value(c); !ok || v == nil {
			return Invalid, nil
		}
	}
	return Valid, nil
}

// RangeConfig bounds NumberRange. Missing bounds are open.
type RangeConfig struct {
	Min *float64 `hcl:"min,optional"`
	Max *float64 `hcl:"max,optional"`
}

// NumberRange checks that a number lies within [min, max].
var NumberRange = &component.Descriptor{
	Name:        "number_range",
	Kind:        component.KindFilter,
	Description: "Checks that a number lies within the configured bounds.",
	Categories:  []string{Valid, Invalid, Null},
	MinInputs:   1,
	MaxInputs:   1,
	InputType:   cty.Number,
	NewConfig:   func() any { return new(RangeConfig) },
	ValidateHooks: []component.Hook{{
		Name: "bounds",
		Fn: func(_ context.Context, c component.Component) error {
			f := c.(*numberRange)
			if f.cfg.Min != nil && f.cfg.Max != nil && *f.cfg.Min > *f.cfg.Max {
				return fmt.Errorf("min %g exceeds max %g", *f.cfg.Min, *f.cfg.Max)
			}
			return nil
		},
	}},
	New: func(_ context.Context, p component.Provided) (component.Component, error) {
		cfg, _ := p.Config.(*RangeConfig)
		if cfg == nil {
			cfg = &RangeConfig{}
		}
		return &numberRange{col: p.Inputs[0], cfg: *cfg}, nil
	},
}

type numberRange struct {
	col *column.Column
	cfg RangeConfig
}

func (f *numberRange) Categorize(_ context.Context, row column.Row) (string, error) {
	v, _ := row.Value(f.col)
	if v == nil {
		return Null, nil
	}
	n, err := toFloat(v)
	if err != nil {
		return "", err
	}
	if (f.cfg.Min != nil && n < *f.cfg.Min) || (f.cfg.Max != nil && n > *f.cfg.Max) {
		return Invalid, nil
	}
	return Valid, nil
}

var errNotNumber = errors.New("value is not a number")

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %T", errNotNumber, v)
	}
}

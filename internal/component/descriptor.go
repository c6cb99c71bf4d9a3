package component

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/zclconf/go-cty/cty"
)

// Kind selects the variant behavior of a component.
type Kind int

const (
	KindFilter Kind = iota
	KindTransformer
	KindAnalyzer
	KindExplorer
)

func (k Kind) String() string {
	switch k {
	case KindFilter:
		return "filter"
	case KindTransformer:
		return "transformer"
	case KindAnalyzer:
		return "analyzer"
	case KindExplorer:
		return "explorer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// RowLevel reports whether components of this kind are invoked per row.
func (k Kind) RowLevel() bool { return k != KindExplorer }

// Concurrency is a descriptor's hint on whether instances accept
// overlapping calls.
type Concurrency int

const (
	// ConcurrencyDefault defers to the kind's default, which is concurrent
	// for every row-level kind.
	ConcurrencyDefault Concurrency = iota
	Concurrent
	Serial
)

// Hook is a named lifecycle callback declared by a descriptor.
type Hook struct {
	Name string
	Fn   func(ctx context.Context, c Component) error
}

// OutputSpec declares one column a transformer produces.
type OutputSpec struct {
	Name string
	Type cty.Type
}

// Descriptor is the capability metadata of a component type.
type Descriptor struct {
	Name        string
	Kind        Kind
	Description string

	// Categories are the outcomes a filter may produce.
	Categories []string
	// Outputs are the columns a transformer produces.
	Outputs []OutputSpec

	// MinInputs and MaxInputs bound the number of input columns. MaxInputs
	// of zero means unbounded.
	MinInputs int
	MaxInputs int
	// InputType restricts accepted input columns. DynamicPseudoType or
	// NilType accepts anything.
	InputType cty.Type

	Concurrency Concurrency

	// NewConfig returns a pointer to the component's configuration struct,
	// used to decode job-file arguments. Nil means no configuration.
	NewConfig func() any
	New       Factory

	ValidateHooks   []Hook
	InitializeHooks []Hook
	CloseHooks      []Hook
}

// IsConcurrent resolves the concurrency hint.
func (d *Descriptor) IsConcurrent() bool {
	switch d.Concurrency {
	case Serial:
		return false
	case Concurrent:
		return true
	default:
		return d.Kind.RowLevel()
	}
}

// HasCategory reports whether a filter declares the category.
func (d *Descriptor) HasCategory(category string) bool {
	return slices.Contains(d.Categories, category)
}

// AcceptsType reports whether a column of type t may be an input.
func (d *Descriptor) AcceptsType(t cty.Type) bool {
	if d.InputType == cty.NilType || d.InputType == cty.DynamicPseudoType {
		return true
	}
	if t == cty.DynamicPseudoType {
		return true
	}
	return d.InputType.Equals(t)
}

// Check verifies that the descriptor itself is well formed.
func (d *Descriptor) Check() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("descriptor has no name"))
	}
	if d.New == nil {
		errs = append(errs, fmt.Errorf("descriptor %q has no factory", d.Name))
	}
	if d.Kind == KindFilter && len(d.Categories) == 0 {
		errs = append(errs, fmt.Errorf("filter %q declares no categories", d.Name))
	}
	if d.Kind != KindFilter && len(d.Categories) > 0 {
		errs = append(errs, fmt.Errorf("%s %q declares categories", d.Kind, d.Name))
	}
	if d.Kind != KindTransformer && len(d.Outputs) > 0 {
		errs = append(errs, fmt.Errorf("%s %q declares output columns", d.Kind, d.Name))
	}
	if d.MaxInputs > 0 && d.MinInputs > d.MaxInputs {
		errs = append(errs, fmt.Errorf("descriptor %q: min inputs %d exceeds max inputs %d", d.Name, d.MinInputs, d.MaxInputs))
	}
	return errors.Join(errs...)
}

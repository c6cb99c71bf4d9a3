package builtin

import (
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers every built-in descriptor.
func (Module) Register(r *registry.Registry) {
	for _, d := range []*component.Descriptor{
		NotNull,
		NumberRange,
		Uppercase,
		Concat,
		RowCount,
		NullCount,
		Sum,
		ValueDistribution,
		TableSummary,
	} {
		r.Register(d)
	}
}

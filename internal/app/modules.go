package app

import (
	"github.com/vk/dqgrid/internal/builtin"
	"github.com/vk/dqgrid/internal/registry"
)

// coreModules is the list of component modules compiled into the binary.
var coreModules = []registry.Module{
	builtin.Module{},
}

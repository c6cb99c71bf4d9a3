package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/dqgrid/internal/ctxlog"
)

// Manager tracks the instances of a job run.
type Manager struct {
	mu        sync.Mutex
	instances []*Instance
}

func NewManager() *Manager {
	return &Manager{}
}

// Track registers an instance so CloseAll will close it.
func (m *Manager) Track(i *Instance) {
	m.mu.Lock()
	m.instances = append(m.instances, i)
	m.mu.Unlock()
}

// Instances returns the tracked instances in registration order.
func (m *Manager) Instances() []*Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Instance(nil), m.instances...)
}

// CloseAll closes every tracked instance in reverse registration order.
// Failures are logged, passed to report when it is non-nil, and never
// retried; closing continues with the remaining instances.
func (m *Manager) CloseAll(ctx context.Context, report func(*Instance, error)) error {
	logger := ctxlog.FromContext(ctx)
	instances := m.Instances()

	var errs []error
	for idx := len(instances) - 1; idx >= 0; idx-- {
		inst := instances[idx]
		if err := inst.Close(ctx); err != nil {
			logger.Warn("Failed to close component.", "component", inst.Name(), "error", err)
			if report != nil {
				report(inst, err)
			}
			errs = append(errs, fmt.Errorf("close %s: %w", inst.Name(), err))
		}
	}
	return errors.Join(errs...)
}

package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/dqgrid/internal/builtin"
	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/registry"
)

// MockSleeperModule registers analyzers that sleep on every row and record
// how many of their calls overlapped.
//
//	sleeper        concurrent analyzer
//	serial_sleeper the same analyzer declared Serial
type MockSleeperModule struct {
	SleepDuration time.Duration

	mu          sync.Mutex
	maxInFlight map[string]int64
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{SleepDuration: sleep, maxInFlight: make(map[string]int64)}
}

// MaxInFlight is the highest number of overlapping Consume calls seen by
// the named component.
func (m *MockSleeperModule) MaxInFlight(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight[name]
}

func (m *MockSleeperModule) record(name string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > m.maxInFlight[name] {
		m.maxInFlight[name] = n
	}
}

// Register registers the "sleeper" and "serial_sleeper" descriptors.
func (m *MockSleeperModule) Register(r *registry.Registry) {
	factory := func(_ context.Context, p component.Provided) (component.Component, error) {
		return &sleeper{module: m, name: p.Name}, nil
	}
	r.Register(&component.Descriptor{
		Name:        "sleeper",
		Kind:        component.KindAnalyzer,
		Description: "Sleeps on every row and counts rows.",
		Concurrency: component.Concurrent,
		New:         factory,
	})
	r.Register(&component.Descriptor{
		Name:        "serial_sleeper",
		Kind:        component.KindAnalyzer,
		Description: "Sleeps on every row, one call at a time.",
		Concurrency: component.Serial,
		New:         factory,
	})
}

type sleeper struct {
	module   *MockSleeperModule
	name     string
	inFlight atomic.Int64
	rows     atomic.Int64
}

func (s *sleeper) Consume(context.Context, column.Row, int) error {
	s.module.record(s.name, s.inFlight.Add(1))
	time.Sleep(s.module.SleepDuration)
	s.inFlight.Add(-1)
	s.rows.Add(1)
	return nil
}

func (s *sleeper) Result() (component.Result, error) {
	return builtin.Count(s.rows.Load()), nil
}

package cluster

import (
	"context"
	"fmt"

	"github.com/vk/dqgrid/internal/compiler"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/listener"
	"github.com/vk/dqgrid/internal/runtime"
	"github.com/vk/dqgrid/internal/source"
)

// LocalManager runs partitions in-process, each through a fresh compile and
// runtime over range views of the sources. A partition stopped by an
// escalated component error still returns what it collected, with the
// escalation among its errors.
type LocalManager struct {
	Sources []source.Source
	Options []runtime.Option
}

func (m *LocalManager) Dispatch(ctx context.Context, p Partition) (*PartitionResult, error) {
	plan, err := compiler.Compile(ctx, p.Graph)
	if err != nil {
		return nil, err
	}
	ranged := make([]source.Source, len(m.Sources))
	for i, s := range m.Sources {
		ranged[i] = source.Range(s, p.Offset, p.Limit)
	}
	opts := append(append([]runtime.Option(nil), m.Options...), runtime.WithSources(ranged...))

	fut, err := runtime.New(plan, opts...).Process(listener.WithPartition(ctx, p.Index))
	if err != nil && !runtime.IsEscalation(err) {
		return nil, fmt.Errorf("run partition: %w", err)
	}

	out := &PartitionResult{Partition: p, Results: make(map[string]component.Result)}
	if err != nil {
		out.Errors = append(out.Errors, err)
	}
	for c, r := range fut.Results() {
		out.Results[c.Name()] = r
	}
	seen := make(map[string]bool)
	for _, e := range fut.Errors() {
		out.Errors = append(out.Errors, e)
		if e.Phase != runtime.PhaseClose && !seen[e.Component.Name()] {
			seen[e.Component.Name()] = true
			out.Failed = append(out.Failed, e.Component.Name())
		}
	}
	return out, nil
}

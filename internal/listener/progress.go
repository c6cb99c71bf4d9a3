package listener

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/job"
)

// Run states reported by Progress.
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

// Progress keeps live counters of a run for status endpoints. Row counts
// are kept per partition and summed in snapshots.
type Progress struct {
	mu      sync.RWMutex
	job     string
	state   string
	started time.Time
	ended   time.Time
	tables  map[string]struct{}
	rows    map[rowKey]*atomic.Int64

	succeeded atomic.Int64
	failed    atomic.Int64
	errors    atomic.Int64
}

// ProgressSnapshot is a point-in-time copy of Progress.
type ProgressSnapshot struct {
	Job        string           `json:"job"`
	State      string           `json:"state"`
	StartedAt  time.Time        `json:"started_at,omitzero"`
	Elapsed    string           `json:"elapsed"`
	Rows       map[string]int64 `json:"rows"`
	Tables     []string         `json:"tables"`
	Succeeded  int64            `json:"components_succeeded"`
	Errors     int64            `json:"component_errors"`
	FailedRuns int64            `json:"failed_runs"`
}

type rowKey struct {
	table     string
	partition int
}

type partitionKey struct{}

// WithPartition marks ctx as belonging to one partition of a partitioned
// run. Listeners shared by the partitions use it to keep them apart.
func WithPartition(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, partitionKey{}, index)
}

// PartitionOf returns the partition index of ctx, or -1 outside a
// partitioned run.
func PartitionOf(ctx context.Context) int {
	if i, ok := ctx.Value(partitionKey{}).(int); ok {
		return i
	}
	return -1
}

func NewProgress() *Progress {
	return &Progress{
		state:  StatePending,
		tables: make(map[string]struct{}),
		rows:   make(map[rowKey]*atomic.Int64),
	}
}

func (p *Progress) JobBegin(_ context.Context, g *job.Graph) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.job = g.Name()
	if p.state != StateFailed {
		p.state = StateRunning
	}
	if p.started.IsZero() {
		p.started = time.Now()
	}
	for _, t := range g.Tables() {
		p.tables[t.Name] = struct{}{}
	}
}

func (p *Progress) JobSuccess(context.Context, *job.Graph) { p.finish(StateSucceeded) }

func (p *Progress) JobFailed(context.Context, *job.Graph, error) {
	p.failed.Add(1)
	p.finish(StateFailed)
}

// finish records the end of a run. A failed partition keeps the whole run
// failed.
func (p *Progress) finish(state string) {
	p.mu.Lock()
	if p.state != StateFailed {
		p.state = state
	}
	p.ended = time.Now()
	p.mu.Unlock()
}

// RowProgress stores the rows pulled so far by the partition of ctx.
func (p *Progress) RowProgress(ctx context.Context, _ *job.Graph, table string, rows int64) {
	p.counter(rowKey{table: table, partition: PartitionOf(ctx)}).Store(rows)
}

func (p *Progress) counter(k rowKey) *atomic.Int64 {
	p.mu.RLock()
	c, ok := p.rows[k]
	p.mu.RUnlock()
	if ok {
		return c
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok = p.rows[k]; !ok {
		c = new(atomic.Int64)
		p.rows[k] = c
		p.tables[k.table] = struct{}{}
	}
	return c
}

func (p *Progress) ComponentSuccess(context.Context, *job.Component, component.Result) {
	p.succeeded.Add(1)
}

func (p *Progress) ComponentError(context.Context, *job.Component, column.Row, error) {
	p.errors.Add(1)
}

// Snapshot copies the current counters.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := ProgressSnapshot{
		Job:        p.job,
		State:      p.state,
		StartedAt:  p.started,
		Rows:       make(map[string]int64, len(p.tables)),
		Succeeded:  p.succeeded.Load(),
		Errors:     p.errors.Load(),
		FailedRuns: p.failed.Load(),
	}
	for table := range p.tables {
		s.Rows[table] = 0
		s.Tables = append(s.Tables, table)
	}
	for k, c := range p.rows {
		s.Rows[k.table] += c.Load()
	}
	sort.Strings(s.Tables)
	switch {
	case p.started.IsZero():
		s.Elapsed = "0s"
	case p.ended.IsZero():
		s.Elapsed = time.Since(p.started).Round(time.Millisecond).String()
	default:
		s.Elapsed = p.ended.Sub(p.started).Round(time.Millisecond).String()
	}
	return s
}

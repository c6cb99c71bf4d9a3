package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Memory keeps collections in process memory.
type Memory struct {
	mu    sync.Mutex
	seq   int
	items []*memoryCollection
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Create(_ context.Context, name string) (Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c := &memoryCollection{
		name:   fmt.Sprintf("%s#%d", name, m.seq),
		counts: make(map[string]int64),
	}
	m.items = append(m.items, c)
	return c, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		c.Clear(context.Background())
	}
	m.items = nil
	return nil
}

type memoryCollection struct {
	name   string
	mu     sync.RWMutex
	counts map[string]int64
}

func (c *memoryCollection) Name() string { return c.name }

func (c *memoryCollection) Insert(_ context.Context, key string, delta int64) error {
	c.mu.Lock()
	c.counts[key] += delta
	c.mu.Unlock()
	return nil
}

func (c *memoryCollection) Iterate(ctx context.Context, fn func(string, int64) error) error {
	c.mu.RLock()
	keys := make([]string, 0, len(c.counts))
	for k := range c.counts {
		keys = append(keys, k)
	}
	snapshot := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		snapshot[k] = v
	}
	c.mu.RUnlock()

	slices.Sort(keys)
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(k, snapshot[k]); err != nil {
			return err
		}
	}
	return nil
}

func (c *memoryCollection) Len(context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.counts), nil
}

func (c *memoryCollection) Clear(context.Context) error {
	c.mu.Lock()
	c.counts = make(map[string]int64)
	c.mu.Unlock()
	return nil
}

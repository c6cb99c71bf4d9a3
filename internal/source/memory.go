package source

import (
	"context"
	"sync"

	"github.com/vk/dqgrid/internal/column"
)

// Memory is an in-memory table, mostly for tests and embedding.
type Memory struct {
	table string
	cols  []*column.Column

	mu   sync.RWMutex
	rows []column.Row
}

// NewMemory creates an empty table with the given columns.
func NewMemory(table string, cols ...*column.Column) *Memory {
	return &Memory{table: table, cols: cols}
}

func (m *Memory) Table() string             { return m.table }
func (m *Memory) Columns() []*column.Column { return append([]*column.Column(nil), m.cols...) }

// Append adds a row; values align with the columns.
func (m *Memory) Append(values ...any) *Memory {
	return m.AppendCounted(1, values...)
}

// AppendCounted adds a row that stands for count source records.
func (m *Memory) AppendCounted(count int, values ...any) *Memory {
	vals := make(map[*column.Column]any, len(m.cols))
	for i, c := range m.cols {
		if i < len(values) {
			vals[c] = values[i]
		} else {
			vals[c] = nil
		}
	}
	m.mu.Lock()
	m.rows = append(m.rows, column.NewRow(int64(len(m.rows)), count, vals))
	m.mu.Unlock()
	return m
}

// Len returns the number of rows.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *Memory) Open(context.Context) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &sliceIterator{rows: append([]column.Row(nil), m.rows...)}, nil
}

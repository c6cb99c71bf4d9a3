package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vk/dqgrid/internal/column"
)

// SQLite reads a table from the result of a query against a SQLite file.
// Result columns are matched to table columns by name.
type SQLite struct {
	table       string
	path        string
	query       string
	cols        []*column.Column
	countColumn string
}

// NewSQLite builds a source. An empty query selects every row of the table
// with the same name.
func NewSQLite(table, path, query string, cols []*column.Column, countColumn string) *SQLite {
	if query == "" {
		query = fmt.Sprintf("SELECT * FROM %q", table)
	}
	return &SQLite{table: table, path: path, query: query, cols: cols, countColumn: countColumn}
}

func (s *SQLite) Table() string             { return s.table }
func (s *SQLite) Columns() []*column.Column { return append([]*column.Column(nil), s.cols...) }

func (s *SQLite) Open(ctx context.Context) (Iterator, error) {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	rows, err := db.QueryContext(ctx, s.query)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	names, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		_ = db.Close()
		return nil, err
	}

	it := &sqlIterator{db: db, rows: rows, cols: s.cols, index: make([]int, len(s.cols)), countIdx: -1, width: len(names)}
	pos := make(map[string]int, len(names))
	for i, n := range names {
		pos[n] = i
	}
	for i, c := range s.cols {
		idx, ok := pos[c.Name()]
		if !ok {
			_ = it.Close()
			return nil, fmt.Errorf("query for %s returns no column %q", s.table, c.Name())
		}
		it.index[i] = idx
	}
	if s.countColumn != "" {
		idx, ok := pos[s.countColumn]
		if !ok {
			_ = it.Close()
			return nil, fmt.Errorf("query for %s returns no count column %q", s.table, s.countColumn)
		}
		it.countIdx = idx
	}
	return it, nil
}

type sqlIterator struct {
	db       *sql.DB
	rows     *sql.Rows
	cols     []*column.Column
	index    []int
	countIdx int
	width    int
	id       int64
}

func (it *sqlIterator) Next(ctx context.Context) (column.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	raw := make([]any, it.width)
	ptrs := make([]any, it.width)
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row %d: %w", it.id, err)
	}

	values := make(map[*column.Column]any, len(it.cols))
	for i, c := range it.cols {
		v, err := Convert(c, raw[it.index[i]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", it.id, err)
		}
		values[c] = v
	}
	count := 1
	if it.countIdx >= 0 {
		n, ok := raw[it.countIdx].(int64)
		if !ok {
			return nil, fmt.Errorf("row %d: count column holds %T", it.id, raw[it.countIdx])
		}
		count = int(n)
	}
	row := column.NewRow(it.id, count, values)
	it.id++
	return row, nil
}

func (it *sqlIterator) Close() error {
	return errors.Join(it.rows.Close(), it.db.Close())
}

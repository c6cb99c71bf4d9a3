package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vk/dqgrid/internal/column"
)

// CSVOptions tunes how a CSV file is read.
type CSVOptions struct {
	// CountColumn names a header column holding the distinct count of each
	// row. It is not exposed as a table column.
	CountColumn string
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

// CSV reads a table from a CSV file with a header row.
type CSV struct {
	table string
	path  string
	cols  []*column.Column
	opts  CSVOptions
}

func NewCSV(table, path string, cols []*column.Column, opts CSVOptions) *CSV {
	return &CSV{table: table, path: path, cols: cols, opts: opts}
}

func (s *CSV) Table() string             { return s.table }
func (s *CSV) Columns() []*column.Column { return append([]*column.Column(nil), s.cols...) }
func (s *CSV) Path() string              { return s.path }

func (s *CSV) Open(ctx context.Context) (Iterator, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	it, err := newCSVIterator(f, s.cols, s.opts)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return it, nil
}

type csvIterator struct {
	closer   io.Closer
	reader   *csv.Reader
	cols     []*column.Column
	index    []int
	countIdx int
	line     int64
	id       int64
}

func newCSVIterator(r io.ReadCloser, cols []*column.Column, opts CSVOptions) (*csvIterator, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.ReuseRecord = true
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	pos := make(map[string]int, len(headers))
	for i, h := range headers {
		pos[strings.ReplaceAll(strings.TrimSpace(h), `"`, "")] = i
	}

	it := &csvIterator{closer: r, reader: reader, cols: cols, index: make([]int, len(cols)), countIdx: -1, line: 1}
	var missing []string
	for i, c := range cols {
		idx, ok := pos[c.Name()]
		if !ok {
			missing = append(missing, c.Name())
		}
		it.index[i] = idx
	}
	if opts.CountColumn != "" {
		idx, ok := pos[opts.CountColumn]
		if !ok {
			missing = append(missing, opts.CountColumn)
		}
		it.countIdx = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV header lacks columns: %s", strings.Join(missing, ", "))
	}
	return it, nil
}

func (it *csvIterator) Next(ctx context.Context) (column.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record, err := it.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	it.line++
	if err != nil {
		return nil, fmt.Errorf("CSV read error: %w", err)
	}

	values := make(map[*column.Column]any, len(it.cols))
	for i, c := range it.cols {
		v, err := Convert(c, record[it.index[i]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", it.line, err)
		}
		values[c] = v
	}
	count := 1
	if it.countIdx >= 0 {
		n, err := strconv.Atoi(strings.TrimSpace(record[it.countIdx]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid count %q", it.line, record[it.countIdx])
		}
		count = n
	}
	row := column.NewRow(it.id, count, values)
	it.id++
	return row, nil
}

func (it *csvIterator) Close() error { return it.closer.Close() }

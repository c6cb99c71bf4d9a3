package source

import (
	"context"
	"io"

	"github.com/vk/dqgrid/internal/column"
)

// Range exposes rows [offset, offset+limit) of another source. A negative
// limit reads to the end.
func Range(src Source, offset, limit int64) Source {
	return &rangeSource{src: src, offset: max(offset, 0), limit: limit}
}

type rangeSource struct {
	src    Source
	offset int64
	limit  int64
}

func (r *rangeSource) Table() string             { return r.src.Table() }
func (r *rangeSource) Columns() []*column.Column { return r.src.Columns() }

func (r *rangeSource) Open(ctx context.Context) (Iterator, error) {
	it, err := r.src.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &rangeIterator{it: it, skip: r.offset, left: r.limit}, nil
}

type rangeIterator struct {
	it   Iterator
	skip int64
	left int64
}

func (r *rangeIterator) Next(ctx context.Context) (column.Row, error) {
	for r.skip > 0 {
		if _, err := r.it.Next(ctx); err != nil {
			return nil, err
		}
		r.skip--
	}
	if r.left == 0 {
		return nil, io.EOF
	}
	row, err := r.it.Next(ctx)
	if err != nil {
		return nil, err
	}
	if r.left > 0 {
		r.left--
	}
	return row, nil
}

func (r *rangeIterator) Close() error { return r.it.Close() }

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vk/dqgrid/internal/column"
	"github.com/zclconf/go-cty/cty"
)

// Source is a readable source table.
type Source interface {
	Table() string
	Columns() []*column.Column
	Open(ctx context.Context) (Iterator, error)
}

// Iterator yields rows in order. Next returns io.EOF after the last row.
type Iterator interface {
	Next(ctx context.Context) (column.Row, error)
	Close() error
}

// Count walks src once and returns its number of rows.
func Count(ctx context.Context, src Source) (int64, error) {
	it, err := src.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	var n int64
	for {
		if _, err := it.Next(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}
		n++
	}
}

// Convert turns a raw value read from storage into the value family of the
// column's type. Empty strings are nulls.
func Convert(col *column.Column, raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []byte:
		raw = string(v)
	}
	s, isString := raw.(string)
	if isString && strings.TrimSpace(s) == "" {
		return nil, nil
	}

	switch col.DataType() {
	case cty.Number:
		switch v := raw.(type) {
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: %q is not a number", col.Name(), v)
			}
			return f, nil
		case int64:
			return float64(v), nil
		case int:
			return float64(v), nil
		case float64:
			return v, nil
		}
	case cty.Bool:
		switch v := raw.(type) {
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("column %s: %q is not a bool", col.Name(), v)
			}
			return b, nil
		case int64:
			return v != 0, nil
		case bool:
			return v, nil
		}
	case cty.String:
		if isString {
			return s, nil
		}
		return fmt.Sprint(raw), nil
	default:
		return raw, nil
	}
	return nil, fmt.Errorf("column %s: cannot convert %T to %s", col.Name(), raw, col.TypeName())
}

// sliceIterator serves prepared rows.
type sliceIterator struct {
	rows []column.Row
	pos  int
}

func (it *sliceIterator) Next(ctx context.Context) (column.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.pos >= len(it.rows) {
		return nil, io.EOF
	}
	r := it.rows[it.pos]
	it.pos++
	return r, nil
}

func (it *sliceIterator) Close() error { return nil }

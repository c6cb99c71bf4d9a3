// Package storage provides the backing stores for large intermediate
// aggregates such as value distributions.
//
// Components receive a Backend through their factory parameters and never
// know whether it keeps data in memory or on disk. Both implementations
// have the same semantics: Insert accumulates a count per key, Iterate
// visits keys in ascending order, Clear empties a collection.
package storage

import (
	"context"
	"fmt"
	"strings"
)

// Backend creates collections for one job run.
type Backend interface {
	// Create returns a new, empty collection. Names only need to be
	// meaningful to humans; the backend keeps collections apart even when
	// names repeat.
	Create(ctx context.Context, name string) (Collection, error)
	// Close releases the backend and every collection it created.
	Close() error
}

// Collection is a key to count mapping safe for concurrent use.
type Collection interface {
	Name() string
	Insert(ctx context.Context, key string, delta int64) error
	Iterate(ctx context.Context, fn func(key string, count int64) error) error
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Kind names a backend implementation in configuration.
type Kind string

const (
	KindMemory Kind = "memory"
	KindSQLite Kind = "sqlite"
)

// Open builds the backend selected by kind. The path is only used by
// disk-backed kinds.
func Open(kind Kind, path string) (Backend, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case "", KindMemory:
		return NewMemory(), nil
	case KindSQLite:
		if path == "" {
			return nil, fmt.Errorf("storage kind %q requires a path", kind)
		}
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage kind %q", kind)
	}
}

// Snapshot copies a collection into a map. It is meant for results that
// must outlive the backend.
func Snapshot(ctx context.Context, c Collection) (map[string]int64, error) {
	out := make(map[string]int64)
	err := c.Iterate(ctx, func(key string, count int64) error {
		out[key] = count
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

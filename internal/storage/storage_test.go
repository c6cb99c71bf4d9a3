package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns one instance of every implementation so that the same
// behavior is asserted against each.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "collections.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Backend{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestCollectionSemantics(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c, err := b.Create(ctx, "dist")
			require.NoError(t, err)

			require.NoError(t, c.Insert(ctx, "b", 2))
			require.NoError(t, c.Insert(ctx, "a", 1))
			require.NoError(t, c.Insert(ctx, "b", 3))

			n, err := c.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			var keys []string
			err = c.Iterate(ctx, func(key string, count int64) error {
				keys = append(keys, fmt.Sprintf("%s=%d", key, count))
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"a=1", "b=5"}, keys, "keys iterate in ascending order")

			require.NoError(t, c.Clear(ctx))
			n, err = c.Len(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c1, err := b.Create(ctx, "same")
			require.NoError(t, err)
			c2, err := b.Create(ctx, "same")
			require.NoError(t, err)
			assert.NotEqual(t, c1.Name(), c2.Name())

			require.NoError(t, c1.Insert(ctx, "k", 1))
			snap, err := Snapshot(ctx, c2)
			require.NoError(t, err)
			assert.Empty(t, snap)
		})
	}
}

func TestCollectionConcurrentInsert(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c, err := b.Create(ctx, "concurrent")
			require.NoError(t, err)

			var wg sync.WaitGroup
			for i := 0; i < 40; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, c.Insert(ctx, fmt.Sprintf("k%d", i%4), 1))
				}(i)
			}
			wg.Wait()

			snap, err := Snapshot(ctx, c)
			require.NoError(t, err)
			assert.Equal(t, map[string]int64{"k0": 10, "k1": 10, "k2": 10, "k3": 10}, snap)
		})
	}
}

func TestOpen(t *testing.T) {
	b, err := Open("", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b)

	_, err = Open(KindSQLite, "")
	assert.ErrorContains(t, err, "requires a path")

	_, err = Open("redis", "")
	assert.ErrorContains(t, err, "unknown storage kind")

	b, err = Open("SQLite", filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	assert.NoError(t, b.Close())
}

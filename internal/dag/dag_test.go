package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a")
	assert.Len(t, g.nodes, 1)
	nodeA, ok := g.nodes["a"]
	require.True(t, ok)
	assert.Equal(t, "a", nodeA.id)
	assert.NotNil(t, nodeA.deps)
	assert.NotNil(t, nodeA.dependents)

	g.AddNode("a") // Test idempotency
	assert.Len(t, g.nodes, 1)

	g.AddNode("b")
	assert.Len(t, g.nodes, 2)
	_, ok = g.nodes["b"]
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, g.order)
	assert.Equal(t, 2, g.Len())
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("a", "b") // b depends on a
		require.NoError(t, err)

		nodeA := g.nodes["a"]
		nodeB := g.nodes["b"]

		assert.Contains(t, nodeA.dependents, "b")
		assert.Equal(t, nodeB, nodeA.dependents["b"])
		assert.Contains(t, nodeB.deps, "a")
		assert.Equal(t, nodeA, nodeB.deps["a"])
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found")

		err = g.AddEdge("a", "a")
		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"a", "a"}, cycle.Path)
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		g := New()
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("graph with nodes but no edges has no cycles", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		g.AddNode("d")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("a", "c")) // Transitive edge
		require.NoError(t, g.AddEdge("c", "d"))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("simple direct cycle is detected", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a")) // Cycle
		err := g.DetectCycles()
		assert.Error(t, err)
		assert.ErrorContains(t, err, "cycle detected")
	})

	t.Run("longer cycle is detected", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		g.AddNode("d")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("c", "d"))
		require.NoError(t, g.AddEdge("d", "a")) // Cycle back to the start
		err := g.DetectCycles()
		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"a", "b", "c", "d", "a"}, cycle.Path)
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := New()
		// Component 1 (valid)
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))

		// Component 2 (has a cycle)
		g.AddNode("x")
		g.AddNode("y")
		g.AddNode("z")
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "z"))
		require.NoError(t, g.AddEdge("z", "y")) // Cycle

		err := g.DetectCycles()
		assert.Error(t, err)
		assert.ErrorContains(t, err, "cycle detected")
	})
}

func TestDependenciesAndDependents(t *testing.T) {
	g := New()
	for _, id := range []string{"c", "a", "b"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("c", "b"))

	deps, err := g.Dependencies("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, deps, "listed in insertion order")

	dependents, err := g.Dependents("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, dependents)

	_, err = g.Dependencies("dne")
	assert.ErrorContains(t, err, "node not found")
	_, err = g.Dependents("dne")
	assert.ErrorContains(t, err, "node not found")
}

func TestTopologicalSort(t *testing.T) {
	t.Run("independent nodes keep insertion order", func(t *testing.T) {
		g := New()
		for _, id := range []string{"z", "y", "x"} {
			g.AddNode(id)
		}
		order, err := g.TopologicalSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"z", "y", "x"}, order)
	})

	t.Run("dependencies come first, ties by insertion", func(t *testing.T) {
		g := New()
		for _, id := range []string{"analyzer", "filter", "transformer", "other"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("filter", "transformer"))
		require.NoError(t, g.AddEdge("transformer", "analyzer"))
		require.NoError(t, g.AddEdge("filter", "analyzer"))

		order, err := g.TopologicalSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"filter", "transformer", "analyzer", "other"}, order)
	})

	t.Run("every edge is respected", func(t *testing.T) {
		g := New()
		ids := []string{"n0", "n1", "n2", "n3", "n4", "n5", "n6", "n7"}
		for _, id := range ids {
			g.AddNode(id)
		}
		edges := [][2]string{{"n7", "n0"}, {"n5", "n1"}, {"n1", "n0"}, {"n6", "n5"}, {"n3", "n2"}, {"n2", "n4"}}
		for _, e := range edges {
			require.NoError(t, g.AddEdge(e[0], e[1]))
		}

		order, err := g.TopologicalSort()
		require.NoError(t, err)
		require.Len(t, order, len(ids))
		pos := make(map[string]int)
		for i, id := range order {
			pos[id] = i
		}
		for _, e := range edges {
			assert.Less(t, pos[e[0]], pos[e[1]], "%s must precede %s", e[0], e[1])
		}
	})

	t.Run("cycle is rejected", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("c", "b"))

		_, err := g.TopologicalSort()
		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"b", "c", "b"}, cycle.Path)
	})
}

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subsetOf(ids ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func TestGraph_SetDependencies(t *testing.T) {
	g := New()
	g.SetDependencies("c", []string{"a", "b"})

	assert.Equal(t, []string{"a", "b"}, g.Dependencies("c"))
	assert.Equal(t, []string{"c"}, g.Dependents("a"))
	assert.Equal(t, []string{"c"}, g.Dependents("b"))

	t.Run("replacement unlinks old dependencies", func(t *testing.T) {
		g.SetDependencies("c", []string{"b", "d"})
		assert.Equal(t, []string{"b", "d"}, g.Dependencies("c"))
		assert.Empty(t, g.Dependents("a"))
		assert.Equal(t, []string{"c"}, g.Dependents("d"))
	})

	t.Run("empty set drops the entry", func(t *testing.T) {
		g.SetDependencies("c", nil)
		assert.Empty(t, g.Dependencies("c"))
		assert.Empty(t, g.Dependents("b"))
		assert.Empty(t, g.Dependents("d"))
	})
}

func TestGraph_WouldCycle(t *testing.T) {
	g := New()
	g.SetDependencies("b", []string{"a"})
	g.SetDependencies("c", []string{"b"})

	t.Run("no cycle", func(t *testing.T) {
		assert.Nil(t, g.WouldCycle("d", []string{"c"}))
	})

	t.Run("direct cycle", func(t *testing.T) {
		path := g.WouldCycle("a", []string{"b"})
		require.NotNil(t, path)
		assert.Equal(t, []string{"a", "b", "a"}, path)
	})

	t.Run("transitive cycle", func(t *testing.T) {
		path := g.WouldCycle("a", []string{"c"})
		require.NotNil(t, path)
		assert.Equal(t, []string{"a", "c", "b", "a"}, path)
	})

	t.Run("self reference", func(t *testing.T) {
		path := g.WouldCycle("x", []string{"x"})
		require.NotNil(t, path)
		assert.Equal(t, []string{"x", "x"}, path)
	})

	t.Run("rejected check leaves the graph untouched", func(t *testing.T) {
		assert.Empty(t, g.Dependencies("a"))
		assert.Equal(t, []string{"a"}, g.Dependencies("b"))
	})
}

func TestGraph_TransitiveDependents(t *testing.T) {
	g := New()
	g.SetDependencies("b", []string{"a"})
	g.SetDependencies("c", []string{"b"})
	g.SetDependencies("d", []string{"b", "a"})
	g.SetDependencies("e", []string{"x"})

	got := g.TransitiveDependents("a")
	assert.ElementsMatch(t, []string{"b", "c", "d"}, got)

	assert.Empty(t, g.TransitiveDependents("e"))
}

func TestGraph_TopoOrder(t *testing.T) {
	g := New()
	g.SetDependencies("b", []string{"a"})
	g.SetDependencies("c", []string{"a"})
	g.SetDependencies("d", []string{"b", "c"})

	t.Run("orders dependencies first", func(t *testing.T) {
		subset := subsetOf("a", "b", "c", "d")
		order, err := g.TopoOrder(subset)
		require.NoError(t, err)
		require.Len(t, order, 4)

		pos := make(map[string]int, len(order))
		for i, id := range order {
			pos[id] = i
		}
		assert.Less(t, pos["a"], pos["b"])
		assert.Less(t, pos["a"], pos["c"])
		assert.Less(t, pos["b"], pos["d"])
		assert.Less(t, pos["c"], pos["d"])
	})

	t.Run("dependencies outside the subset are inputs", func(t *testing.T) {
		order, err := g.TopoOrder(subsetOf("b", "d"))
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "d"}, order)
	})

	t.Run("cycle is an error", func(t *testing.T) {
		cyclic := New()
		cyclic.SetDependencies("a", []string{"b"})
		cyclic.SetDependencies("b", []string{"a"})
		_, err := cyclic.TopoOrder(subsetOf("a", "b"))
		assert.Error(t, err)
	})
}

func TestGraph_Levels(t *testing.T) {
	g := New()
	g.SetDependencies("b", []string{"a"})
	g.SetDependencies("c", []string{"a"})
	g.SetDependencies("d", []string{"b", "c"})

	subset := subsetOf("a", "b", "c", "d")
	order, err := g.TopoOrder(subset)
	require.NoError(t, err)

	levels := g.Levels(order, subset)
	require.Len(t, levels, 3)
	assert.Equal(t, []string{"a"}, levels[0])
	assert.ElementsMatch(t, []string{"b", "c"}, levels[1])
	assert.Equal(t, []string{"d"}, levels[2])
}

func TestGraph_Rebuild(t *testing.T) {
	g := New()
	g.SetDependencies("b", []string{"a"})
	g.SetDependencies("c", []string{"b"})

	// Wreck the derived index, then restore it.
	g.dependents = make(map[string]map[string]struct{})
	assert.Empty(t, g.Dependents("a"))

	g.Rebuild()
	assert.Equal(t, []string{"b"}, g.Dependents("a"))
	assert.Equal(t, []string{"c"}, g.Dependents("b"))
}

func TestGraph_Remove(t *testing.T) {
	g := New()
	g.SetDependencies("b", []string{"a"})
	g.SetDependencies("c", []string{"b"})

	g.Remove("b")
	assert.Empty(t, g.Dependencies("b"))
	assert.Empty(t, g.Dependents("a"))
	// c still references b; the dependents entry for b survives.
	assert.Equal(t, []string{"c"}, g.Dependents("b"))
}

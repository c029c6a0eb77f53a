// Package graph tracks the dependency structure between cells: a forward
// map from each cell to the cells its formula references, and the derived
// reverse index from each cell to its dependents. It provides the cycle
// check that guards mutations, transitive dependent collection, Kahn
// topological ordering, and the level assignment that drives parallel
// recomputation. The graph holds ids only; cell contents live in the engine.
package graph

import (
	"fmt"
	"sort"
)

// Graph is not safe for concurrent use; the engine serializes access.
type Graph struct {
	deps       map[string]map[string]struct{}
	dependents map[string]map[string]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		deps:       make(map[string]map[string]struct{}),
		dependents: make(map[string]map[string]struct{}),
	}
}

// Dependencies returns the committed dependency set of id, sorted.
func (g *Graph) Dependencies(id string) []string {
	return sortedKeys(g.deps[id])
}

// Dependents returns the ids directly depending on id, sorted.
func (g *Graph) Dependents(id string) []string {
	return sortedKeys(g.dependents[id])
}

// SetDependencies replaces id's dependency set, unlinking id from the
// dependents entry of every old dependency, linking it under every new one,
// and pruning entries that become empty.
func (g *Graph) SetDependencies(id string, deps []string) {
	for old := range g.deps[id] {
		if set, ok := g.dependents[old]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(g.dependents, old)
			}
		}
	}

	if len(deps) == 0 {
		delete(g.deps, id)
		return
	}
	next := make(map[string]struct{}, len(deps))
	for _, dep := range deps {
		next[dep] = struct{}{}
		set, ok := g.dependents[dep]
		if !ok {
			set = make(map[string]struct{})
			g.dependents[dep] = set
		}
		set[id] = struct{}{}
	}
	g.deps[id] = next
}

// Remove clears id's own dependency links. The dependents entry for id is
// left alone: it is derived from the surviving cells' dependency sets, and
// those cells still reference id.
func (g *Graph) Remove(id string) {
	g.SetDependencies(id, nil)
}

// WouldCycle reports whether committing candidateDeps as id's dependency
// set would close a cycle, by walking the already-committed dependency sets
// from the candidates. It returns a dependency path from id back to itself,
// or nil. The caller must run this before SetDependencies; a rejected cycle
// leaves the graph untouched.
func (g *Graph) WouldCycle(id string, candidateDeps []string) []string {
	visited := make(map[string]struct{})

	// visit returns the reverse path from the first node that reaches id.
	var visit func(cur string) []string
	visit = func(cur string) []string {
		if cur == id {
			return []string{cur}
		}
		if _, done := visited[cur]; done {
			return nil
		}
		visited[cur] = struct{}{}
		for dep := range g.deps[cur] {
			if path := visit(dep); path != nil {
				return append(path, cur)
			}
		}
		return nil
	}

	for _, dep := range candidateDeps {
		if path := visit(dep); path != nil {
			path = append(path, id)
			reverse(path)
			return path
		}
	}
	return nil
}

// TransitiveDependents collects every cell reachable from id through the
// dependents index, which is everything a change to id could affect.
func (g *Graph) TransitiveDependents(id string) []string {
	var result []string
	visited := map[string]struct{}{id: {}}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dep := range g.dependents[cur] {
			if _, ok := visited[dep]; ok {
				continue
			}
			visited[dep] = struct{}{}
			result = append(result, dep)
			queue = append(queue, dep)
		}
	}
	return result
}

// TopoOrder runs Kahn's algorithm on the subgraph induced by subset. It
// fails when not every node can be ordered, which is unreachable through
// Set (cycles are pre-rejected) but possible after loading a cyclic file.
func (g *Graph) TopoOrder(subset map[string]struct{}) ([]string, error) {
	inDegree := make(map[string]int, len(subset))
	for id := range subset {
		inDegree[id] = 0
	}
	for id := range subset {
		for dep := range g.deps[id] {
			if _, in := subset[dep]; in {
				inDegree[id]++
			}
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(subset))
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for dep := range g.dependents[cur] {
			if _, in := subset[dep]; !in {
				continue
			}
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(subset) {
		return nil, fmt.Errorf("dependency cycle prevents ordering %d of %d cells", len(subset)-len(order), len(subset))
	}
	return order, nil
}

// Levels groups a topological order into batches: level(c) is one more than
// the highest level among c's dependencies inside subset, or zero. Cells
// sharing a level have no dependency relationship and may be evaluated
// concurrently.
func (g *Graph) Levels(order []string, subset map[string]struct{}) [][]string {
	levelOf := make(map[string]int, len(order))
	var levels [][]string
	for _, id := range order {
		level := 0
		for dep := range g.deps[id] {
			if _, in := subset[dep]; !in {
				continue
			}
			if l := levelOf[dep] + 1; l > level {
				level = l
			}
		}
		levelOf[id] = level
		for len(levels) <= level {
			levels = append(levels, nil)
		}
		levels[level] = append(levels[level], id)
	}
	return levels
}

// Rebuild reconstructs the dependents index from the forward sets. The
// index is derived state; load and recalculate use this to restore the
// invariant from scratch.
func (g *Graph) Rebuild() {
	g.dependents = make(map[string]map[string]struct{})
	for id, deps := range g.deps {
		for dep := range deps {
			set, ok := g.dependents[dep]
			if !ok {
				set = make(map[string]struct{})
				g.dependents[dep] = set
			}
			set[id] = struct{}{}
		}
	}
}

// Reset drops all edges.
func (g *Graph) Reset() {
	g.deps = make(map[string]map[string]struct{})
	g.dependents = make(map[string]map[string]struct{})
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// Package graph provides the item dependency graph and the algorithms that
// walk it: fractional credit/penalty propagation and repetition-compression
// (knockout) selection.
//
// The graph is directed and weighted. An edge A -> B with weight w means
// mastering A implies fraction w of mastery of B. Cycles are legal content;
// every traversal threads an explicit visited set and never assumes a DAG.
package graph

import "sort"

// Edge is one weighted dependency edge.
type Edge struct {
	// Target is the item the edge points at.
	Target string

	// Weight is the fraction of credit or penalty that flows across the
	// edge, in (0,1].
	Weight float64
}

// DependencyGraph holds two adjacency views over the same edge set.
//
// It is built once from content metadata and treated as read-only afterward;
// concurrent propagation and selection calls share it without copying.
type DependencyGraph struct {
	encompasses   map[string][]Edge
	encompassedBy map[string][]Edge
}

// New returns an empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		encompasses:   make(map[string][]Edge),
		encompassedBy: make(map[string][]Edge),
	}
}

// AddEdge records that from encompasses to with the given weight.
//
// Weights are clamped into (0,1]; non-positive weights are dropped because a
// zero-weight edge can never carry credit. Both adjacency views are updated.
func (g *DependencyGraph) AddEdge(from, to string, weight float64) {
	if weight <= 0 || from == "" || to == "" || from == to {
		return
	}
	if weight > 1 {
		weight = 1
	}
	g.encompasses[from] = append(g.encompasses[from], Edge{Target: to, Weight: weight})
	g.encompassedBy[to] = append(g.encompassedBy[to], Edge{Target: from, Weight: weight})
}

// Encompasses returns the items whose mastery is implied by itemID.
func (g *DependencyGraph) Encompasses(itemID string) []Edge {
	return g.encompasses[itemID]
}

// EncompassedBy returns the items whose mastery implies itemID, used for
// upward penalty flow.
func (g *DependencyGraph) EncompassedBy(itemID string) []Edge {
	return g.encompassedBy[itemID]
}

// Items returns every item that appears in the edge set, sorted.
func (g *DependencyGraph) Items() []string {
	seen := make(map[string]bool, len(g.encompasses)+len(g.encompassedBy))
	for id := range g.encompasses {
		seen[id] = true
	}
	for id := range g.encompassedBy {
		seen[id] = true
	}
	items := make([]string, 0, len(seen))
	for id := range seen {
		items = append(items, id)
	}
	sort.Strings(items)
	return items
}

// EdgeCount returns the number of edges in the graph.
func (g *DependencyGraph) EdgeCount() int {
	n := 0
	for _, edges := range g.encompasses {
		n += len(edges)
	}
	return n
}

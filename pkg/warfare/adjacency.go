package warfare

import "slices"

// AdjacencyGraph is an undirected province adjacency lookup. It is built once
// per scenario and treated as read-only while ticks run.
type AdjacencyGraph struct {
	neighbors map[ProvinceID][]ProvinceID
}

// Edge is an undirected connection between two provinces.
type Edge [2]ProvinceID

// NewAdjacencyGraph builds a graph from an edge list. Duplicate edges and
// self-loops are ignored.
func NewAdjacencyGraph(edges []Edge) *AdjacencyGraph {
	g := &AdjacencyGraph{neighbors: make(map[ProvinceID][]ProvinceID)}
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

// AddEdge connects a and b, keeping each neighbor list sorted.
func (g *AdjacencyGraph) AddEdge(a, b ProvinceID) {
	if a == b {
		return
	}
	g.neighbors[a] = insertSorted(g.neighbors[a], b)
	g.neighbors[b] = insertSorted(g.neighbors[b], a)
}

func insertSorted(list []ProvinceID, p ProvinceID) []ProvinceID {
	i, found := slices.BinarySearch(list, p)
	if found {
		return list
	}
	return slices.Insert(list, i, p)
}

// Neighbors returns the sorted neighbors of p. The slice must not be modified.
func (g *AdjacencyGraph) Neighbors(p ProvinceID) []ProvinceID {
	if g == nil {
		return nil
	}
	return g.neighbors[p]
}

// Adjacent reports whether a and b share a border.
func (g *AdjacencyGraph) Adjacent(a, b ProvinceID) bool {
	_, found := slices.BinarySearch(g.Neighbors(a), b)
	return found
}

// Edges returns every edge once, ordered by (low, high).
func (g *AdjacencyGraph) Edges() []Edge {
	var out []Edge
	for _, a := range sortedKeys(g.neighbors) {
		for _, b := range g.neighbors[a] {
			if a < b {
				out = append(out, Edge{a, b})
			}
		}
	}
	return out
}

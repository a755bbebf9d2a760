package common

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/mundrapranay/silhouette-kcore/internal/parallel"
)

// GraphData is a graph as read from its source: a flat edge list.
type GraphData struct {
	// Number of vertices; ids are dense in [0, NumVertices).
	NumVertices int

	// Number of edges as listed in the input
	NumEdges int

	// Edges: list of (u, v) pairs where u and v are vertex IDs
	Edges []Edge

	// Directed is false when every listed edge stands for both directions.
	Directed bool
}

// Edge represents a single edge in the graph
type Edge struct {
	U uint32 // Source vertex
	V uint32 // Target vertex
}

// Build converts the edge list into an immutable CSR graph. Undirected
// input is symmetrized.
func (d *GraphData) Build(workers int) (*Graph, error) {
	return BuildGraph(d.NumVertices, d.Edges, !d.Directed, workers)
}

// Graph is an immutable compressed-sparse-row adjacency structure. Each
// adjacency list is sorted and free of duplicates and self-loops.
type Graph struct {
	offsets   []uint64
	edges     []uint32
	symmetric bool
}

// NewGraph wraps existing CSR arrays. offsets must have n+1 entries,
// start at 0, be non-decreasing and end at len(edges); every edge target
// must be below n. Adjacency lists are sorted and de-duplicated in place,
// so the caller must not reuse the arrays. A graph claimed symmetric is
// checked, and marked directed if some edge lacks its reverse.
func NewGraph(offsets []uint64, edges []uint32, symmetric bool, workers int) (*Graph, error) {
	if len(offsets) == 0 || offsets[0] != 0 {
		return nil, fmt.Errorf("offsets must start at 0")
	}
	n := len(offsets) - 1
	if offsets[n] != uint64(len(edges)) {
		return nil, fmt.Errorf("offsets end at %d, but there are %d edges", offsets[n], len(edges))
	}
	for i := 0; i < n; i++ {
		if offsets[i] > offsets[i+1] {
			return nil, fmt.Errorf("offsets decrease at vertex %d", i)
		}
	}
	for i, v := range edges {
		if int(v) >= n {
			return nil, fmt.Errorf("edge %d points at vertex %d, graph has %d vertices", i, v, n)
		}
	}
	g := normalize(n, offsets, edges, symmetric, workers)
	if symmetric && !g.hasReverseEdges(workers) {
		g.symmetric = false
	}
	return g, nil
}

// BuildGraph builds a CSR graph over numVertices vertices from edges. When
// numVertices is 0 it is inferred as the largest id plus one. With
// symmetrize every edge is inserted in both directions. Duplicate edges
// and self-loops are dropped.
func BuildGraph(numVertices int, edges []Edge, symmetrize bool, workers int) (*Graph, error) {
	n := numVertices
	for _, e := range edges {
		hi := int(max(e.U, e.V))
		if numVertices > 0 && hi >= numVertices {
			return nil, fmt.Errorf("edge (%d, %d) is out of range for %d vertices", e.U, e.V, numVertices)
		}
		if hi+1 > n {
			n = hi + 1
		}
	}

	deg := make([]uint64, n+1)
	for _, e := range edges {
		deg[e.U]++
		if symmetrize {
			deg[e.V]++
		}
	}
	offsets := make([]uint64, n+1)
	for v := 0; v < n; v++ {
		offsets[v+1] = offsets[v] + deg[v]
	}
	raw := make([]uint32, offsets[n])
	fill := make([]uint64, n)
	copy(fill, offsets[:n])
	for _, e := range edges {
		raw[fill[e.U]] = e.V
		fill[e.U]++
		if symmetrize {
			raw[fill[e.V]] = e.U
			fill[e.V]++
		}
	}

	return normalize(n, offsets, raw, symmetrize, workers), nil
}

// normalize sorts every adjacency list of the CSR arrays in place, drops
// duplicates and self-loops, and compacts the result into a new Graph.
func normalize(n int, offsets []uint64, raw []uint32, symmetric bool, workers int) *Graph {
	kept := make([]uint64, n)
	parallel.For(workers, n, 1024, func(lo, hi int) {
		for v := lo; v < hi; v++ {
			adj := raw[offsets[v]:offsets[v+1]]
			slices.Sort(adj)
			w := 0
			for i, u := range adj {
				if int(u) == v || (i > 0 && u == adj[i-1]) {
					continue
				}
				adj[w] = u
				w++
			}
			kept[v] = uint64(w)
		}
	})

	compact := make([]uint64, n+1)
	for v := 0; v < n; v++ {
		compact[v+1] = compact[v] + kept[v]
	}
	if compact[n] == offsets[n] {
		return &Graph{offsets: offsets, edges: raw, symmetric: symmetric}
	}
	out := make([]uint32, compact[n])
	parallel.For(workers, n, 1024, func(lo, hi int) {
		for v := lo; v < hi; v++ {
			copy(out[compact[v]:compact[v+1]], raw[offsets[v]:offsets[v]+kept[v]])
		}
	})
	return &Graph{offsets: compact, edges: out, symmetric: symmetric}
}

// hasReverseEdges reports whether every edge u->v has v->u. Adjacency
// lists must already be sorted.
func (g *Graph) hasReverseEdges(workers int) bool {
	var missing atomic.Bool
	parallel.For(workers, g.NumVertices(), 1024, func(lo, hi int) {
		for u := lo; u < hi && !missing.Load(); u++ {
			for _, v := range g.Neighbors(uint32(u)) {
				if _, ok := slices.BinarySearch(g.Neighbors(v), uint32(u)); !ok {
					missing.Store(true)
					return
				}
			}
		}
	})
	return !missing.Load()
}

// NumVertices returns n.
func (g *Graph) NumVertices() int { return len(g.offsets) - 1 }

// NumEdges returns m, the number of directed adjacency entries.
func (g *Graph) NumEdges() int { return len(g.edges) }

// Degree returns the out-degree of v.
func (g *Graph) Degree(v uint32) uint32 {
	return uint32(g.offsets[v+1] - g.offsets[v])
}

// Neighbors returns the out-neighbours of v. The slice must not be modified.
func (g *Graph) Neighbors(v uint32) []uint32 {
	return g.edges[g.offsets[v]:g.offsets[v+1]]
}

// Symmetric reports whether every edge has its reverse in the graph.
func (g *Graph) Symmetric() bool { return g.symmetric }

// CSR exposes the underlying arrays. They must not be modified.
func (g *Graph) CSR() (offsets []uint64, edges []uint32) { return g.offsets, g.edges }

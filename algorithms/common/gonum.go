package common

import (
	"slices"

	"gonum.org/v1/gonum/graph"
)

// FromGonum converts an undirected gonum graph into a symmetric CSR graph.
// Vertices are numbered by ascending gonum node ID; ids[v] is the gonum
// ID of vertex v.
func FromGonum(g graph.Undirected, workers int) (*Graph, []int64, error) {
	nodes := graph.NodesOf(g.Nodes())
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	slices.Sort(ids)
	index := make(map[int64]uint32, len(ids))
	for i, id := range ids {
		index[id] = uint32(i)
	}

	var edges []Edge
	for _, id := range ids {
		u := index[id]
		to := g.From(id)
		for to.Next() {
			v := index[to.Node().ID()]
			if u < v {
				edges = append(edges, Edge{U: u, V: v})
			}
		}
	}
	cg, err := BuildGraph(len(ids), edges, true, workers)
	if err != nil {
		return nil, nil, err
	}
	return cg, ids, nil
}

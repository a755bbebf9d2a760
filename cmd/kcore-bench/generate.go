package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/mundrapranay/silhouette-kcore/algorithms/common"
)

// Graph kinds understood by generate.
const (
	kindUniform = "uniform"
	kindSkewed  = "skewed"
)

// generate builds a symmetric graph with n vertices from m random edges.
// Uniform draws both endpoints uniformly (G(n, m)); skewed draws them from
// a Zipf distribution, so low ids collect most of the edges.
func generate(kind string, n, m int, seed uint64, workers int) (*common.Graph, error) {
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive, got %d", n)
	}
	r := rand.New(rand.NewPCG(seed, seed+1))

	var draw func() uint32
	switch kind {
	case kindUniform:
		draw = func() uint32 { return uint32(r.IntN(n)) }
	case kindSkewed:
		zipf := rand.NewZipf(r, 1.2, 4, uint64(n-1))
		draw = func() uint32 { return uint32(zipf.Uint64()) }
	default:
		return nil, fmt.Errorf("unknown graph kind %q", kind)
	}

	edges := make([]common.Edge, m)
	for i := range edges {
		edges[i] = common.Edge{U: draw(), V: draw()}
	}
	return common.BuildGraph(n, edges, true, workers)
}

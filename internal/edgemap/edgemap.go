// Package edgemap implements the frontier edge-map: given a set of active
// vertices it visits only their incident edges, counts, for every
// destination, how many active vertices point at it, and hands each touched
// destination to a callback exactly once.
package edgemap

import (
	"sort"
	"sync/atomic"

	"github.com/mundrapranay/silhouette-kcore/internal/bitset"
	"github.com/mundrapranay/silhouette-kcore/internal/bucket"
	"github.com/mundrapranay/silhouette-kcore/internal/parallel"
)

// Graph is the read-only adjacency view the edge-map needs.
type Graph interface {
	NumVertices() int
	NumEdges() int
	Degree(v uint32) uint32
	Neighbors(v uint32) []uint32
	// Symmetric reports whether every edge (u, v) has a reverse (v, u).
	Symmetric() bool
}

// DefaultDenseDivisor switches to the dense pass when the frontier and
// its out-edges exceed m/20.
const DefaultDenseDivisor = 20

// Options tunes an EdgeMap. The zero value is usable.
type Options struct {
	// Workers bounds parallelism; <= 0 means GOMAXPROCS.
	Workers int
	// DenseDivisor selects the dense pass when |active| + out-edges of
	// active > m/DenseDivisor. Zero means DefaultDenseDivisor; negative
	// disables the dense pass.
	DenseDivisor int
	// Grain is the number of edges (sparse pass) or vertices (dense pass)
	// per parallel chunk. Zero means parallel.DefaultGrain.
	Grain int
}

// Outcome is what the per-destination callback decides: either no update,
// or a new key for the destination.
type Outcome struct {
	vertex uint32
	key    uint32
	emit   bool
}

// NoUpdate drops the destination.
func NoUpdate() Outcome { return Outcome{} }

// Emit schedules vertex v under key.
func Emit(v, key uint32) Outcome { return Outcome{vertex: v, key: key, emit: true} }

// Value unpacks the outcome; ok is false for NoUpdate.
func (o Outcome) Value() (v, key uint32, ok bool) { return o.vertex, o.key, o.emit }

// ApplyFunc receives a destination and the number of active vertices
// adjacent to it. It runs once per destination per call; different
// destinations run in parallel.
type ApplyFunc func(v, count uint32) Outcome

// EdgeMap holds the scratch space reused across calls. It is not safe for
// concurrent calls to Count.
type EdgeMap struct {
	g        Graph
	opts     Options
	counts   []uint32
	frontier *bitset.Set
}

// New prepares an edge-map over g.
func New(g Graph, opts Options) *EdgeMap {
	if opts.DenseDivisor == 0 {
		opts.DenseDivisor = DefaultDenseDivisor
	}
	if opts.Grain <= 0 {
		opts.Grain = parallel.DefaultGrain
	}
	opts.Workers = parallel.Workers(opts.Workers)
	em := &EdgeMap{
		g:      g,
		opts:   opts,
		counts: make([]uint32, g.NumVertices()),
	}
	if g.Symmetric() && opts.DenseDivisor > 0 {
		em.frontier = bitset.New(g.NumVertices())
	}
	return em
}

// Count runs one edge-map round over active and returns the updates that
// apply emitted. Work is proportional to the out-degrees of active unless
// the frontier is large enough for the dense pass.
func (em *EdgeMap) Count(active []uint32, apply ApplyFunc) []bucket.Update {
	if len(active) == 0 {
		return nil
	}
	offsets := make([]uint64, len(active)+1)
	for i, u := range active {
		offsets[i+1] = offsets[i] + uint64(em.g.Degree(u))
	}
	if em.useDense(len(active), offsets[len(active)]) {
		return em.dense(active, apply)
	}
	return em.sparse(active, offsets, apply)
}

func (em *EdgeMap) useDense(size int, outEdges uint64) bool {
	if em.frontier == nil {
		return false
	}
	return uint64(size)+outEdges > uint64(em.g.NumEdges())/uint64(em.opts.DenseDivisor)
}

// sparse pushes along the out-edges of active. The first contributor to a
// destination's counter claims it; after the barrier each claimed
// destination is applied once and its counter reset.
func (em *EdgeMap) sparse(active []uint32, offsets []uint64, apply ApplyFunc) []bucket.Update {
	total := int(offsets[len(active)])
	touched := parallel.Pack(em.opts.Workers, total, em.opts.Grain, func(lo, hi int, out []uint32) []uint32 {
		i := sort.Search(len(active), func(j int) bool { return offsets[j+1] > uint64(lo) })
		for e := lo; e < hi; i++ {
			nghs := em.g.Neighbors(active[i])
			start := e - int(offsets[i])
			end := int(offsets[i+1] - offsets[i])
			if rest := hi - int(offsets[i]); rest < end {
				end = rest
			}
			for _, v := range nghs[start:end] {
				if atomic.AddUint32(&em.counts[v], 1) == 1 {
					out = append(out, v)
				}
			}
			e += end - start
		}
		return out
	})
	return parallel.Pack(em.opts.Workers, len(touched), em.opts.Grain, func(lo, hi int, out []bucket.Update) []bucket.Update {
		for _, v := range touched[lo:hi] {
			c := em.counts[v]
			em.counts[v] = 0
			if w, key, ok := apply(v, c).Value(); ok {
				out = append(out, bucket.Update{Vertex: w, Bucket: key})
			}
		}
		return out
	})
}

// dense pulls: every vertex counts its neighbours inside the frontier.
// Only valid on symmetric graphs, where in-neighbours are out-neighbours.
func (em *EdgeMap) dense(active []uint32, apply ApplyFunc) []bucket.Update {
	parallel.For(em.opts.Workers, len(active), em.opts.Grain, func(lo, hi int) {
		for _, u := range active[lo:hi] {
			em.frontier.TestAndSet(u)
		}
	})
	n := em.g.NumVertices()
	out := parallel.Pack(em.opts.Workers, n, em.opts.Grain, func(lo, hi int, out []bucket.Update) []bucket.Update {
		for i := lo; i < hi; i++ {
			v := uint32(i)
			var c uint32
			for _, u := range em.g.Neighbors(v) {
				if em.frontier.Test(u) {
					c++
				}
			}
			if c == 0 {
				continue
			}
			if w, key, ok := apply(v, c).Value(); ok {
				out = append(out, bucket.Update{Vertex: w, Bucket: key})
			}
		}
		return out
	})
	parallel.For(em.opts.Workers, len(active), em.opts.Grain, func(lo, hi int) {
		for _, u := range active[lo:hi] {
			em.frontier.Clear(u)
		}
	})
	return out
}

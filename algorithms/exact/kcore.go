package exact

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mundrapranay/silhouette-kcore/algorithms/common"
	"github.com/mundrapranay/silhouette-kcore/internal/bitset"
	"github.com/mundrapranay/silhouette-kcore/internal/bucket"
	"github.com/mundrapranay/silhouette-kcore/internal/edgemap"
	"github.com/mundrapranay/silhouette-kcore/internal/parallel"
)

// Options configures KCore. The zero value uses 128 buckets and every core.
type Options struct {
	// NumBuckets must be a power of two; 0 means common.DefaultNumBuckets.
	NumBuckets int

	// Workers bounds parallelism; 0 means GOMAXPROCS.
	Workers int

	// DenseDivisor is passed to the edge-map (see edgemap.Options).
	DenseDivisor int

	// Logger receives per-round debug output. The zero value discards.
	Logger zerolog.Logger

	// Observer, when set, sees every frontier before it is processed.
	// It must not retain or modify active.
	Observer func(k uint32, active []uint32)
}

// Decomposition is the result of KCore.
type Decomposition struct {
	// Cores[v] is the core number of vertex v.
	Cores   []uint32
	MaxCore uint32
	SumCore uint64
	Rounds  int
	Elapsed time.Duration
}

// peeler is the state of one decomposition: the residual degrees, the
// finalization flags and the two engines that drive them.
type peeler struct {
	degrees *common.VertexArray[uint32]
	final   *bitset.Set
	buckets *bucket.Store
	edges   *edgemap.EdgeMap
	k       uint32
}

// KCore computes the core number of every vertex of g by peeling: it
// repeatedly takes the vertices of lowest residual degree k, removes their
// edges from their neighbours and clamps every neighbour whose residual
// degree falls to k or below at k.
//
// g should be symmetric; on a directed graph the out-edges of a removed
// vertex are the ones that decrement residual degrees.
func KCore(g *common.Graph, opts Options) (*Decomposition, error) {
	if opts.NumBuckets == 0 {
		opts.NumBuckets = common.DefaultNumBuckets
	}
	if err := bucket.ValidateCount(opts.NumBuckets); err != nil {
		return nil, err
	}
	start := time.Now()
	workers := parallel.Workers(opts.Workers)
	n := g.NumVertices()

	degrees := common.NewVertexArray(n, workers, g.Degree)
	buckets, err := bucket.New(n, degrees.Get, opts.NumBuckets, workers)
	if err != nil {
		return nil, err
	}
	p := &peeler{
		degrees: degrees,
		final:   bitset.New(n),
		buckets: buckets,
		edges:   edgemap.New(g, edgemap.Options{Workers: workers, DenseDivisor: opts.DenseDivisor}),
	}

	rounds := 0
	for !buckets.Done() {
		bkt := buckets.NextBucket()
		if bkt.Empty() {
			return nil, fmt.Errorf("bucket store ran dry after %d of %d vertices", buckets.Finished(), n)
		}
		rounds++
		p.k = bkt.ID
		if opts.Observer != nil {
			opts.Observer(bkt.ID, bkt.Identifiers)
		}
		moved := p.edges.Count(bkt.Identifiers, p.apply)
		buckets.UpdateBuckets(moved)

		opts.Logger.Debug().
			Int("round", rounds).
			Uint32("k", bkt.ID).
			Int("active", len(bkt.Identifiers)).
			Int("moved", len(moved)).
			Int("finished", buckets.Finished()).
			Msg("peeled bucket")
	}

	cores := degrees.Slice()
	d := &Decomposition{
		Cores:   cores,
		MaxCore: maxCore(cores, workers),
		SumCore: parallel.Sum(workers, n, parallel.DefaultGrain, func(i int) uint64 { return uint64(cores[i]) }),
		Rounds:  rounds,
		Elapsed: time.Since(start),
	}
	opts.Logger.Info().
		Int("n", n).
		Int("m", g.NumEdges()).
		Int("rounds", rounds).
		Uint32("max_core", d.MaxCore).
		Dur("elapsed", d.Elapsed).
		Msg("k-core decomposition finished")
	return d, nil
}

// apply is the per-destination update: v lost removed neighbours of
// residual degree k this round.
func (p *peeler) apply(v, removed uint32) edgemap.Outcome {
	if p.final.Test(v) {
		return edgemap.NoUpdate()
	}
	deg := p.degrees.Get(v)
	if deg <= p.k {
		return edgemap.NoUpdate()
	}
	newDeg := p.k
	if removed < deg-p.k {
		newDeg = deg - removed
	}
	if newDeg == p.k && p.final.TestAndSet(v) {
		return edgemap.NoUpdate()
	}
	p.degrees.Set(v, newDeg)
	return edgemap.Emit(v, p.buckets.GetBucket(deg, newDeg))
}

func maxCore(cores []uint32, workers int) uint32 {
	partial := parallel.Pack(workers, len(cores), parallel.DefaultGrain, func(lo, hi int, out []uint32) []uint32 {
		var m uint32
		for _, c := range cores[lo:hi] {
			m = max(m, c)
		}
		return append(out, m)
	})
	var m uint32
	for _, c := range partial {
		m = max(m, c)
	}
	return m
}

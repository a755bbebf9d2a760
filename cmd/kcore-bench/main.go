package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/mundrapranay/silhouette-kcore/algorithms/common"
	"github.com/mundrapranay/silhouette-kcore/algorithms/exact"
	"github.com/mundrapranay/silhouette-kcore/internal/parallel"
)

var (
	numVertices = flag.Int("n", 1_000_000, "Number of vertices")
	numEdges    = flag.Int("m", 10_000_000, "Number of generated edges (before de-duplication)")
	kind        = flag.String("kind", kindSkewed, "Graph kind: uniform or skewed")
	seed        = flag.Uint64("seed", 1, "Generator seed")
	runs        = flag.Int("runs", 3, "Number of timed runs")
	numBuckets  = flag.Int("nb", common.DefaultNumBuckets, "Number of buckets, a power of two")
	numWorkers  = flag.Int("workers", 0, "Number of parallel workers (default all cores)")
	verbose     = flag.Bool("verbose", false, "Enable per-round debug logging")
)

func main() {
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger := common.NewLogger(os.Stderr, level)
	workers := parallel.Workers(*numWorkers)

	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("k-core benchmark\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("   Graph kind:       %s\n", *kind)
	fmt.Printf("   Vertices:         %d\n", *numVertices)
	fmt.Printf("   Generated edges:  %d\n", *numEdges)
	fmt.Printf("   Buckets:          %d\n", *numBuckets)
	fmt.Printf("   Workers:          %d\n", workers)
	fmt.Printf("   Runs:             %d\n", *runs)
	fmt.Println()

	genStart := time.Now()
	g, err := generate(*kind, *numVertices, *numEdges, *seed, workers)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to generate graph")
	}
	logger.Info().
		Int("vertices", g.NumVertices()).
		Int("edges", g.NumEdges()).
		Dur("elapsed", time.Since(genStart)).
		Msg("Generated graph")

	var (
		reference *exact.Decomposition
		times     []time.Duration
	)
	for run := 0; run < *runs; run++ {
		d, err := exact.KCore(g, exact.Options{NumBuckets: *numBuckets, Workers: workers, Logger: logger})
		if err != nil {
			logger.Fatal().Err(err).Msg("Decomposition failed")
		}
		if reference == nil {
			reference = d
		} else if !slices.Equal(reference.Cores, d.Cores) {
			logger.Fatal().Int("run", run).Msg("Core numbers differ between runs")
		}
		times = append(times, d.Elapsed)
		logger.Info().Int("run", run).Dur("elapsed", d.Elapsed).Int("rounds", d.Rounds).Msg("Run finished")
	}
	if reference == nil {
		return
	}

	slices.Sort(times)
	median := times[len(times)/2]
	fmt.Println()
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("Results\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("   Max core:         %d\n", reference.MaxCore)
	fmt.Printf("   Sum of cores:     %d\n", reference.SumCore)
	fmt.Printf("   Rounds:           %d\n", reference.Rounds)
	fmt.Printf("   Fastest run:      %v\n", times[0])
	fmt.Printf("   Median run:       %v\n", median)
	if median > 0 {
		fmt.Printf("   Edges/second:     %.0f\n", float64(g.NumEdges())/median.Seconds())
	}
	fmt.Printf("   Deterministic:    yes (%d runs)\n", len(times))
}

package exact

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mundrapranay/silhouette-kcore/algorithms/common"
	"github.com/mundrapranay/silhouette-kcore/internal/bucket"
	"github.com/mundrapranay/silhouette-kcore/internal/parallel"
)

// KCoreAlgorithm exposes KCore through the algorithm registry.
//
// Parameters:
//   - num_buckets: open bucket count, a power of two (default 128)
//   - num_workers: parallelism, 0 for GOMAXPROCS
//   - dense_divisor: edge-map dense threshold divisor, negative disables
type KCoreAlgorithm struct {
	graph *common.Graph
	opts  Options

	mu     sync.Mutex
	result *common.AlgorithmResult
}

// NewKCore creates a new exact k-core algorithm instance
func NewKCore() common.GraphAlgorithm {
	return &KCoreAlgorithm{}
}

func (a *KCoreAlgorithm) Name() string {
	return "kcore"
}

func (a *KCoreAlgorithm) Type() common.AlgorithmType {
	return common.AlgorithmTypeExact
}

func (a *KCoreAlgorithm) Initialize(ctx context.Context, graph *common.Graph, config map[string]interface{}) error {
	if graph == nil {
		return fmt.Errorf("graph is nil")
	}
	nb, err := common.IntParam(config, "num_buckets", common.DefaultNumBuckets)
	if err != nil {
		return err
	}
	if err := bucket.ValidateCount(nb); err != nil {
		return err
	}
	workers, err := common.IntParam(config, "num_workers", 0)
	if err != nil {
		return err
	}
	divisor, err := common.IntParam(config, "dense_divisor", 0)
	if err != nil {
		return err
	}
	a.graph = graph
	a.opts = Options{NumBuckets: nb, Workers: workers, DenseDivisor: divisor}
	return nil
}

func (a *KCoreAlgorithm) Execute(ctx context.Context) (*common.AlgorithmResult, error) {
	if a.graph == nil {
		return nil, fmt.Errorf("kcore is not initialized")
	}
	opts := a.opts
	opts.Logger = zerolog.Ctx(ctx).With().Str("algorithm", a.Name()).Logger()

	d, err := KCore(a.graph, opts)
	if err != nil {
		return nil, fmt.Errorf("k-core decomposition failed: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.result = &common.AlgorithmResult{
		AlgorithmName:    a.Name(),
		NumRounds:        d.Rounds,
		Converged:        true,
		ConvergenceRound: d.Rounds,
		Results: map[string]interface{}{
			common.ResultCores: d.Cores,
			"max_core":         d.MaxCore,
			"sum_core":         d.SumCore,
		},
		Metadata: map[string]interface{}{
			"num_vertices": a.graph.NumVertices(),
			"num_edges":    a.graph.NumEdges(),
			"num_buckets":  opts.NumBuckets,
			"num_workers":  parallel.Workers(opts.Workers),
			"elapsed":      d.Elapsed,
		},
	}
	return a.result, nil
}

func (a *KCoreAlgorithm) GetResult() *common.AlgorithmResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

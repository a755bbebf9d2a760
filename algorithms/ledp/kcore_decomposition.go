package ledp

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mundrapranay/silhouette-kcore/algorithms/common"
	"github.com/mundrapranay/silhouette-kcore/algorithms/noise"
	"github.com/mundrapranay/silhouette-kcore/internal/bitset"
	"github.com/mundrapranay/silhouette-kcore/internal/parallel"
)

// KCoreDecomposition approximates core numbers under local edge
// differential privacy. Every vertex climbs a level data structure one
// level per round while enough of its neighbours sit on the same level;
// both the degree it reveals and the per-round neighbour count are
// perturbed with two-sided geometric noise.
//
// Parameters:
//   - psi: level group growth, thresholds are (1+psi)^group (default 0.5)
//   - epsilon: privacy budget (default 1.0)
//   - factor: share of epsilon spent on the degree (default 0.5)
//   - lambda: estimate slack, estimates are (2+lambda)(1+psi)^g (default 0.5)
//   - bias, bias_factor: subtract the expected noise from degrees and add
//     it to neighbour counts (default off)
//   - noise: disable to run the level walk without perturbation (default on)
//   - num_workers: parallelism, 0 for GOMAXPROCS
type KCoreDecomposition struct {
	graph   *common.Graph
	workers int

	psi            float64
	epsilon        float64
	factor         float64
	lambda         float64
	bias           bool
	biasFactor     int
	noise          bool
	levelsPerGroup float64
	numberOfRounds int

	// Algorithm constants
	superStep1GeomFactor float64
	superStep2GeomFactor float64

	mu     sync.Mutex
	result *common.AlgorithmResult
}

// NewKCoreDecomposition creates a new k-core decomposition algorithm instance
func NewKCoreDecomposition() common.GraphAlgorithm {
	return &KCoreDecomposition{}
}

func (a *KCoreDecomposition) Name() string {
	return "kcore-decomposition"
}

func (a *KCoreDecomposition) Type() common.AlgorithmType {
	return common.AlgorithmTypeLEDP
}

func (a *KCoreDecomposition) Initialize(ctx context.Context, graph *common.Graph, config map[string]interface{}) error {
	if graph == nil {
		return fmt.Errorf("graph is nil")
	}
	var err error
	if a.psi, err = common.FloatParam(config, "psi", 0.5); err != nil {
		return err
	}
	if a.epsilon, err = common.FloatParam(config, "epsilon", 1.0); err != nil {
		return err
	}
	if a.factor, err = common.FloatParam(config, "factor", 0.5); err != nil {
		return err
	}
	if a.lambda, err = common.FloatParam(config, "lambda", 0.5); err != nil {
		return err
	}
	if a.bias, err = common.BoolParam(config, "bias", false); err != nil {
		return err
	}
	if a.biasFactor, err = common.IntParam(config, "bias_factor", 0); err != nil {
		return err
	}
	if a.noise, err = common.BoolParam(config, "noise", true); err != nil {
		return err
	}
	workers, err := common.IntParam(config, "num_workers", 0)
	if err != nil {
		return err
	}

	if a.psi <= 0 {
		return fmt.Errorf("psi must be positive, got %v", a.psi)
	}
	if a.epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %v", a.epsilon)
	}
	if a.factor <= 0 || a.factor >= 1 {
		return fmt.Errorf("factor must be in (0, 1), got %v", a.factor)
	}
	if a.lambda < 0 {
		return fmt.Errorf("lambda must not be negative, got %v", a.lambda)
	}

	a.graph = graph
	a.workers = parallel.Workers(workers)

	n := max(graph.NumVertices(), 2)
	// Tiny graphs would otherwise get a zero group width.
	a.levelsPerGroup = max(math.Ceil(logAToBaseB(n, 1.0+a.psi))/4.0, 1.0)
	a.numberOfRounds = int(math.Ceil(4.0 * math.Pow(logAToBaseB(n, 1.0+a.psi), 1.2)))

	a.superStep1GeomFactor = a.epsilon * a.factor
	a.superStep2GeomFactor = a.epsilon * (1.0 - a.factor)
	return nil
}

// Execute runs the k-core decomposition algorithm
func (a *KCoreDecomposition) Execute(ctx context.Context) (*common.AlgorithmResult, error) {
	if a.graph == nil {
		return nil, fmt.Errorf("kcore-decomposition is not initialized")
	}
	logger := zerolog.Ctx(ctx).With().Str("algorithm", a.Name()).Logger()
	startTime := time.Now()
	n := a.graph.NumVertices()

	thresholds, err := a.roundThresholds()
	if err != nil {
		return nil, fmt.Errorf("round 0 (noised degrees) failed: %w", err)
	}
	maxRoundThreshold := 0
	for _, t := range thresholds.Slice() {
		maxRoundThreshold = max(maxRoundThreshold, t)
	}
	algorithmRounds := min(a.numberOfRounds-2, maxRoundThreshold)
	logger.Debug().
		Int("n", n).
		Float64("levels_per_group", a.levelsPerGroup).
		Int("max_round_threshold", maxRoundThreshold).
		Int("rounds", algorithmRounds).
		Msg("computed round thresholds")

	lds := common.NewLDS(n, a.workers, a.levelsPerGroup)
	stopped := bitset.New(n)
	for round := 0; round < algorithmRounds; round++ {
		increases, err := a.levelIncreases(lds, stopped, thresholds, round)
		if err != nil {
			return nil, fmt.Errorf("round %d (level increases) failed: %w", round, err)
		}
		for _, v := range increases {
			if err := lds.LevelIncrease(v); err != nil {
				return nil, fmt.Errorf("round %d (update levels) failed: %w", round, err)
			}
		}
		logger.Debug().Int("round", round).Int("increases", len(increases)).Msg("levels updated")
	}

	estimates := a.coreNumbers(lds)
	executionTime := time.Since(startTime)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.result = &common.AlgorithmResult{
		AlgorithmName:    a.Name(),
		NumRounds:        algorithmRounds,
		Converged:        true,
		ConvergenceRound: algorithmRounds,
		Results: map[string]interface{}{
			common.ResultEstimates: estimates,
			"levels":               lds.L.Slice(),
			"algorithm_rounds":     algorithmRounds,
		},
		Metadata: map[string]interface{}{
			"num_vertices":           n,
			"num_workers":            a.workers,
			"levels_per_group":       a.levelsPerGroup,
			"max_round_threshold":    maxRoundThreshold,
			"noise":                  a.noise,
			"execution_time_seconds": executionTime.Seconds(),
		},
	}
	logger.Info().Int("rounds", algorithmRounds).Dur("elapsed", executionTime).Msg("ledp k-core finished")
	return a.result, nil
}

// roundThresholds computes, from each vertex's noised degree, the round
// after which the vertex stops climbing.
func (a *KCoreDecomposition) roundThresholds() (*common.VertexArray[int], error) {
	var (
		errOnce  sync.Once
		firstErr error
	)
	thresholds := common.NewVertexArray(a.graph.NumVertices(), a.workers, func(v uint32) int {
		noisedDegree := int64(a.graph.Degree(v))
		if a.noise {
			sample, err := noise.TwoSidedGeometric(a.superStep1GeomFactor / 2.0)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return 0
			}
			noisedDegree += sample
			if a.bias {
				biasTerm := float64(a.biasFactor) * (2.0 * math.Exp(a.superStep1GeomFactor)) / (math.Exp(2.0*a.superStep1GeomFactor) - 1.0)
				noisedDegree -= int64(math.Min(biasTerm, float64(noisedDegree)))
			}
			noisedDegree++
		}
		noisedDegree = max(noisedDegree, 1)
		return int(math.Ceil(math.Log2(float64(noisedDegree)))*a.levelsPerGroup) + 1
	})
	return thresholds, firstErr
}

// levelIncreases decides which vertices on level round move up. Vertices
// that stay are stopped for good.
func (a *KCoreDecomposition) levelIncreases(lds *common.LDS, stopped *bitset.Set, thresholds *common.VertexArray[int], round int) ([]uint32, error) {
	n := a.graph.NumVertices()
	parallel.For(a.workers, n, parallel.DefaultGrain, func(lo, hi int) {
		for v := lo; v < hi; v++ {
			if thresholds.Get(uint32(v)) == round {
				stopped.TestAndSet(uint32(v))
			}
		}
	})

	level := uint32(round)
	groupThreshold := common.GroupDegree(int(lds.GroupForLevel(level)), a.psi)
	var (
		errOnce  sync.Once
		firstErr error
	)
	increases := parallel.Pack(a.workers, n, parallel.DefaultGrain, func(lo, hi int, out []uint32) []uint32 {
		for i := lo; i < hi; i++ {
			v := uint32(i)
			if lds.L.Get(v) != level || stopped.Test(v) {
				continue
			}
			neighborCount := int64(0)
			for _, u := range a.graph.Neighbors(v) {
				if lds.L.Get(u) == level {
					neighborCount++
				}
			}
			if a.noise {
				scale := a.superStep2GeomFactor / (2.0 * float64(thresholds.Get(v)))
				sample, err := noise.TwoSidedGeometric(scale)
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					continue
				}
				neighborCount += sample
				if a.bias {
					neighborCount += int64(3.0 * (2.0 * math.Exp(scale)) / math.Pow(math.Exp(2.0*scale)-1.0, 3.0))
				}
			}
			if neighborCount > int64(groupThreshold) {
				out = append(out, v)
			} else {
				stopped.TestAndSet(v)
			}
		}
		return out
	})
	return increases, firstErr
}

// coreNumbers turns final levels into core number estimates.
func (a *KCoreDecomposition) coreNumbers(lds *common.LDS) []float64 {
	twoPlusLambda := 2.0 + a.lambda
	onePlusPsi := 1.0 + a.psi
	estimates := common.NewVertexArray(a.graph.NumVertices(), a.workers, func(v uint32) float64 {
		nodeLevel := float64(lds.L.Get(v))
		power := math.Max(math.Floor((nodeLevel+1.0)/a.levelsPerGroup)-1.0, 0.0)
		return twoPlusLambda * math.Pow(onePlusPsi, power)
	})
	return estimates.Slice()
}

func (a *KCoreDecomposition) GetResult() *common.AlgorithmResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

func logAToBaseB(a int, b float64) float64 {
	return math.Log2(float64(a)) / math.Log2(b)
}

func init() {
	Register("kcore-decomposition", NewKCoreDecomposition)
}

package exact

import (
	"context"
	"fmt"
	"math/bits"
	"sync"

	"github.com/mundrapranay/silhouette-kcore/algorithms/common"
	"github.com/mundrapranay/silhouette-kcore/internal/parallel"
)

// DegreeStats is a single-pass algorithm that collects vertex degrees and
// summarises their distribution.
type DegreeStats struct {
	graph   *common.Graph
	workers int

	mu     sync.Mutex
	result *common.AlgorithmResult
}

// DegreeSummary describes the degree distribution of a graph.
type DegreeSummary struct {
	MaxDegree uint32
	AvgDegree float64
	Isolated  int
	// Histogram[i] counts the vertices of degree in [2^(i-1), 2^i); index
	// 0 counts isolated vertices.
	Histogram []int
}

// NewDegreeStats creates a new degree statistics algorithm instance
func NewDegreeStats() common.GraphAlgorithm {
	return &DegreeStats{}
}

func (a *DegreeStats) Name() string {
	return "degree-stats"
}

func (a *DegreeStats) Type() common.AlgorithmType {
	return common.AlgorithmTypeExact
}

func (a *DegreeStats) Initialize(ctx context.Context, graph *common.Graph, config map[string]interface{}) error {
	if graph == nil {
		return fmt.Errorf("graph is nil")
	}
	workers, err := common.IntParam(config, "num_workers", 0)
	if err != nil {
		return err
	}
	a.graph = graph
	a.workers = parallel.Workers(workers)
	return nil
}

func (a *DegreeStats) Execute(ctx context.Context) (*common.AlgorithmResult, error) {
	if a.graph == nil {
		return nil, fmt.Errorf("degree-stats is not initialized")
	}
	degrees := common.NewVertexArray(a.graph.NumVertices(), a.workers, a.graph.Degree).Slice()
	summary := SummarizeDegrees(degrees, a.workers)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.result = &common.AlgorithmResult{
		AlgorithmName:    a.Name(),
		NumRounds:        1,
		Converged:        true,
		ConvergenceRound: 1,
		Results: map[string]interface{}{
			common.ResultDegrees: degrees,
			"max_degree":         summary.MaxDegree,
			"avg_degree":         summary.AvgDegree,
			"isolated":           summary.Isolated,
			"histogram":          summary.Histogram,
		},
		Metadata: map[string]interface{}{
			"num_vertices": a.graph.NumVertices(),
			"num_edges":    a.graph.NumEdges(),
			"num_workers":  a.workers,
		},
	}
	return a.result, nil
}

func (a *DegreeStats) GetResult() *common.AlgorithmResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// SummarizeDegrees computes the degree summary in parallel.
func SummarizeDegrees(degrees []uint32, workers int) DegreeSummary {
	partials := parallel.Pack(workers, len(degrees), parallel.DefaultGrain, func(lo, hi int, out []DegreeSummary) []DegreeSummary {
		s := DegreeSummary{Histogram: make([]int, 33)}
		var sum float64
		for _, d := range degrees[lo:hi] {
			s.MaxDegree = max(s.MaxDegree, d)
			sum += float64(d)
			if d == 0 {
				s.Isolated++
			}
			s.Histogram[bits.Len32(d)]++
		}
		s.AvgDegree = sum
		return append(out, s)
	})

	total := DegreeSummary{Histogram: make([]int, 33)}
	var sum float64
	for _, p := range partials {
		total.MaxDegree = max(total.MaxDegree, p.MaxDegree)
		total.Isolated += p.Isolated
		sum += p.AvgDegree
		for i, c := range p.Histogram {
			total.Histogram[i] += c
		}
	}
	if len(degrees) > 0 {
		total.AvgDegree = sum / float64(len(degrees))
	}
	total.Histogram = total.Histogram[:bits.Len32(total.MaxDegree)+1]
	return total
}

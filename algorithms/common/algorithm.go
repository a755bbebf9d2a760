package common

import (
	"context"
	"fmt"
)

// AlgorithmType represents the type of algorithm
type AlgorithmType string

const (
	AlgorithmTypeExact AlgorithmType = "exact"
	AlgorithmTypeLEDP  AlgorithmType = "ledp"
)

// Well-known keys of AlgorithmResult.Results.
const (
	// ResultCores holds exact core numbers as []uint32, indexed by vertex.
	ResultCores = "cores"
	// ResultEstimates holds approximate core numbers as []float64.
	ResultEstimates = "estimates"
	// ResultDegrees holds vertex degrees as []uint32.
	ResultDegrees = "degrees"
)

// GraphAlgorithm is the interface that all graph algorithms must implement.
// Algorithms run in-process over an immutable Graph; a logger may be
// attached to the context with zerolog's Logger.WithContext.
type GraphAlgorithm interface {
	// Name returns the name of the algorithm
	Name() string

	// Type returns the algorithm type (exact or LEDP)
	Type() AlgorithmType

	// Initialize prepares the algorithm with the input graph and its
	// parameters. Configuration errors are reported here, before any
	// work proportional to the graph is done.
	Initialize(ctx context.Context, graph *Graph, config map[string]interface{}) error

	// Execute runs the algorithm to completion.
	Execute(ctx context.Context) (*AlgorithmResult, error)

	// GetResult returns the final algorithm result after execution completes.
	GetResult() *AlgorithmResult
}

// AlgorithmResult represents the final output of an algorithm execution
type AlgorithmResult struct {
	AlgorithmName    string
	NumRounds        int
	Converged        bool
	ConvergenceRound int // Round at which convergence occurred (if applicable)

	// Results: algorithm-specific data. Per-vertex arrays use the
	// Result* keys above.
	Results map[string]interface{}

	// Metadata: execution statistics, timing, etc.
	Metadata map[string]interface{}
}

// IntParam reads an integer parameter, accepting the numeric types YAML
// and JSON decoders produce.
func IntParam(config map[string]interface{}, key string, def int) (int, error) {
	raw, ok := config[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("parameter %s must be an integer, got %v", key, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("parameter %s must be an integer, got %T", key, raw)
	}
}

// FloatParam reads a floating point parameter.
func FloatParam(config map[string]interface{}, key string, def float64) (float64, error) {
	raw, ok := config[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("parameter %s must be a number, got %T", key, raw)
	}
}

// BoolParam reads a boolean parameter.
func BoolParam(config map[string]interface{}, key string, def bool) (bool, error) {
	raw, ok := config[key]
	if !ok || raw == nil {
		return def, nil
	}
	v, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %s must be a boolean, got %T", key, raw)
	}
	return v, nil
}

package common

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mundrapranay/silhouette-kcore/internal/bucket"
)

// DefaultNumBuckets is the bucket count used when none is configured.
const DefaultNumBuckets = 128

// AlgorithmConfig represents the configuration for an algorithm run
type AlgorithmConfig struct {
	// Algorithm name (must match an available algorithm)
	AlgorithmName string `yaml:"algorithm_name" json:"algorithm_name"`

	// Algorithm type
	AlgorithmType AlgorithmType `yaml:"algorithm_type" json:"algorithm_type"`

	// Number of priority buckets; must be a power of two
	NumBuckets int `yaml:"num_buckets" json:"num_buckets"`

	// Number of parallel workers; 0 uses every available core
	NumWorkers int `yaml:"num_workers" json:"num_workers"`

	// Algorithm-specific parameters
	Parameters map[string]interface{} `yaml:"parameters" json:"parameters"`

	// Graph input configuration
	GraphConfig GraphInputConfig `yaml:"graph_config" json:"graph_config"`

	// Where results go
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// GraphInputConfig specifies how to load the graph
type GraphInputConfig struct {
	// Input format: "edgelist", "adjacency_list", "ligra" or "binary"
	Format string `yaml:"format" json:"format"`

	// Input file path (if loading from file)
	FilePath string `yaml:"file_path" json:"file_path"`

	// Or: direct specification in config
	Edges []struct {
		U uint32 `yaml:"u" json:"u"`
		V uint32 `yaml:"v" json:"v"`
	} `yaml:"edges,omitempty" json:"edges,omitempty"`

	// Number of vertices (if not inferable from edges)
	NumVertices int `yaml:"num_vertices" json:"num_vertices"`

	// Whether graph is directed
	Directed bool `yaml:"directed" json:"directed"`
}

// OutputConfig controls where per-vertex results are written.
type OutputConfig struct {
	// ResultFile receives one "vertex value" line per vertex
	ResultFile string `yaml:"result_file" json:"result_file"`

	// StorePath is a bbolt database that keeps every run
	StorePath string `yaml:"store_path" json:"store_path"`
}

// LoggingConfig controls the logger built by the command line tools.
type LoggingConfig struct {
	// Level is a zerolog level name: debug, info, warn, error
	Level string `yaml:"level" json:"level"`
}

// ApplyDefaults fills in unset optional fields.
func (c *AlgorithmConfig) ApplyDefaults() {
	if c.NumBuckets == 0 {
		c.NumBuckets = DefaultNumBuckets
	}
	if c.AlgorithmType == "" {
		c.AlgorithmType = AlgorithmTypeExact
	}
	if c.Parameters == nil {
		c.Parameters = make(map[string]interface{})
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks if the algorithm config is valid
func (c *AlgorithmConfig) Validate() error {
	if c.AlgorithmName == "" {
		return fmt.Errorf("algorithm_name is required")
	}

	if c.AlgorithmType != AlgorithmTypeExact && c.AlgorithmType != AlgorithmTypeLEDP {
		return fmt.Errorf("algorithm_type must be 'exact' or 'ledp', got: %s", c.AlgorithmType)
	}

	if err := bucket.ValidateCount(c.NumBuckets); err != nil {
		return fmt.Errorf("num_buckets: %w", err)
	}

	if c.NumWorkers < 0 {
		return fmt.Errorf("num_workers must be >= 0, got: %d", c.NumWorkers)
	}

	g := c.GraphConfig
	if g.FilePath == "" && len(g.Edges) == 0 && g.NumVertices <= 0 {
		return fmt.Errorf("graph_config needs file_path, edges or num_vertices")
	}
	switch normalizeFormat(g.Format) {
	case FormatEdgeList, FormatAdjacencyList, FormatLigra, FormatBinary:
	default:
		return fmt.Errorf("graph_config: %w: %s", ErrUnsupportedFormat, g.Format)
	}

	return nil
}

// LoadConfig loads algorithm configuration from a YAML file
func LoadConfig(filePath string) (*AlgorithmConfig, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return ReadConfig(file)
}

// ReadConfig parses, defaults and validates a YAML configuration.
func ReadConfig(r io.Reader) (*AlgorithmConfig, error) {
	config, err := DecodeConfig(r)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// DecodeConfig parses a YAML configuration and applies defaults without
// validating it, so callers can layer overrides on top first.
func DecodeConfig(r io.Reader) (*AlgorithmConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config AlgorithmConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// SaveConfig saves algorithm configuration to a YAML file
func SaveConfig(config *AlgorithmConfig, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(filePath, data, 0644)
}

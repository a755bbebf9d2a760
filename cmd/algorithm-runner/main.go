package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mundrapranay/silhouette-kcore/algorithms"
	"github.com/mundrapranay/silhouette-kcore/algorithms/common"
	"github.com/mundrapranay/silhouette-kcore/internal/parallel"
	"github.com/mundrapranay/silhouette-kcore/internal/store"
)

var (
	configFile  = flag.String("config", "", "Path to algorithm configuration file")
	graphFile   = flag.String("graph", "", "Graph file (overrides graph_config.file_path)")
	graphFormat = flag.String("format", "", "Graph format: edgelist, adjacency_list, ligra, binary")
	directed    = flag.Bool("directed", false, "Treat the input graph as directed")
	algName     = flag.String("algorithm", "", "Algorithm name (default kcore)")
	algType     = flag.String("type", "", "Algorithm type: exact or ledp")
	numBuckets  = flag.Int("nb", 0, "Number of buckets, a power of two (default 128)")
	numWorkers  = flag.Int("workers", 0, "Number of parallel workers (default all cores)")
	resultFile  = flag.String("out", "", "Write per-vertex results to this file")
	storePath   = flag.String("store", "", "Record the run in this bbolt database")
	verbose     = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if *configFile == "" && *graphFile == "" {
		fmt.Fprintf(os.Stderr, "Error: -config or -graph is required\n")
		fmt.Fprintf(os.Stderr, "Usage: %s -config <config.yaml> | -graph <file> [flags]\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample config file:\n")
		printExampleConfig()
		os.Exit(1)
	}

	// Configuration errors are fatal before any graph is read.
	config, err := loadConfig()
	if err != nil {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	level := config.Logging.Level
	if *verbose {
		level = "debug"
	}
	logger := common.NewLogger(os.Stderr, level)
	ctx := logger.WithContext(context.Background())

	logger.Debug().
		Str("algorithm", config.AlgorithmName).
		Str("type", string(config.AlgorithmType)).
		Int("num_buckets", config.NumBuckets).
		Int("num_workers", config.NumWorkers).
		Msg("Loaded configuration")

	algorithm, err := algorithms.GetAlgorithm(config.AlgorithmType, config.AlgorithmName)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get algorithm")
	}

	workers := parallel.Workers(config.NumWorkers)
	loadStart := time.Now()
	graph, err := common.LoadGraph(&config.GraphConfig, workers)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load graph")
	}
	logger.Info().
		Int("vertices", graph.NumVertices()).
		Int("edges", graph.NumEdges()).
		Dur("elapsed", time.Since(loadStart)).
		Msg("Loaded graph")

	initConfig := make(map[string]interface{})
	for k, v := range config.Parameters {
		initConfig[k] = v
	}
	initConfig["num_buckets"] = config.NumBuckets
	initConfig["num_workers"] = workers

	if err := algorithm.Initialize(ctx, graph, initConfig); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize algorithm")
	}

	// A running decomposition cannot be interrupted; a signal ends the
	// process.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan error, 1)
	var result *common.AlgorithmResult
	go func() {
		logger.Info().Str("algorithm", config.AlgorithmName).Msg("Executing algorithm")
		var err error
		result, err = algorithm.Execute(ctx)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Fatal().Err(err).Msg("Algorithm execution failed")
		}
	case sig := <-sigChan:
		logger.Warn().Str("signal", sig.String()).Msg("Received signal, shutting down")
		os.Exit(1)
	}

	printReport(config, graph, workers, result)
	printResults(result)

	if config.Output.ResultFile != "" {
		if err := writeResults(config.Output.ResultFile, result); err != nil {
			logger.Fatal().Err(err).Msg("Failed to write results")
		}
		logger.Info().Str("file", config.Output.ResultFile).Msg("Wrote per-vertex results")
	}

	if config.Output.StorePath != "" {
		run, err := recordRun(config, graph, result)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to record run")
		}
		logger.Info().Str("run", run.ID.String()).Str("store", config.Output.StorePath).Msg("Recorded run")
	}
}

// loadConfig reads the config file, if any, and layers the flags that were
// set on top of it.
func loadConfig() (*common.AlgorithmConfig, error) {
	config := &common.AlgorithmConfig{}
	if *configFile != "" {
		f, err := os.Open(*configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()
		if config, err = common.DecodeConfig(f); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "graph":
			config.GraphConfig.FilePath = *graphFile
		case "format":
			config.GraphConfig.Format = *graphFormat
		case "directed":
			config.GraphConfig.Directed = *directed
		case "algorithm":
			config.AlgorithmName = *algName
		case "type":
			config.AlgorithmType = common.AlgorithmType(*algType)
		case "nb":
			config.NumBuckets = *numBuckets
		case "workers":
			config.NumWorkers = *numWorkers
		case "out":
			config.Output.ResultFile = *resultFile
		case "store":
			config.Output.StorePath = *storePath
		}
	})
	if config.AlgorithmName == "" {
		config.AlgorithmName = "kcore"
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// printReport prints the summary lines of a k-core run.
func printReport(config *common.AlgorithmConfig, graph *common.Graph, workers int, result *common.AlgorithmResult) {
	fmt.Printf("### Application: %s\n", result.AlgorithmName)
	fmt.Printf("### Graph: %s\n", graphName(config))
	fmt.Printf("### Workers: %d\n", workers)
	fmt.Printf("### n: %d\n", graph.NumVertices())
	fmt.Printf("### m: %d\n", graph.NumEdges())
	fmt.Printf("### Params: -nb (num_buckets) = %d\n", config.NumBuckets)
	fmt.Printf("### ------------------------------------\n")
	if v, ok := result.Results["max_core"]; ok {
		fmt.Printf("### Max core: %v\n", v)
	}
	if v, ok := result.Results["sum_core"]; ok {
		fmt.Printf("### sum of core: %v\n", v)
	}
	if v, ok := result.Metadata["elapsed"]; ok {
		fmt.Printf("### Running time: %v\n", v)
	}
}

func printResults(result *common.AlgorithmResult) {
	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Algorithm Results: %s\n", result.AlgorithmName)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Rounds executed:    %d\n", result.NumRounds)
	fmt.Printf("  Converged:          %v\n", result.Converged)
	if result.Converged {
		fmt.Printf("  Convergence round:  %d\n", result.ConvergenceRound)
	}

	printSection("Results", result.Results)
	printSection("Metadata", result.Metadata)
	fmt.Println()
}

// printSection prints a result map in key order. Per-vertex arrays are
// summarized by their length.
func printSection(title string, values map[string]interface{}) {
	if len(values) == 0 {
		return
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println()
	fmt.Printf("  %s:\n", title)
	for _, key := range keys {
		value := values[key]
		if rv := reflect.ValueOf(value); rv.Kind() == reflect.Slice && rv.Len() > 16 {
			fmt.Printf("    %s: [%d values]\n", key, rv.Len())
			continue
		}
		fmt.Printf("    %s: %v\n", key, value)
	}
}

// writeResults writes one "vertex value" line per vertex of the first
// per-vertex array in the result.
func writeResults(path string, result *common.AlgorithmResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	switch {
	case result.Results[common.ResultCores] != nil:
		for v, c := range result.Results[common.ResultCores].([]uint32) {
			fmt.Fprintf(w, "%d %d\n", v, c)
		}
	case result.Results[common.ResultEstimates] != nil:
		for v, c := range result.Results[common.ResultEstimates].([]float64) {
			fmt.Fprintf(w, "%d %.4f\n", v, c)
		}
	case result.Results[common.ResultDegrees] != nil:
		for v, d := range result.Results[common.ResultDegrees].([]uint32) {
			fmt.Fprintf(w, "%d %d\n", v, d)
		}
	default:
		return fmt.Errorf("algorithm %s has no per-vertex results", result.AlgorithmName)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return file.Close()
}

// recordRun stores the core numbers of an exact run.
func recordRun(config *common.AlgorithmConfig, graph *common.Graph, result *common.AlgorithmResult) (store.Run, error) {
	cores, ok := result.Results[common.ResultCores].([]uint32)
	if !ok {
		return store.Run{}, fmt.Errorf("algorithm %s has no core numbers to store", result.AlgorithmName)
	}
	s, err := store.NewStore(store.Config{Path: config.Output.StorePath})
	if err != nil {
		return store.Run{}, err
	}
	defer s.Close()

	run := store.Run{
		Algorithm:  result.AlgorithmName,
		Graph:      graphName(config),
		NumEdges:   graph.NumEdges(),
		NumBuckets: config.NumBuckets,
	}
	run.MaxCore, _ = result.Results["max_core"].(uint32)
	run.SumCore, _ = result.Results["sum_core"].(uint64)
	run.Elapsed, _ = result.Metadata["elapsed"].(time.Duration)
	return s.SaveRun(run, cores)
}

func graphName(config *common.AlgorithmConfig) string {
	if config.GraphConfig.FilePath == "" {
		return "inline"
	}
	return filepath.Base(config.GraphConfig.FilePath)
}

func printExampleConfig() {
	example := `algorithm_name: kcore
algorithm_type: exact  # or 'ledp' with algorithm_name: kcore-decomposition
num_buckets: 128       # power of two
num_workers: 0         # 0 uses every core

graph_config:
  format: "edgelist"  # or "adjacency_list", "ligra", "binary"
  file_path: "/path/to/graph.txt"  # Path to graph file
  # OR specify edges directly:
  # edges:
  #   - u: 0
  #     v: 1
  #   - u: 1
  #     v: 2
  directed: false  # true for directed graphs

parameters:
  # Algorithm-specific parameters go here, e.g. for ledp:
  # psi: 0.5
  # epsilon: 1.0

output:
  result_file: "cores.txt"
  # store_path: "results.db"

logging:
  level: info
`
	fmt.Print(example)
}

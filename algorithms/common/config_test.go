package common

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mundrapranay/silhouette-kcore/internal/bucket"
)

const sampleConfig = `
algorithm_name: kcore
algorithm_type: exact
num_workers: 4
graph_config:
  format: edgelist
  file_path: /data/graph.txt
parameters:
  dense_divisor: 10
output:
  result_file: cores.txt
`

func TestReadConfigDefaults(t *testing.T) {
	config, err := ReadConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	require.Equal(t, "kcore", config.AlgorithmName)
	require.Equal(t, AlgorithmTypeExact, config.AlgorithmType)
	require.Equal(t, DefaultNumBuckets, config.NumBuckets)
	require.Equal(t, 4, config.NumWorkers)
	require.Equal(t, "/data/graph.txt", config.GraphConfig.FilePath)
	require.Equal(t, 10, config.Parameters["dense_divisor"])
	require.Equal(t, "cores.txt", config.Output.ResultFile)
	require.Equal(t, "info", config.Logging.Level)
}

func TestReadConfigRejectsBucketCount(t *testing.T) {
	_, err := ReadConfig(strings.NewReader(sampleConfig + "num_buckets: 100\n"))
	require.ErrorIs(t, err, bucket.ErrBucketCount)
}

func TestValidate(t *testing.T) {
	valid := func() *AlgorithmConfig {
		c := &AlgorithmConfig{
			AlgorithmName: "kcore",
			GraphConfig:   GraphInputConfig{FilePath: "g.txt"},
		}
		c.ApplyDefaults()
		return c
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *AlgorithmConfig)
	}{
		{"no name", func(c *AlgorithmConfig) { c.AlgorithmName = "" }},
		{"bad type", func(c *AlgorithmConfig) { c.AlgorithmType = "approx" }},
		{"bad buckets", func(c *AlgorithmConfig) { c.NumBuckets = 3 }},
		{"negative workers", func(c *AlgorithmConfig) { c.NumWorkers = -1 }},
		{"no graph", func(c *AlgorithmConfig) { c.GraphConfig = GraphInputConfig{} }},
		{"bad format", func(c *AlgorithmConfig) { c.GraphConfig.Format = "graphml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			require.Error(t, c.Validate())
		})
	}
}

func TestDecodeConfigSkipsValidation(t *testing.T) {
	config, err := DecodeConfig(strings.NewReader("num_buckets: 100\n"))
	require.NoError(t, err)
	require.Equal(t, 100, config.NumBuckets)
	require.Equal(t, AlgorithmTypeExact, config.AlgorithmType)

	_, err = DecodeConfig(strings.NewReader("num_buckets: [\n"))
	require.Error(t, err)
}

func TestSaveAndLoadConfig(t *testing.T) {
	config, err := ReadConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveConfig(config, path))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, config, loaded)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestParams(t *testing.T) {
	config := map[string]interface{}{
		"i": 3, "f": 2.5, "whole": 4.0, "b": true, "s": "x",
	}

	i, err := IntParam(config, "i", 0)
	require.NoError(t, err)
	require.Equal(t, 3, i)
	i, err = IntParam(config, "whole", 0)
	require.NoError(t, err)
	require.Equal(t, 4, i)
	i, err = IntParam(config, "missing", 7)
	require.NoError(t, err)
	require.Equal(t, 7, i)
	_, err = IntParam(config, "f", 0)
	require.Error(t, err)
	_, err = IntParam(config, "s", 0)
	require.Error(t, err)

	f, err := FloatParam(config, "i", 0)
	require.NoError(t, err)
	require.Equal(t, 3.0, f)
	_, err = FloatParam(config, "b", 0)
	require.Error(t, err)

	b, err := BoolParam(config, "b", false)
	require.NoError(t, err)
	require.True(t, b)
	b, err = BoolParam(nil, "b", true)
	require.NoError(t, err)
	require.True(t, b)
	_, err = BoolParam(config, "s", false)
	require.Error(t, err)
}

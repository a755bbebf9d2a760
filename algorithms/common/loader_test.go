package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadEdgeList(t *testing.T) {
	input := "# comment\n% also a comment\n0 1\n1\t2 0.5\n\n2 3\n"
	data, err := ReadEdgeList(strings.NewReader(input), 0, false)
	require.NoError(t, err)
	require.Equal(t, 4, data.NumVertices)
	require.Equal(t, 3, data.NumEdges)
	require.Equal(t, []Edge{{0, 1}, {1, 2}, {2, 3}}, data.Edges)
	require.False(t, data.Directed)
}

func TestReadEdgeListErrors(t *testing.T) {
	_, err := ReadEdgeList(strings.NewReader("0\n"), 0, false)
	require.ErrorContains(t, err, "line 1")

	_, err = ReadEdgeList(strings.NewReader("0 1\n0 x\n"), 0, false)
	require.ErrorContains(t, err, "line 2")

	_, err = ReadEdgeList(strings.NewReader("0 -1\n"), 0, false)
	require.Error(t, err)
}

func TestReadAdjacencyList(t *testing.T) {
	input := "0 1 2\n1 2\n# isolated vertex\n5\n"
	data, err := ReadAdjacencyList(strings.NewReader(input), 0, false)
	require.NoError(t, err)
	require.Equal(t, 6, data.NumVertices)
	require.Equal(t, []Edge{{0, 1}, {0, 2}, {1, 2}}, data.Edges)

	g, err := data.Build(1)
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 1}, g.Neighbors(2))
	require.Empty(t, g.Neighbors(5))
}

func TestReadLigra(t *testing.T) {
	// a path 0-1-2 stored symmetrically
	input := "AdjacencyGraph\n3\n4\n0\n1\n3\n1\n0\n2\n1\n"
	g, err := ReadLigra(strings.NewReader(input), true, 1)
	require.NoError(t, err)
	require.Equal(t, 3, g.NumVertices())
	require.Equal(t, []uint32{0, 2}, g.Neighbors(1))

	_, err = ReadLigra(strings.NewReader("WeightedAdjacencyGraph\n1\n0\n0\n"), true, 1)
	require.Error(t, err)
	_, err = ReadLigra(strings.NewReader("AdjacencyGraph\n3\n4\n0\n1\n"), true, 1)
	require.Error(t, err)
}

func TestBinaryRoundTrip(t *testing.T) {
	g, err := BuildGraph(0, []Edge{{0, 1}, {1, 2}, {2, 0}, {3, 4}}, true, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, g))
	got, err := ReadBinary(&buf, true, 2)
	require.NoError(t, err)

	wantOff, wantEdges := g.CSR()
	gotOff, gotEdges := got.CSR()
	require.Equal(t, wantOff, gotOff)
	require.Equal(t, wantEdges, gotEdges)
}

func TestReadBinaryRejectsBadSize(t *testing.T) {
	g, err := BuildGraph(0, []Edge{{0, 1}}, true, 1)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, g))
	raw := buf.Bytes()
	raw[16]++ // size field

	_, err = ReadBinary(bytes.NewReader(raw), true, 1)
	require.ErrorContains(t, err, "size mismatch")
}

func TestLoadGraphFormats(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	edgeList := write("g.txt", "0 1\n1 2\n")
	g, err := LoadGraph(&GraphInputConfig{FilePath: edgeList}, 1)
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 2}, g.Neighbors(1))

	adj := write("g.adj", "0 1\n1 2\n")
	g, err = LoadGraph(&GraphInputConfig{FilePath: adj, Format: "adjacency_list", Directed: true}, 1)
	require.NoError(t, err)
	require.Equal(t, []uint32{2}, g.Neighbors(1))
	require.False(t, g.Symmetric())

	oneWay := write("directed.ligra", "AdjacencyGraph 3 2 0 1 2 1 2")
	g, err = LoadGraph(&GraphInputConfig{FilePath: oneWay, Format: FormatLigra}, 1)
	require.NoError(t, err)
	require.False(t, g.Symmetric())

	ligra := write("g.ligra", "AdjacencyGraph 2 2 0 1 1 0")
	g, err = LoadGraph(&GraphInputConfig{FilePath: ligra, Format: FormatLigra}, 1)
	require.NoError(t, err)
	require.Equal(t, 2, g.NumEdges())
	require.True(t, g.Symmetric())

	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, g))
	bin := write("g.bin", buf.String())
	g, err = LoadGraph(&GraphInputConfig{FilePath: bin, Format: FormatBinary}, 1)
	require.NoError(t, err)
	require.Equal(t, []uint32{1}, g.Neighbors(0))

	_, err = LoadGraph(&GraphInputConfig{FilePath: edgeList, Format: "graphml"}, 1)
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadGraph(&GraphInputConfig{FilePath: filepath.Join(dir, "missing.txt")}, 1)
	require.Error(t, err)
}

func TestLoadGraphInline(t *testing.T) {
	config := &GraphInputConfig{NumVertices: 4}
	config.Edges = append(config.Edges, struct {
		U uint32 `yaml:"u" json:"u"`
		V uint32 `yaml:"v" json:"v"`
	}{U: 0, V: 1})

	g, err := LoadGraph(config, 1)
	require.NoError(t, err)
	require.Equal(t, 4, g.NumVertices())
	require.Equal(t, []uint32{0}, g.Neighbors(1))

	g, err = LoadGraph(&GraphInputConfig{NumVertices: 3}, 1)
	require.NoError(t, err)
	require.Equal(t, 3, g.NumVertices())
	require.Zero(t, g.NumEdges())

	_, err = LoadGraph(&GraphInputConfig{}, 1)
	require.Error(t, err)
}

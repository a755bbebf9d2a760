package common

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Supported graph input formats.
const (
	FormatEdgeList      = "edgelist"
	FormatAdjacencyList = "adjacency_list"
	FormatLigra         = "ligra"
	FormatBinary        = "binary"
)

// ErrUnsupportedFormat is returned for an unknown graph_config.format.
var ErrUnsupportedFormat = errors.New("unsupported graph format")

// ligraHeader opens a Ligra AdjacencyGraph text file.
const ligraHeader = "AdjacencyGraph"

func normalizeFormat(format string) string {
	switch format {
	case "", "edge_list":
		return FormatEdgeList
	case "adjacency", "adjlist":
		return FormatAdjacencyList
	}
	return format
}

// LoadGraph loads and builds the graph described by config.
func LoadGraph(config *GraphInputConfig, workers int) (*Graph, error) {
	if config.FilePath != "" {
		switch normalizeFormat(config.Format) {
		case FormatLigra, FormatBinary:
			return loadCSRFromFile(config, workers)
		}
	}
	data, err := LoadGraphData(config)
	if err != nil {
		return nil, err
	}
	return data.Build(workers)
}

// LoadGraphData loads an edge-list view of the graph from a text file or
// from the edges listed inline in the configuration.
func LoadGraphData(config *GraphInputConfig) (*GraphData, error) {
	if config.FilePath != "" {
		file, err := os.Open(config.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open graph file: %w", err)
		}
		defer file.Close()

		switch format := normalizeFormat(config.Format); format {
		case FormatEdgeList:
			return ReadEdgeList(file, config.NumVertices, config.Directed)
		case FormatAdjacencyList:
			return ReadAdjacencyList(file, config.NumVertices, config.Directed)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
		}
	}

	if len(config.Edges) > 0 {
		data := &GraphData{
			Edges:    make([]Edge, len(config.Edges)),
			NumEdges: len(config.Edges),
			Directed: config.Directed,
		}
		for i, e := range config.Edges {
			data.Edges[i] = Edge{U: e.U, V: e.V}
		}
		data.NumVertices = vertexCount(config.NumVertices, data.Edges)
		return data, nil
	}

	if config.NumVertices > 0 {
		// a graph of isolated vertices
		return &GraphData{NumVertices: config.NumVertices, Directed: config.Directed}, nil
	}

	return nil, fmt.Errorf("no graph data provided: specify either file_path or edges")
}

func vertexCount(declared int, edges []Edge) int {
	n := declared
	for _, e := range edges {
		if hi := int(max(e.U, e.V)) + 1; hi > n {
			n = hi
		}
	}
	return n
}

func parseVertex(field string, line int) (uint32, error) {
	v, err := strconv.ParseUint(field, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid vertex ID %q", line, field)
	}
	return uint32(v), nil
}

func isComment(line string) bool {
	return line == "" || line[0] == '#' || line[0] == '%'
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return sc
}

// ReadEdgeList parses "u v [weight]" lines separated by spaces or tabs.
// Lines starting with '#' or '%' are comments; weights are ignored.
func ReadEdgeList(r io.Reader, numVertices int, directed bool) (*GraphData, error) {
	sc := newScanner(r)
	var edges []Edge
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if isComment(text) {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: invalid edge format: need at least 2 values (u v), got: %v", line, fields)
		}
		u, err := parseVertex(fields[0], line)
		if err != nil {
			return nil, err
		}
		v, err := parseVertex(fields[1], line)
		if err != nil {
			return nil, err
		}
		edges = append(edges, Edge{U: u, V: v})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return &GraphData{
		NumVertices: vertexCount(numVertices, edges),
		NumEdges:    len(edges),
		Edges:       edges,
		Directed:    directed,
	}, nil
}

// ReadAdjacencyList parses "u v1 v2 ..." lines: the first id is the
// source, the rest are its neighbours. A line with a single id declares
// an isolated vertex.
func ReadAdjacencyList(r io.Reader, numVertices int, directed bool) (*GraphData, error) {
	sc := newScanner(r)
	var edges []Edge
	n := numVertices
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if isComment(text) {
			continue
		}
		fields := strings.Fields(text)
		u, err := parseVertex(fields[0], line)
		if err != nil {
			return nil, err
		}
		if int(u)+1 > n {
			n = int(u) + 1
		}
		for _, f := range fields[1:] {
			v, err := parseVertex(f, line)
			if err != nil {
				return nil, err
			}
			edges = append(edges, Edge{U: u, V: v})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return &GraphData{
		NumVertices: vertexCount(n, edges),
		NumEdges:    len(edges),
		Edges:       edges,
		Directed:    directed,
	}, nil
}

// ReadLigra parses the Ligra AdjacencyGraph text format: the header line,
// n, m, n offsets and m edge targets, all whitespace separated. A
// symmetric claim is checked as in NewGraph.
func ReadLigra(r io.Reader, symmetric bool, workers int) (*Graph, error) {
	sc := newScanner(r)
	sc.Split(bufio.ScanWords)
	next := func(what string) (uint64, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, fmt.Errorf("failed to read %s: %w", what, err)
			}
			return 0, fmt.Errorf("unexpected end of input reading %s", what)
		}
		v, err := strconv.ParseUint(sc.Text(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q", what, sc.Text())
		}
		return v, nil
	}

	if !sc.Scan() || sc.Text() != ligraHeader {
		return nil, fmt.Errorf("missing %s header", ligraHeader)
	}
	n, err := next("vertex count")
	if err != nil {
		return nil, err
	}
	m, err := next("edge count")
	if err != nil {
		return nil, err
	}
	offsets := make([]uint64, n+1)
	for i := uint64(0); i < n; i++ {
		if offsets[i], err = next("offset"); err != nil {
			return nil, err
		}
	}
	offsets[n] = m
	edges := make([]uint32, m)
	for i := uint64(0); i < m; i++ {
		v, err := next("edge")
		if err != nil {
			return nil, err
		}
		edges[i] = uint32(v)
	}
	return NewGraph(offsets, edges, symmetric, workers)
}

// ReadBinary parses the binary CSR layout: little-endian uint64 n, m and
// total byte size, then n+1 uint64 offsets and m uint32 edge targets.
func ReadBinary(r io.Reader, symmetric bool, workers int) (*Graph, error) {
	var header [3]uint64
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	n, m, size := header[0], header[1], header[2]
	if want := (n+1)*8 + m*4 + 3*8; size != want {
		return nil, fmt.Errorf("size mismatch: got %d, expected %d", size, want)
	}
	offsets := make([]uint64, n+1)
	if err := binary.Read(r, binary.LittleEndian, offsets); err != nil {
		return nil, fmt.Errorf("failed to read offsets: %w", err)
	}
	edges := make([]uint32, m)
	if err := binary.Read(r, binary.LittleEndian, edges); err != nil {
		return nil, fmt.Errorf("failed to read edges: %w", err)
	}
	return NewGraph(offsets, edges, symmetric, workers)
}

// WriteBinary writes g in the layout ReadBinary expects.
func WriteBinary(w io.Writer, g *Graph) error {
	offsets, edges := g.CSR()
	n, m := uint64(g.NumVertices()), uint64(len(edges))
	header := [3]uint64{n, m, (n+1)*8 + m*4 + 3*8}
	bw := bufio.NewWriter(w)
	for _, part := range []interface{}{header, offsets, edges} {
		if err := binary.Write(bw, binary.LittleEndian, part); err != nil {
			return fmt.Errorf("failed to write graph: %w", err)
		}
	}
	return bw.Flush()
}

func loadCSRFromFile(config *GraphInputConfig, workers int) (*Graph, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer file.Close()

	r := bufio.NewReaderSize(file, 1<<20)
	var g *Graph
	if normalizeFormat(config.Format) == FormatLigra {
		g, err = ReadLigra(r, !config.Directed, workers)
	} else {
		g, err = ReadBinary(r, !config.Directed, workers)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", config.FilePath, err)
	}
	return g, nil
}

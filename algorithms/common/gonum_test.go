package common

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/simple"
)

func TestFromGonum(t *testing.T) {
	ug := simple.NewUndirectedGraph()
	for _, id := range []int64{40, 10, 30, 20} {
		ug.AddNode(simple.Node(id))
	}
	ug.SetEdge(ug.NewEdge(simple.Node(10), simple.Node(20)))
	ug.SetEdge(ug.NewEdge(simple.Node(20), simple.Node(30)))
	ug.SetEdge(ug.NewEdge(simple.Node(30), simple.Node(10)))

	g, ids, err := FromGonum(ug, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{10, 20, 30, 40}, ids)
	require.True(t, g.Symmetric())
	require.Equal(t, 6, g.NumEdges())
	require.Equal(t, []uint32{1, 2}, g.Neighbors(0))
	require.Empty(t, g.Neighbors(3))
}

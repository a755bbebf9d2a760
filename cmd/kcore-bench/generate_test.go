package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mundrapranay/silhouette-kcore/algorithms/exact"
)

func TestGenerateIsReproducible(t *testing.T) {
	for _, kind := range []string{kindUniform, kindSkewed} {
		a, err := generate(kind, 500, 3000, 7, 2)
		require.NoError(t, err)
		b, err := generate(kind, 500, 3000, 7, 4)
		require.NoError(t, err)

		require.Equal(t, 500, a.NumVertices())
		require.True(t, a.Symmetric())
		offA, edgesA := a.CSR()
		offB, edgesB := b.CSR()
		require.Equal(t, offA, offB, kind)
		require.Equal(t, edgesA, edgesB, kind)
	}
}

func TestGenerateSkewedHasHeavyHead(t *testing.T) {
	g, err := generate(kindSkewed, 2000, 20000, 3, 0)
	require.NoError(t, err)
	require.Greater(t, g.Degree(0), g.Degree(1999))

	d, err := exact.KCore(g, exact.Options{NumBuckets: 8})
	require.NoError(t, err)
	require.Greater(t, d.MaxCore, uint32(1))
}

func TestGenerateRejectsBadInput(t *testing.T) {
	_, err := generate("ring", 10, 10, 1, 0)
	require.Error(t, err)
	_, err = generate(kindUniform, 0, 10, 1, 0)
	require.Error(t, err)
}

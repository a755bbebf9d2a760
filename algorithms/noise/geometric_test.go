package noise

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGeometricRejectsBadLambda(t *testing.T) {
	for _, lambda := range []float64{0, -1, math.NaN(), math.Inf(1), math.Exp2(-70)} {
		_, err := NewGeometric(lambda)
		require.ErrorIs(t, err, ErrLambda, "lambda %v", lambda)
	}

	_, err := TwoSidedGeometric(0)
	require.ErrorIs(t, err, ErrLambda)
}

func TestTwoSidedIsCentered(t *testing.T) {
	g, err := NewGeometric(0.5)
	require.NoError(t, err)

	const samples = 50000
	var sum, zeros float64
	for range samples {
		x := g.TwoSided()
		sum += float64(x)
		if x == 0 {
			zeros++
		}
	}
	// Var = 2e^-λ / (1-e^-λ)^2 ≈ 7.7, so the mean has sd ≈ 0.0124.
	require.InDelta(t, 0, sum/samples, 0.1)

	q := math.Exp(-0.5)
	require.InDelta(t, (1-q)/(1+q), zeros/samples, 0.02)
}

func TestTwoSidedLargeLambdaIsMostlyZero(t *testing.T) {
	g, err := NewGeometric(20)
	require.NoError(t, err)
	require.Equal(t, 20.0, g.Lambda())

	for range 1000 {
		require.Zero(t, g.TwoSided())
	}
}

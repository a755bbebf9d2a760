// Package noise samples the integer noise used by the LEDP algorithms.
//
// The geometric sampler follows google-dp:
// https://github.com/google/differential-privacy/tree/main/go/v2/noise
package noise

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/differential-privacy/go/v2/rand"
)

// minLambda keeps the chance of a truncated sample below 10⁻⁶.
var minLambda = math.Exp2(-59)

// ErrLambda is returned for a parameter the sampler cannot use.
var ErrLambda = errors.New("invalid geometric parameter")

// Geometric samples two-sided geometric noise with parameter lambda: the
// magnitude is geometric with success probability p = 1 - e^-λ.
type Geometric struct {
	lambda float64
}

// NewGeometric returns a sampler for lambda, which must be finite and
// above 2^-59.
func NewGeometric(lambda float64) (*Geometric, error) {
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) || lambda < minLambda {
		return nil, fmt.Errorf("%w: %v", ErrLambda, lambda)
	}
	return &Geometric{lambda: lambda}, nil
}

// Lambda returns the distribution parameter.
func (g *Geometric) Lambda() float64 { return g.lambda }

// geometric returns the number of Bernoulli trials until the first
// success, truncated to MaxInt64.
func (g *Geometric) geometric() int64 {
	if rand.Uniform() > -1.0*math.Expm1(-1.0*g.lambda*math.MaxInt64) {
		return math.MaxInt64
	}

	// Binary search over (left, right]. Each step keeps the half holding
	// the sample, split so that both halves carry about the same mass.
	var left int64 = 0
	var right int64 = math.MaxInt64
	for left+1 < right {
		mid := left - int64(math.Floor((math.Log(0.5)+math.Log1p(math.Exp(g.lambda*float64(left-right))))/g.lambda))
		if mid <= left {
			mid = left + 1
		} else if mid >= right {
			mid = right - 1
		}

		// q = Pr[X <= mid | left < X <= right], roughly one half.
		q := math.Expm1(g.lambda*float64(left-mid)) / math.Expm1(g.lambda*float64(left-right))
		if rand.Uniform() <= q {
			right = mid
		} else {
			left = mid
		}
	}
	return right
}

// TwoSided draws a sample from the geometric distribution mirrored at 0.
func (g *Geometric) TwoSided() int64 {
	var sample int64 = 0
	var sign int64 = -1
	// A zero is kept only with a positive sign, otherwise it would be
	// twice as likely as it should be.
	for sample == 0 && sign == -1 {
		sample = g.geometric() - 1
		sign = int64(rand.Sign())
	}
	return sample * sign
}

// TwoSidedGeometric draws one two-sided sample for lambda.
func TwoSidedGeometric(lambda float64) (int64, error) {
	g, err := NewGeometric(lambda)
	if err != nil {
		return 0, err
	}
	return g.TwoSided(), nil
}

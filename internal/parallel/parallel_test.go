package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForVisitsEveryIndexOnce(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 10_000, 65_537} {
		hits := make([]int32, n)
		For(8, n, 64, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			require.Equalf(t, int32(1), h, "n=%d index %d", n, i)
		}
	}
}

func TestPackKeepsChunkOrder(t *testing.T) {
	const n = 50_000
	out := Pack(16, n, 100, func(lo, hi int, out []int) []int {
		for i := lo; i < hi; i++ {
			if i%3 == 0 {
				out = append(out, i)
			}
		}
		return out
	})
	require.Len(t, out, (n+2)/3)
	for i, v := range out {
		require.Equal(t, 3*i, v)
	}
}

func TestPackEmpty(t *testing.T) {
	out := Pack(4, 0, 1, func(lo, hi int, out []int) []int { return append(out, lo) })
	require.Empty(t, out)
}

func TestSum(t *testing.T) {
	got := Sum(0, 1001, 10, func(i int) uint64 { return uint64(i) })
	require.Equal(t, uint64(1000*1001/2), got)
	require.Zero(t, Sum(4, 0, 10, func(int) uint64 { return 1 }))
}

func TestWorkers(t *testing.T) {
	require.Equal(t, 3, Workers(3))
	require.Positive(t, Workers(0))
	require.Positive(t, Workers(-1))
}

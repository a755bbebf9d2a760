package bitset

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetBasics(t *testing.T) {
	s := New(130)
	require.Equal(t, 130, s.Len())
	require.Zero(t, s.Count())

	for _, i := range []uint32{0, 63, 64, 129} {
		require.False(t, s.Test(i))
		require.False(t, s.TestAndSet(i))
		require.True(t, s.Test(i))
		require.True(t, s.TestAndSet(i))
	}
	require.Equal(t, 4, s.Count())

	s.Clear(64)
	require.False(t, s.Test(64))
	require.True(t, s.Test(63))
	require.Equal(t, 3, s.Count())

	s.Reset()
	require.Zero(t, s.Count())
}

func TestTestAndSetHasSingleWinner(t *testing.T) {
	const (
		bitsN      = 512
		goroutines = 16
	)
	s := New(bitsN)
	var winners [bitsN]int32
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := uint32(0); i < bitsN; i++ {
				if !s.TestAndSet(i) {
					atomic.AddInt32(&winners[i], 1)
				}
			}
		}()
	}
	wg.Wait()
	for i, w := range winners {
		require.Equalf(t, int32(1), w, "bit %d", i)
	}
	require.Equal(t, bitsN, s.Count())
}

func TestNegativeLength(t *testing.T) {
	s := New(-3)
	require.Zero(t, s.Len())
	require.Zero(t, s.Count())
}

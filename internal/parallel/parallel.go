// Package parallel provides the fork-join loops used by the peeling engine.
// Every helper blocks until all of its chunks have completed, so callers can
// treat each call as a barrier between steps.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultGrain is the smallest chunk handed to a worker.
const DefaultGrain = 2048

// Workers resolves a requested worker count; values <= 0 mean GOMAXPROCS.
func Workers(requested int) int {
	if requested > 0 {
		return requested
	}
	return runtime.GOMAXPROCS(0)
}

// chunks returns how many contiguous chunks [0, n) is split into.
func chunks(workers, n, grain int) int {
	if n <= 0 {
		return 0
	}
	if grain <= 0 {
		grain = DefaultGrain
	}
	c := (n + grain - 1) / grain
	if w := Workers(workers); c > w {
		c = w
	}
	return c
}

func bounds(i, c, n int) (int, int) {
	size := (n + c - 1) / c
	lo := i * size
	hi := lo + size
	if hi > n {
		hi = n
	}
	return lo, hi
}

// run executes fn(i, lo, hi) for each of the c chunks of [0, n).
func run(c, n int, fn func(i, lo, hi int)) {
	if c == 1 {
		fn(0, 0, n)
		return
	}
	var g errgroup.Group
	for i := 0; i < c; i++ {
		lo, hi := bounds(i, c, n)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			fn(i, lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

// For runs fn over contiguous sub-ranges of [0, n) in parallel.
func For(workers, n, grain int, fn func(lo, hi int)) {
	c := chunks(workers, n, grain)
	if c == 0 {
		return
	}
	run(c, n, func(_, lo, hi int) { fn(lo, hi) })
}

// Pack runs fn over contiguous sub-ranges of [0, n) in parallel. Each call
// appends its results to the slice it is given; the per-chunk slices are
// concatenated in chunk order, so the output order does not depend on
// scheduling.
func Pack[T any](workers, n, grain int, fn func(lo, hi int, out []T) []T) []T {
	c := chunks(workers, n, grain)
	if c == 0 {
		return nil
	}
	if c == 1 {
		return fn(0, n, nil)
	}
	locals := make([][]T, c)
	run(c, n, func(i, lo, hi int) {
		locals[i] = fn(lo, hi, nil)
	})
	total := 0
	for _, l := range locals {
		total += len(l)
	}
	out := make([]T, 0, total)
	for _, l := range locals {
		out = append(out, l...)
	}
	return out
}

// Sum adds up fn(i) for every i in [0, n).
func Sum(workers, n, grain int, fn func(i int) uint64) uint64 {
	c := chunks(workers, n, grain)
	if c == 0 {
		return 0
	}
	partial := make([]uint64, c)
	run(c, n, func(i, lo, hi int) {
		var s uint64
		for j := lo; j < hi; j++ {
			s += fn(j)
		}
		partial[i] = s
	})
	var total uint64
	for _, s := range partial {
		total += s
	}
	return total
}

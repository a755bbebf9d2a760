package common

import "github.com/mundrapranay/silhouette-kcore/internal/parallel"

// VertexArray maps every vertex id in [0, n) to a value. Distinct vertices
// may be written concurrently; the same vertex may not.
type VertexArray[T any] struct {
	vals []T
}

// NewVertexArray allocates n entries and fills them with init in parallel.
// A nil init leaves the zero value.
func NewVertexArray[T any](n, workers int, init func(v uint32) T) *VertexArray[T] {
	a := &VertexArray[T]{vals: make([]T, n)}
	if init != nil {
		parallel.For(workers, n, parallel.DefaultGrain, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				a.vals[i] = init(uint32(i))
			}
		})
	}
	return a
}

// Len returns the number of vertices.
func (a *VertexArray[T]) Len() int { return len(a.vals) }

// Get returns the value of v.
func (a *VertexArray[T]) Get(v uint32) T { return a.vals[v] }

// Set stores x as the value of v.
func (a *VertexArray[T]) Set(v uint32, x T) { a.vals[v] = x }

// Slice returns the backing slice.
func (a *VertexArray[T]) Slice() []T { return a.vals }

// Package bucket implements the priority-bucketed vertex scheduler used by
// the peeling engine.
//
// A Store keeps numBuckets buckets. The first numBuckets-1 are "open" and
// cover a window of consecutive priorities [base, base+open); the last one
// collects every vertex whose priority lies beyond the window. Vertices are
// delivered in non-decreasing priority order. Entries are never removed
// eagerly: a vertex that moves leaves a stale entry behind, which is
// dropped when its bucket is drained because the vertex's current priority
// no longer maps there.
//
// A store built with a single bucket still keeps a hidden overflow slot:
// its window is one priority wide and moves on every drain.
package bucket

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sync"

	"github.com/mundrapranay/silhouette-kcore/internal/bitset"
	"github.com/mundrapranay/silhouette-kcore/internal/parallel"
)

// ErrBucketCount is returned when the bucket count is not a power of two.
var ErrBucketCount = errors.New("number of buckets must be a power of two")

// ID is a window-relative bucket index.
type ID = uint32

// NoMove marks an update that leaves the vertex in its current bucket.
const NoMove ID = math.MaxUint32

// denseBatchLimit bounds the bucket count for which per-worker batches are
// plain slices indexed by bucket; larger stores batch through a map.
const denseBatchLimit = 1 << 12

// Update moves Vertex into Bucket.
type Update struct {
	Vertex uint32
	Bucket ID
}

// Bucket is the result of NextBucket: the priority shared by all
// Identifiers. An empty bucket signals that the store is exhausted.
type Bucket struct {
	ID          uint32
	Identifiers []uint32
}

// Empty reports whether the store had nothing left to deliver.
func (b Bucket) Empty() bool { return len(b.Identifiers) == 0 }

// PriorityFunc returns the current priority of a vertex. It is consulted
// while buckets are drained and must not change concurrently with
// NextBucket.
type PriorityFunc func(v uint32) uint32

type slot struct {
	mu  sync.Mutex
	ids []uint32
}

// Store is a bucketed multiset of vertex ids keyed by priority.
type Store struct {
	n       int
	prio    PriorityFunc
	total   int
	open    int
	base    uint32
	cur     int
	slots   []slot
	out     *bitset.Set
	done    int
	workers int
}

// ValidateCount checks that numBuckets is a positive power of two.
func ValidateCount(numBuckets int) error {
	if numBuckets < 1 || bits.OnesCount(uint(numBuckets)) != 1 {
		return fmt.Errorf("%w: got %d", ErrBucketCount, numBuckets)
	}
	return nil
}

// New buckets the n vertices [0, n) by prio. workers <= 0 uses GOMAXPROCS.
func New(n int, prio PriorityFunc, numBuckets, workers int) (*Store, error) {
	if err := ValidateCount(numBuckets); err != nil {
		return nil, err
	}
	open := max(numBuckets-1, 1)
	s := &Store{
		n:       n,
		prio:    prio,
		total:   numBuckets,
		open:    open,
		slots:   make([]slot, open+1),
		out:     bitset.New(n),
		workers: parallel.Workers(workers),
	}
	if n == 0 {
		return s, nil
	}
	s.base = s.minPriority(n, func(i int) uint32 { return uint32(i) })
	s.scatter(n, func(i int) (uint32, ID) {
		v := uint32(i)
		return v, s.toRange(prio(v))
	})
	return s, nil
}

// NumBuckets returns the bucket count the store was built with.
func (s *Store) NumBuckets() int { return s.total }

// Finished returns how many vertices NextBucket has delivered so far.
func (s *Store) Finished() int { return s.done }

// Done reports whether every vertex has been delivered.
func (s *Store) Done() bool { return s.done == s.n }

// Threshold returns the priority of the bucket under the cursor.
func (s *Store) Threshold() uint32 { return s.base + uint32(s.cur) }

// toRange maps a priority to its bucket in the current window.
func (s *Store) toRange(p uint32) ID {
	if uint64(p) >= uint64(s.base)+uint64(s.open) {
		return ID(s.open)
	}
	return ID(p - s.base)
}

// GetBucket returns the bucket a vertex moves to when its priority drops
// from prev to next, or NoMove when both map to the same bucket.
func (s *Store) GetBucket(prev, next uint32) ID {
	pb, nb := s.toRange(prev), s.toRange(next)
	if pb == nb {
		return NoMove
	}
	return nb
}

// NextBucket removes and returns the lowest non-empty bucket. When updates
// land in the bucket under the cursor, the cursor stays put and the next
// call returns the same priority again with the refill. Every vertex is
// delivered exactly once over the life of the store.
func (s *Store) NextBucket() Bucket {
	for s.done < s.n {
		for s.cur < s.open {
			ids := s.take(s.cur)
			if len(ids) == 0 {
				s.cur++
				continue
			}
			k := s.Threshold()
			live := s.filter(ids, k)
			if len(live) > 0 {
				s.done += len(live)
				return Bucket{ID: k, Identifiers: live}
			}
		}
		if !s.advance() {
			break
		}
	}
	return Bucket{ID: NoMove}
}

// UpdateBuckets moves every vertex in updates into its new bucket. Vertex
// ids must be distinct within one call; concurrent calls on disjoint
// vertex sets are safe.
func (s *Store) UpdateBuckets(updates []Update) {
	s.scatter(len(updates), func(i int) (uint32, ID) {
		u := updates[i]
		if debugChecks && u.Bucket != NoMove && int(u.Bucket) < s.cur {
			panic(fmt.Sprintf("bucket: vertex %d moved to bucket %d below cursor %d", u.Vertex, u.Bucket, s.cur))
		}
		return u.Vertex, u.Bucket
	})
}

func (s *Store) take(i int) []uint32 {
	sl := &s.slots[i]
	sl.mu.Lock()
	ids := sl.ids
	sl.ids = nil
	sl.mu.Unlock()
	return ids
}

// filter keeps the entries whose vertex still has priority k and has not
// been delivered yet, marking them delivered.
func (s *Store) filter(ids []uint32, k uint32) []uint32 {
	return parallel.Pack(s.workers, len(ids), parallel.DefaultGrain, func(lo, hi int, out []uint32) []uint32 {
		for _, v := range ids[lo:hi] {
			if s.prio(v) == k && !s.out.TestAndSet(v) {
				out = append(out, v)
			}
		}
		return out
	})
}

// advance moves the window to the smallest priority held by the overflow
// bucket and redistributes it. It reports false when nothing is left.
func (s *Store) advance() bool {
	var pending []uint32
	for _, v := range s.take(s.open) {
		if !s.out.Test(v) {
			pending = append(pending, v)
		}
	}
	if len(pending) == 0 {
		return false
	}
	s.base = s.minPriority(len(pending), func(i int) uint32 { return pending[i] })
	s.cur = 0
	s.scatter(len(pending), func(i int) (uint32, ID) {
		v := pending[i]
		return v, s.toRange(s.prio(v))
	})
	return true
}

func (s *Store) minPriority(count int, at func(i int) uint32) uint32 {
	mins := parallel.Pack(s.workers, count, parallel.DefaultGrain, func(lo, hi int, out []uint32) []uint32 {
		m := uint32(math.MaxUint32)
		for i := lo; i < hi; i++ {
			if p := s.prio(at(i)); p < m {
				m = p
			}
		}
		return append(out, m)
	})
	m := uint32(math.MaxUint32)
	for _, x := range mins {
		if x < m {
			m = x
		}
	}
	return m
}

// scatter inserts count (vertex, bucket) pairs. Each worker batches its
// share by bucket and appends each batch under that bucket's lock.
func (s *Store) scatter(count int, at func(i int) (uint32, ID)) {
	parallel.For(s.workers, count, parallel.DefaultGrain, func(lo, hi int) {
		b := s.newBatch()
		for i := lo; i < hi; i++ {
			v, id := at(i)
			if id == NoMove {
				continue
			}
			b.add(id, v)
		}
		b.each(func(id ID, ids []uint32) {
			sl := &s.slots[id]
			sl.mu.Lock()
			sl.ids = append(sl.ids, ids...)
			sl.mu.Unlock()
		})
	})
}

type batch struct {
	dense  [][]uint32
	sparse map[ID][]uint32
}

func (s *Store) newBatch() *batch {
	if len(s.slots) <= denseBatchLimit {
		return &batch{dense: make([][]uint32, len(s.slots))}
	}
	return &batch{sparse: make(map[ID][]uint32)}
}

func (b *batch) add(id ID, v uint32) {
	if b.dense != nil {
		b.dense[id] = append(b.dense[id], v)
		return
	}
	b.sparse[id] = append(b.sparse[id], v)
}

func (b *batch) each(fn func(id ID, ids []uint32)) {
	if b.dense != nil {
		for id, ids := range b.dense {
			if len(ids) > 0 {
				fn(ID(id), ids)
			}
		}
		return
	}
	for id, ids := range b.sparse {
		fn(id, ids)
	}
}

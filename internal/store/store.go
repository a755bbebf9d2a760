// Package store persists decomposition results in a bbolt database so runs
// can be listed and their per-vertex core numbers looked up later.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// ChunkSize is the number of core numbers stored under one key.
const ChunkSize = 4096

var (
	runsBucket  = []byte("runs")
	coresBucket = []byte("cores")
)

var (
	// ErrRunNotFound is returned for an unknown run id.
	ErrRunNotFound = errors.New("run not found")
	// ErrVertexOutOfRange is returned by CoreOf for a vertex the run does
	// not cover.
	ErrVertexOutOfRange = errors.New("vertex out of range")
)

// Run describes one stored decomposition.
type Run struct {
	ID          uuid.UUID     `json:"id"`
	Algorithm   string        `json:"algorithm"`
	Graph       string        `json:"graph,omitempty"`
	NumVertices int           `json:"num_vertices"`
	NumEdges    int           `json:"num_edges"`
	NumBuckets  int           `json:"num_buckets,omitempty"`
	MaxCore     uint32        `json:"max_core"`
	SumCore     uint64        `json:"sum_core"`
	CreatedAt   time.Time     `json:"created_at"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Config holds configuration for opening a store.
type Config struct {
	Path    string
	Timeout time.Duration // how long to wait for the file lock
}

// NewStore opens (creating if needed) the database at config.Path.
func NewStore(config Config) (*Store, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(config.Path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{runsBucket, coresBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize result store: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveRun stores run and its core numbers in one transaction. A nil ID is
// replaced by a fresh one and a zero CreatedAt by the current time;
// NumVertices is always len(cores). The stored Run is returned.
func (s *Store) SaveRun(run Run, cores []uint32) (Run, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.NumVertices = len(cores)

	meta, err := json.Marshal(run)
	if err != nil {
		return Run{}, fmt.Errorf("failed to marshal run: %w", err)
	}
	key := run.ID[:]
	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(runsBucket).Put(key, meta); err != nil {
			return err
		}
		parent := tx.Bucket(coresBucket)
		if parent.Bucket(key) != nil {
			if err := parent.DeleteBucket(key); err != nil {
				return err
			}
		}
		b, err := parent.CreateBucket(key)
		if err != nil {
			return err
		}
		for i := 0; i*ChunkSize < len(cores); i++ {
			chunk := cores[i*ChunkSize : min((i+1)*ChunkSize, len(cores))]
			if err := b.Put(chunkKey(i), encodeChunk(chunk)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Run{}, fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return run, nil
}

// Run returns the metadata of one run.
func (s *Store) Run(id uuid.UUID) (Run, error) {
	var run Run
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(runsBucket).Get(id[:])
		if meta == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return json.Unmarshal(meta, &run)
	})
	return run, err
}

// Runs lists every stored run, oldest first.
func (s *Store) Runs() ([]Run, error) {
	var runs []Run
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).ForEach(func(_, meta []byte) error {
			var run Run
			if err := json.Unmarshal(meta, &run); err != nil {
				return err
			}
			runs = append(runs, run)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	slices.SortFunc(runs, func(a, b Run) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return runs, nil
}

// LoadCores returns the core numbers of a run.
func (s *Store) LoadCores(id uuid.UUID) ([]uint32, error) {
	var cores []uint32
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(coresBucket).Bucket(id[:])
		if b == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		// Big-endian chunk keys iterate in order.
		return b.ForEach(func(_, v []byte) error {
			cores = decodeChunk(cores, v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return cores, nil
}

// CoreOf returns the core number of vertex v in a run, reading one chunk.
func (s *Store) CoreOf(id uuid.UUID, v uint32) (uint32, error) {
	var core uint32
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(coresBucket).Bucket(id[:])
		if b == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		chunk := b.Get(chunkKey(int(v / ChunkSize)))
		off := int(v%ChunkSize) * 4
		if off+4 > len(chunk) {
			return fmt.Errorf("%w: %d", ErrVertexOutOfRange, v)
		}
		core = binary.LittleEndian.Uint32(chunk[off:])
		return nil
	})
	return core, err
}

// DeleteRun removes a run and its core numbers.
func (s *Store) DeleteRun(id uuid.UUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(runsBucket)
		if runs.Get(id[:]) == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		if err := runs.Delete(id[:]); err != nil {
			return err
		}
		return tx.Bucket(coresBucket).DeleteBucket(id[:])
	})
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func chunkKey(i int) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], uint32(i))
	return k[:]
}

func encodeChunk(vals []uint32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, c := range vals {
		binary.LittleEndian.PutUint32(buf[4*i:], c)
	}
	return buf
}

// decodeChunk copies out of buf, which bbolt only keeps valid for the
// transaction.
func decodeChunk(dst []uint32, buf []byte) []uint32 {
	for off := 0; off+4 <= len(buf); off += 4 {
		dst = append(dst, binary.LittleEndian.Uint32(buf[off:]))
	}
	return dst
}

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.db")
	s, err := NewStore(Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestNewStoreRequiresPath(t *testing.T) {
	_, err := NewStore(Config{})
	require.Error(t, err)
}

func TestStore_SaveAndLoad(t *testing.T) {
	s, _ := newTestStore(t)

	cores := make([]uint32, 3*ChunkSize+17)
	for i := range cores {
		cores[i] = uint32(i % 11)
	}
	run, err := s.SaveRun(Run{Algorithm: "kcore", NumEdges: 42, MaxCore: 10}, cores)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, run.ID)
	require.Equal(t, len(cores), run.NumVertices)
	require.False(t, run.CreatedAt.IsZero())

	loaded, err := s.LoadCores(run.ID)
	require.NoError(t, err)
	require.Equal(t, cores, loaded)

	for _, v := range []uint32{0, ChunkSize - 1, ChunkSize, uint32(len(cores) - 1)} {
		c, err := s.CoreOf(run.ID, v)
		require.NoError(t, err)
		require.Equal(t, cores[v], c, "vertex %d", v)
	}
	_, err = s.CoreOf(run.ID, uint32(len(cores)))
	require.ErrorIs(t, err, ErrVertexOutOfRange)

	meta, err := s.Run(run.ID)
	require.NoError(t, err)
	require.Equal(t, "kcore", meta.Algorithm)
	require.Equal(t, 42, meta.NumEdges)
	require.Equal(t, uint32(10), meta.MaxCore)
}

func TestStore_EmptyRun(t *testing.T) {
	s, _ := newTestStore(t)

	run, err := s.SaveRun(Run{Algorithm: "kcore"}, nil)
	require.NoError(t, err)

	cores, err := s.LoadCores(run.ID)
	require.NoError(t, err)
	require.Empty(t, cores)

	_, err = s.CoreOf(run.ID, 0)
	require.ErrorIs(t, err, ErrVertexOutOfRange)
}

func TestStore_UnknownRun(t *testing.T) {
	s, _ := newTestStore(t)
	id := uuid.New()

	_, err := s.Run(id)
	require.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.LoadCores(id)
	require.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.CoreOf(id, 0)
	require.ErrorIs(t, err, ErrRunNotFound)
	require.ErrorIs(t, s.DeleteRun(id), ErrRunNotFound)
}

func TestStore_RunsOrderedAndDelete(t *testing.T) {
	s, _ := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i, at := range []time.Time{base.Add(2 * time.Hour), base, base.Add(time.Hour)} {
		run, err := s.SaveRun(Run{Algorithm: "kcore", CreatedAt: at}, []uint32{uint32(i)})
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	require.Equal(t, []uuid.UUID{ids[1], ids[2], ids[0]}, []uuid.UUID{runs[0].ID, runs[1].ID, runs[2].ID})

	require.NoError(t, s.DeleteRun(ids[1]))
	runs, err = s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	_, err = s.LoadCores(ids[1])
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_OverwriteRun(t *testing.T) {
	s, _ := newTestStore(t)

	run, err := s.SaveRun(Run{Algorithm: "kcore"}, []uint32{1, 2, 3})
	require.NoError(t, err)
	_, err = s.SaveRun(run, []uint32{4})
	require.NoError(t, err)

	cores, err := s.LoadCores(run.ID)
	require.NoError(t, err)
	require.Equal(t, []uint32{4}, cores)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	s, err := NewStore(Config{Path: path})
	require.NoError(t, err)
	run, err := s.SaveRun(Run{Algorithm: "kcore"}, []uint32{0, 1, 1})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(Config{Path: path})
	require.NoError(t, err)
	defer s.Close()
	cores, err := s.LoadCores(run.ID)
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 1, 1}, cores)
}

package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T) *JSONStore[item] {
	t.Helper()
	s, err := NewJSONStore[item](filepath.Join(t.TempDir(), "items"), "item")
	require.NoError(t, err)
	return s
}

func TestNewJSONStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "items")
	s, err := NewJSONStore[item](dir, "item")
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = NewJSONStore[item]("", "item")
	assert.True(t, IsInvalidInput(err))
}

func TestJSONStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Create(ctx, "a", item{Name: "a", Count: 1}))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, item{Name: "a", Count: 1}, got)

	err = s.Create(ctx, "a", item{Name: "again"})
	assert.True(t, IsAlreadyExists(err))

	_, err = s.Get(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestJSONStore_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, "a", item{Count: 1}))
	require.NoError(t, s.Put(ctx, "a", item{Count: 2}))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "temp files must not be left behind")
	}
}

func TestJSONStore_Exists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ok, err := s.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "a", item{}))
	ok, err = s.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJSONStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, "a", item{}))
	require.NoError(t, s.Delete(ctx, "a"))

	assert.True(t, IsNotFound(s.Delete(ctx, "a")))
}

func TestJSONStore_List(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, "b", item{Name: "b"}))
	require.NoError(t, s.Put(ctx, "a", item{Name: "a"}))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "broken.json"), []byte("{not json"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("ignored"), 0o600))

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	ids := []string{records[0].ID, records[1].ID}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestJSONStore_ListEmpty(t *testing.T) {
	records, err := newTestStore(t).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestJSONStore_Rename(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, "old", item{Name: "old"}))
	require.NoError(t, s.Put(ctx, "taken", item{Name: "taken"}))

	t.Run("to free id", func(t *testing.T) {
		require.NoError(t, s.Rename(ctx, "old", "new", item{Name: "new"}))

		_, err := s.Get(ctx, "old")
		assert.True(t, IsNotFound(err))
		got, err := s.Get(ctx, "new")
		require.NoError(t, err)
		assert.Equal(t, "new", got.Name)
	})

	t.Run("to taken id", func(t *testing.T) {
		err := s.Rename(ctx, "new", "taken", item{})
		assert.True(t, IsAlreadyExists(err))
	})

	t.Run("missing source", func(t *testing.T) {
		err := s.Rename(ctx, "ghost", "other", item{})
		assert.True(t, IsNotFound(err))
	})

	t.Run("same id updates in place", func(t *testing.T) {
		require.NoError(t, s.Rename(ctx, "new", "new", item{Count: 7}))
		got, err := s.Get(ctx, "new")
		require.NoError(t, err)
		assert.Equal(t, 7, got.Count)
	})
}

func TestJSONStore_RejectsBadIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, id := range []string{"", "  ", "../escape", `a\b`, "a/b", ".hidden"} {
		t.Run(id, func(t *testing.T) {
			assert.True(t, IsInvalidInput(s.Put(ctx, id, item{})))
			_, err := s.Get(ctx, id)
			assert.True(t, IsInvalidInput(err))
		})
	}
}

func TestJSONStore_CanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, "a", item{}), context.Canceled)
	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, s.Put(ctx, "shared", item{Count: n}))
		}(i)
	}
	wg.Wait()

	got, err := s.Get(ctx, "shared")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.Count, 0)
	assert.Less(t, got.Count, 16)
}

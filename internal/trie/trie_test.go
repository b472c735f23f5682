package trie

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertGet(t *testing.T) {
	tr := New[string]()
	_, had := tr.Insert(100, "a")
	require.False(t, had)
	v, ok := tr.Get(100)
	require.True(t, ok)
	require.Equal(t, "a", v)

	old, had := tr.Insert(100, "b")
	require.True(t, had)
	require.Equal(t, "a", old)
	v, _ = tr.Get(100)
	require.Equal(t, "b", v)
}

func TestGet_Missing(t *testing.T) {
	tr := New[int]()
	_, ok := tr.Get(42)
	require.False(t, ok)
}

func TestDelete(t *testing.T) {
	tr := New[int]()
	tr.Insert(1, 11)
	tr.Insert(2, 22)
	require.Equal(t, 2, tr.Len())

	v, ok := tr.Delete(1)
	require.True(t, ok)
	require.Equal(t, 11, v)
	require.Equal(t, 1, tr.Len())

	_, ok = tr.Get(1)
	require.False(t, ok)
	v, ok = tr.Get(2)
	require.True(t, ok)
	require.Equal(t, 22, v)
}

func TestDelete_Missing(t *testing.T) {
	tr := New[int]()
	tr.Insert(1, 11)
	_, ok := tr.Delete(2)
	require.False(t, ok)
	require.Equal(t, 1, tr.Len())
}

func TestDelete_ThenReinsertEmptyTrie(t *testing.T) {
	tr := New[int]()
	tr.Insert(5, 50)
	tr.Delete(5)
	require.Equal(t, 0, tr.Len())
	_, ok := tr.Get(5)
	require.False(t, ok)

	tr.Insert(5, 99)
	v, ok := tr.Get(5)
	require.True(t, ok)
	require.Equal(t, 99, v)
}

func TestFirstLast(t *testing.T) {
	tr := New[int]()
	_, _, ok := tr.First()
	require.False(t, ok)

	for _, k := range []uint32{500, 10, 999, 1} {
		tr.Insert(k, int(k))
	}
	k, v, ok := tr.First()
	require.True(t, ok)
	require.Equal(t, uint32(1), k)
	require.Equal(t, 1, v)

	k, v, ok = tr.Last()
	require.True(t, ok)
	require.Equal(t, uint32(999), k)
	require.Equal(t, 999, v)
}

func TestTryGet_FloorCeiling(t *testing.T) {
	tr := New[int]()
	for _, k := range []uint32{10, 20, 30} {
		tr.Insert(k, int(k))
	}

	k, _, ok := tr.TryGet(25, ModeFloor)
	require.True(t, ok)
	require.Equal(t, uint32(20), k)

	k, _, ok = tr.TryGet(25, ModeCeiling)
	require.True(t, ok)
	require.Equal(t, uint32(30), k)

	_, _, ok = tr.TryGet(5, ModeFloor)
	require.False(t, ok)

	_, _, ok = tr.TryGet(31, ModeCeiling)
	require.False(t, ok)

	k, _, ok = tr.TryGet(20, ModeFloor)
	require.True(t, ok)
	require.Equal(t, uint32(20), k)
}

func TestNextPrev(t *testing.T) {
	tr := New[int]()
	for _, k := range []uint32{10, 20, 30} {
		tr.Insert(k, int(k))
	}

	k, _, ok := tr.Next(10)
	require.True(t, ok)
	require.Equal(t, uint32(20), k)

	_, _, ok = tr.Next(30)
	require.False(t, ok)

	k, _, ok = tr.Prev(30)
	require.True(t, ok)
	require.Equal(t, uint32(20), k)

	_, _, ok = tr.Prev(10)
	require.False(t, ok)

	_, _, ok = tr.Prev(0)
	require.False(t, ok)

	_, _, ok = tr.Next(0xFFFFFFFF)
	require.False(t, ok)
}

// TestDelete_LastElementUpdatesLast pins a regression the source's
// list-enumerator had: deleting the highest-keyed element must leave Last
// (not some stale reference to the removed node) pointing at the new
// highest key. The arena+index design here has no equivalent back-pointer
// to leave dangling, but the property is worth pinning directly rather
// than trusting that by construction.
func TestDelete_LastElementUpdatesLast(t *testing.T) {
	tr := New[int]()
	for _, k := range []uint32{10, 20, 30} {
		tr.Insert(k, int(k))
	}

	tr.Delete(30)

	k, v, ok := tr.Last()
	require.True(t, ok)
	require.Equal(t, uint32(20), k)
	require.Equal(t, 20, v)

	_, _, ok = tr.Next(20)
	require.False(t, ok)
}

func TestEach_AscendingOrder(t *testing.T) {
	tr := New[int]()
	keys := []uint32{500, 10, 0xFFFFFFFF, 999, 1, 0}
	for _, k := range keys {
		tr.Insert(k, int(k))
	}

	var seen []uint32
	tr.Each(func(k uint32, v int) bool {
		seen = append(seen, k)
		return true
	})

	require.Len(t, seen, len(keys))
	for i := 1; i < len(seen); i++ {
		require.Less(t, seen[i-1], seen[i])
	}
}

func TestEach_EarlyStop(t *testing.T) {
	tr := New[int]()
	for i := uint32(0); i < 10; i++ {
		tr.Insert(i, int(i))
	}
	count := 0
	tr.Each(func(k uint32, v int) bool {
		count++
		return count < 3
	})
	require.Equal(t, 3, count)
}

func TestStress_ManyKeysOrderedIteration(t *testing.T) {
	tr := New[int]()
	rng := rand.New(rand.NewSource(1))
	keys := make(map[uint32]bool)
	for len(keys) < 5000 {
		keys[rng.Uint32()] = true
	}
	for k := range keys {
		tr.Insert(k, int(k))
	}
	require.Equal(t, len(keys), tr.Len())

	var prev uint32
	count := 0
	first := true
	tr.Each(func(k uint32, v int) bool {
		if !first {
			require.Less(t, prev, k)
		}
		prev = k
		first = false
		count++
		return true
	})
	require.Equal(t, len(keys), count)

	for k := range keys {
		v, ok := tr.Get(k)
		require.True(t, ok)
		require.Equal(t, int(k), v)
	}
}

func TestDeletePrunesEmptyInternalNodes(t *testing.T) {
	tr := New[int]()
	tr.Insert(0x00000001, 1)
	tr.Insert(0x00000002, 2)
	tr.Delete(0x00000001)
	tr.Delete(0x00000002)
	require.Equal(t, 0, tr.Len())
	require.Equal(t, int32(-1), tr.root)
}

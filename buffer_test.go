package memhex

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparsehex/memhex/internal/utils"
)

func TestNewMemory(t *testing.T) {
	m, err := NewMemory(16)
	require.NoError(t, err)
	require.Equal(t, uint64(16), m.Len())
	for i := uint64(0); i < 16; i++ {
		b, err := m.At(i)
		require.NoError(t, err)
		require.Equal(t, byte(0), b)
	}
}

func TestNewMemory_OutOfRange(t *testing.T) {
	_, err := NewMemory(utils.MaxAddressSpaceSize + 1)
	require.Error(t, err)
	require.True(t, errors.Is(err, utils.Sentinel(utils.KindOutOfRange)))
}

func TestNewMemoryFromBytes(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	m := NewMemoryFromBytes(src)
	require.Equal(t, uint64(4), m.Len())
	src[0] = 0xFF
	b, _ := m.At(0)
	require.Equal(t, byte(1), b, "must deep copy, not alias caller's slice")
}

func TestMemory_Fill(t *testing.T) {
	m, _ := NewMemory(8)
	m.Fill(0xAB)
	for i := uint64(0); i < 8; i++ {
		b, _ := m.At(i)
		require.Equal(t, byte(0xAB), b)
	}
}

func TestMemory_AtBounds(t *testing.T) {
	m, _ := NewMemory(4)
	_, err := m.At(4)
	require.Error(t, err)
	require.True(t, errors.Is(err, utils.Sentinel(utils.KindOutOfRange)))

	require.NoError(t, m.SetAt(3, 9))
	b, _ := m.At(3)
	require.Equal(t, byte(9), b)

	err = m.SetAt(4, 9)
	require.Error(t, err)
}

func TestMemory_Copy(t *testing.T) {
	src := NewMemoryFromBytes([]byte{1, 2, 3, 4, 5})
	dst, _ := NewMemory(5)

	require.NoError(t, dst.Copy(src, 1, 0, 3))
	require.Equal(t, []byte{2, 3, 4, 0, 0}, dst.Bytes())
}

func TestMemory_Copy_ChunkedLargeTransfer(t *testing.T) {
	const n = maxCopyChunk + 1024
	src, _ := NewMemory(n)
	for i := range src.Bytes() {
		src.Bytes()[i] = byte(i)
	}
	dst, _ := NewMemory(n)

	require.NoError(t, dst.Copy(src, 0, 0, n))
	require.Equal(t, src.Bytes(), dst.Bytes())
}

func TestMemory_Copy_OutOfRange(t *testing.T) {
	src, _ := NewMemory(4)
	dst, _ := NewMemory(4)

	require.Error(t, dst.Copy(src, 2, 0, 4))
	require.Error(t, dst.Copy(src, 0, 2, 4))
}

func TestMemory_CopyFromSlice(t *testing.T) {
	dst, _ := NewMemory(4)
	require.NoError(t, dst.CopyFromSlice([]byte{9, 9}, 1))
	require.Equal(t, []byte{0, 9, 9, 0}, dst.Bytes())

	require.Error(t, dst.CopyFromSlice([]byte{1, 2, 3}, 2))
}

func TestMemory_Clone(t *testing.T) {
	m := NewMemoryFromBytes([]byte{1, 2, 3})
	clone := m.Clone()
	require.Equal(t, m.Bytes(), clone.Bytes())

	clone.Bytes()[0] = 0xFF
	b, _ := m.At(0)
	require.Equal(t, byte(1), b, "clone must be independent")
}

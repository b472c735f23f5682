package memhex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparsehex/memhex/internal/memmap"
)

func TestNewDataBuffer_PartialImplementation(t *testing.T) {
	mm := memmap.New()
	mm.SetBlankData(0xAA)
	require.NoError(t, mm.Insert(0x10, []byte{1, 2, 3, 4}))

	db, err := NewDataBuffer(NewRegion(0x0E, 0x15), mm)
	require.NoError(t, err)
	require.Equal(t, uint64(8), db.Data().Len())
	require.Equal(t, byte(0xAA), db.Blank())

	for i := uint64(0); i < 2; i++ {
		impl, err := db.Implemented(i)
		require.NoError(t, err)
		require.False(t, impl)
		b, err := db.Data().At(i)
		require.NoError(t, err)
		require.Equal(t, byte(0xAA), b)
	}
	for i := uint64(2); i < 6; i++ {
		impl, err := db.Implemented(i)
		require.NoError(t, err)
		require.True(t, impl)
	}
	for i := uint64(6); i < 8; i++ {
		impl, err := db.Implemented(i)
		require.NoError(t, err)
		require.False(t, impl)
	}

	b2, err := db.Data().At(2)
	require.NoError(t, err)
	require.Equal(t, byte(1), b2)

	count, err := db.ImplementedCount()
	require.NoError(t, err)
	require.Equal(t, uint64(4), count)
}

func TestNewDataBuffer_EmptyRegion(t *testing.T) {
	mm := memmap.New()
	db, err := NewDataBuffer(EmptyRegion(), mm)
	require.NoError(t, err)
	require.Equal(t, uint64(0), db.Data().Len())
	count, err := db.ImplementedCount()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)
}

func TestNewDataBuffer_FullyImplemented(t *testing.T) {
	mm := memmap.New()
	require.NoError(t, mm.Insert(0, []byte{9, 9, 9}))

	db, err := NewDataBuffer(NewRegion(0, 2), mm)
	require.NoError(t, err)
	count, err := db.ImplementedCount()
	require.NoError(t, err)
	require.Equal(t, uint64(3), count)
}

func TestDataBuffer_ImplementedOutOfRange(t *testing.T) {
	mm := memmap.New()
	require.NoError(t, mm.Insert(0, []byte{1}))
	db, err := NewDataBuffer(NewRegion(0, 0), mm)
	require.NoError(t, err)
	_, err = db.Implemented(5)
	require.Error(t, err)
}

package memhex

import (
	"fmt"

	"github.com/sparsehex/memhex/internal/utils"
)

// maxCopyChunk bounds the size of a single memmove-style copy so that one
// call does bounded, predictable work regardless of how large the two
// buffers are.
const maxCopyChunk = 16 * 1024 * 1024 // 16 MiB

// Memory is owned, fixed-length byte storage. Its length never changes
// after construction; cloning performs a deep copy.
type Memory struct {
	data []byte
}

// NewMemory allocates a zeroed buffer of the given size.
func NewMemory(size uint64) (*Memory, error) {
	if size > utils.MaxAddressSpaceSize {
		return nil, utils.WrapKind(utils.KindOutOfRange, "NewMemory",
			fmt.Errorf("size %d exceeds 2^32", size))
	}
	return &Memory{data: make([]byte, size)}, nil
}

// NewMemoryFromBytes allocates a buffer and copies b into it.
func NewMemoryFromBytes(b []byte) *Memory {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Memory{data: cp}
}

// Len returns the buffer length in bytes.
func (m *Memory) Len() uint64 {
	return uint64(len(m.data))
}

// Fill sets every byte in the buffer to v.
func (m *Memory) Fill(v byte) {
	for i := range m.data {
		m.data[i] = v
	}
}

// At returns the byte at index i.
func (m *Memory) At(i uint64) (byte, error) {
	if i >= uint64(len(m.data)) {
		return 0, utils.WrapKind(utils.KindOutOfRange, "Memory.At",
			fmt.Errorf("index %d >= length %d", i, len(m.data)))
	}
	return m.data[i], nil
}

// SetAt overwrites the byte at index i.
func (m *Memory) SetAt(i uint64, v byte) error {
	if i >= uint64(len(m.data)) {
		return utils.WrapKind(utils.KindOutOfRange, "Memory.SetAt",
			fmt.Errorf("index %d >= length %d", i, len(m.data)))
	}
	m.data[i] = v
	return nil
}

// Bytes exposes the buffer's backing slice. Callers within the module treat
// it as owned by m; external callers should prefer Clone or CopyFromSlice.
func (m *Memory) Bytes() []byte {
	return m.data
}

// Copy performs a memmove-safe bulk copy of n bytes from src[srcOff:] into
// m[dstOff:], in chunks of at most maxCopyChunk bytes so that one call does
// bounded work (spec §4.A) regardless of buffer size.
func (m *Memory) Copy(src *Memory, srcOff, dstOff, n uint64) error {
	if srcOff+n > src.Len() {
		return utils.WrapKind(utils.KindOutOfRange, "Memory.Copy",
			fmt.Errorf("src range [%d,%d) exceeds length %d", srcOff, srcOff+n, src.Len()))
	}
	if dstOff+n > m.Len() {
		return utils.WrapKind(utils.KindOutOfRange, "Memory.Copy",
			fmt.Errorf("dst range [%d,%d) exceeds length %d", dstOff, dstOff+n, m.Len()))
	}

	for n > 0 {
		chunk := n
		if chunk > maxCopyChunk {
			chunk = maxCopyChunk
		}
		copy(m.data[dstOff:dstOff+chunk], src.data[srcOff:srcOff+chunk])
		srcOff += chunk
		dstOff += chunk
		n -= chunk
	}
	return nil
}

// CopyFromSlice copies src into m starting at dstOff, chunked the same way
// as Copy.
func (m *Memory) CopyFromSlice(src []byte, dstOff uint64) error {
	n := uint64(len(src))
	if dstOff+n > m.Len() {
		return utils.WrapKind(utils.KindOutOfRange, "Memory.CopyFromSlice",
			fmt.Errorf("dst range [%d,%d) exceeds length %d", dstOff, dstOff+n, m.Len()))
	}

	off := uint64(0)
	for off < n {
		chunk := n - off
		if chunk > maxCopyChunk {
			chunk = maxCopyChunk
		}
		copy(m.data[dstOff+off:dstOff+off+chunk], src[off:off+chunk])
		off += chunk
	}
	return nil
}

// Clone returns a deep copy of m.
func (m *Memory) Clone() *Memory {
	cp := make([]byte, len(m.data))
	copy(cp, m.data)
	return &Memory{data: cp}
}

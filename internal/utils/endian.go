package utils

import "encoding/binary"

// ReaderAt is a simplified interface for io.ReaderAt, used so utils does
// not need to import io just for the method signature.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (n int, err error)
}

// ReadUint32 reads a 32-bit value at the specified offset. Used by the
// ELF loader for header fields, section headers and program headers.
func ReadUint32(r ReaderAt, offset int64, order binary.ByteOrder) (uint32, error) {
	buf := GetBuffer(4)
	defer ReleaseBuffer(buf)

	if _, err := r.ReadAt(buf, offset); err != nil {
		return 0, err
	}
	return order.Uint32(buf), nil
}

// ReadUint16 reads a 16-bit value at the specified offset. Used by the
// ELF loader for header fields sized below a full word.
func ReadUint16(r ReaderAt, offset int64, order binary.ByteOrder) (uint16, error) {
	buf := GetBuffer(2)
	defer ReleaseBuffer(buf)

	if _, err := r.ReadAt(buf, offset); err != nil {
		return 0, err
	}
	return order.Uint16(buf), nil
}

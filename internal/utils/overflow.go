package utils

import "fmt"

// Domain-wide size limits. The address space is 32-bit (spec §1), so any
// single contiguous region or buffer can span at most 2^32 bytes.
const (
	// MaxAddressSpaceSize is one past the highest representable 32-bit
	// address (0xFFFFFFFF): the largest a single buffer or region may be.
	MaxAddressSpaceSize = uint64(1) << 32

	// MaxAddress32 is the highest representable 32-bit address.
	MaxAddress32 = uint32(0xFFFFFFFF)
)

// ValidateAddress32 fails with KindOutOfRange if addr exceeds the 32-bit
// address space, i.e. is not representable as a uint32.
func ValidateAddress32(addr uint64, context string) error {
	if addr > uint64(MaxAddress32) {
		return WrapKind(KindOutOfRange, context,
			fmt.Errorf("address %d exceeds 32-bit address space (max %d)", addr, MaxAddress32))
	}
	return nil
}

// ValidateRegionBounds fails with KindOutOfRange if start+size-1 would
// exceed the 32-bit address space (i.e. the region would wrap).
func ValidateRegionBounds(start uint64, size uint64, context string) error {
	if size == 0 {
		return nil
	}
	end := start + size - 1
	if end < start || end > uint64(MaxAddress32) {
		return WrapKind(KindOutOfRange, context,
			fmt.Errorf("region start=%d size=%d would exceed 32-bit address space", start, size))
	}
	return nil
}

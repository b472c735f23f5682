package memhex

import (
	"fmt"

	"github.com/sparsehex/memhex/internal/bitmask"
	"github.com/sparsehex/memhex/internal/memmap"
	"github.com/sparsehex/memhex/internal/utils"
)

// DataBuffer is a window of a memory map: a Memory of exactly region.Size()
// bytes paired with a same-length implemented-mask and the blank byte used
// to fill positions no insert ever materialized. Every byte in Data is
// always present; Implemented reports which ones came from the source map
// versus which carry Blank.
type DataBuffer struct {
	region Region
	data   *Memory
	mask   *bitmask.Mask
	blank  byte
}

// NewDataBuffer captures a window of source over r, filling any positions
// r covers that source has not implemented with source's configured blank
// byte. The empty region yields a zero-length buffer.
func NewDataBuffer(r Region, source *memmap.MemoryMap) (*DataBuffer, error) {
	blank := source.BlankData()
	if r.IsEmpty() {
		return &DataBuffer{region: r, data: &Memory{}, mask: bitmask.New(false), blank: blank}, nil
	}
	if err := utils.ValidateRegionBounds(uint64(r.Start()), r.Size(), "NewDataBuffer"); err != nil {
		return nil, err
	}

	mmRegion := memmap.Region{Start: r.Start(), End: r.End()}
	blk := source.Fetch(mmRegion)

	mask := bitmask.New(false)
	for _, ir := range source.IntersectRegions(mmRegion) {
		lo := int64(ir.Start) - int64(r.Start())
		hi := int64(ir.End) - int64(r.Start())
		ones, err := bitmask.Ones(lo, hi)
		if err != nil {
			return nil, err
		}
		mask = bitmask.Or(mask, ones)
	}

	return &DataBuffer{region: r, data: NewMemoryFromBytes(blk.Data), mask: mask, blank: blank}, nil
}

// Region returns the window's address range.
func (d *DataBuffer) Region() Region { return d.region }

// Blank returns the byte value substituted for unimplemented positions.
func (d *DataBuffer) Blank() byte { return d.blank }

// Data exposes the window's backing Memory.
func (d *DataBuffer) Data() *Memory { return d.data }

// Implemented reports whether the byte at window-relative index i was
// materialized by the source map (true) or filled with Blank (false).
func (d *DataBuffer) Implemented(i uint64) (bool, error) {
	if i >= d.data.Len() {
		return false, utils.WrapKind(utils.KindOutOfRange, "DataBuffer.Implemented",
			fmt.Errorf("index %d >= window length %d", i, d.data.Len()))
	}
	v, err := d.mask.Get(int64(i))
	if err != nil {
		return false, utils.WrapKind(utils.KindOutOfRange, "DataBuffer.Implemented", err)
	}
	return v, nil
}

// ImplementedCount returns how many of the window's bytes are implemented.
func (d *DataBuffer) ImplementedCount() (uint64, error) {
	if d.data.Len() == 0 {
		return 0, nil
	}
	return d.mask.CountBits(0, int64(d.data.Len())-1, true)
}

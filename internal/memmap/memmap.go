// Package memmap implements the sparse memory map: an address-keyed set of
// pairwise-disjoint byte blocks backed by the radix trie in
// github.com/sparsehex/memhex/internal/trie. It is the workhorse the root
// package's DataBuffer and DataFile façades are built on.
package memmap

import (
	"fmt"

	"github.com/sparsehex/memhex/internal/bitmask"
	"github.com/sparsehex/memhex/internal/trie"
	"github.com/sparsehex/memhex/internal/utils"
)

// Region is a closed [Start,End] address interval, always non-empty within
// this package (callers are expected to have already rejected empty spans).
type Region struct {
	Start uint32
	End   uint32
}

// Size returns End-Start+1.
func (r Region) Size() uint64 { return uint64(r.End) - uint64(r.Start) + 1 }

// Block is a contiguous run of implemented bytes starting at Start.
// len(Data) == block size; Data[i] is the byte at address Start+i.
type Block struct {
	Start uint32
	Data  []byte
}

// End returns the block's inclusive end address.
func (b *Block) End() uint32 { return b.Start + uint32(len(b.Data)) - 1 }

// Region returns the block's address span.
func (b *Block) Region() Region { return Region{Start: b.Start, End: b.End()} }

// MemoryMap is a mapping start_address -> Block with pairwise-disjoint
// block regions, indexed by a radix trie. Adjacent-block merging is
// deferred behind Organize (see suppressOrganize) rather than performed on
// every insert, so bulk loads don't pay an O(n) re-coalesce per record.
type MemoryMap struct {
	blocks           *trie.Trie[*Block]
	blankData        byte
	suppressOrganize bool
	organized        bool
}

// New returns an empty memory map with blank_data = 0xFF.
func New() *MemoryMap {
	return &MemoryMap{blocks: trie.New[*Block](), blankData: 0xFF, organized: true}
}

// BlankData returns the byte used to fill unimplemented positions.
func (m *MemoryMap) BlankData() byte { return m.blankData }

// SetBlankData sets the byte used to fill unimplemented positions.
func (m *MemoryMap) SetBlankData(b byte) { m.blankData = b }

// SuppressOrganize reports whether automatic organization is deferred.
func (m *MemoryMap) SuppressOrganize() bool { return m.suppressOrganize }

// SetSuppressOrganize toggles deferred organization, used during bulk loads.
func (m *MemoryMap) SetSuppressOrganize(v bool) { m.suppressOrganize = v }

func validateRegion(addr uint32, size uint64, context string) error {
	return utils.ValidateRegionBounds(uint64(addr), size, context)
}

// firstOverlapping returns the block with the smallest start address that
// overlaps [lo,hi], or ok=false if none does.
func (m *MemoryMap) firstOverlapping(lo, hi uint32) (uint32, *Block, bool) {
	if k, v, ok := m.blocks.TryGet(lo, trie.ModeFloor); ok && v.End() >= lo {
		return k, v, true
	}
	if k, v, ok := m.blocks.TryGet(lo, trie.ModeCeiling); ok && k <= hi {
		return k, v, true
	}
	return 0, nil, false
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// Insert overlays data at addr..addr+len(data)-1, overwriting in place the
// overlapped bytes of any existing block that extends past the new span and
// removing any block the span fully covers; no block is split. This is the insert algorithm of spec §4.C:
// walk forward from the predecessor/successor of addr, classifying each
// touched block's overlap with the shrinking residual span of new data.
func (m *MemoryMap) Insert(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := validateRegion(addr, uint64(len(data)), "MemoryMap.Insert"); err != nil {
		return err
	}

	curStart, curEnd := addr, addr+uint32(len(data))-1
	absorbed := false
	var toRemove []uint32

	k, v, ok := m.blocks.TryGet(curStart, trie.ModeFloor)
	if !ok {
		k, v, ok = m.blocks.TryGet(curStart, trie.ModeCeiling)
	}

	for ok {
		if v.End() < curStart {
			nk, nv, nok := m.blocks.Next(k)
			if !nok {
				break
			}
			k, v, ok = nk, nv, nok
			continue
		}
		if v.Start > curEnd {
			break
		}

		switch {
		case v.Start <= curStart && v.End() >= curEnd:
			// B contains *this*: overwrite B's middle, fully absorbed.
			copy(v.Data[curStart-v.Start:curEnd-v.Start+1], data)
			absorbed = true
			ok = false
		case v.Start >= curStart && v.End() <= curEnd:
			// B contained in *this*: remove B, *this* unchanged.
			toRemove = append(toRemove, v.Start)
			nk, nv, nok := m.blocks.Next(k)
			k, v, ok = nk, nv, nok
		case v.Start > curStart:
			// Partial front overlap of B: overwrite B's prefix with the
			// trailing part of *this*; shrink *this* to the gap before B.
			copy(v.Data[:curEnd-v.Start+1], data[v.Start-addr:])
			curEnd = v.Start - 1
			ok = false
		default:
			// Partial back overlap of B: overwrite B's suffix; advance
			// this.Start past B.End.
			copy(v.Data[curStart-v.Start:], data[curStart-addr:v.End()-addr+1])
			curStart = v.End() + 1
			nk, nv, nok := m.blocks.Next(k)
			k, v, ok = nk, nv, nok
		}
	}

	for _, key := range toRemove {
		m.blocks.Delete(key)
	}
	if !absorbed && curStart <= curEnd {
		m.blocks.Insert(curStart, &Block{Start: curStart, Data: append([]byte(nil), data[curStart-addr:curEnd-addr+1]...)})
	}
	m.organized = false
	return nil
}

// InsertRange inserts size bytes of buf starting at offset, at address addr.
func (m *MemoryMap) InsertRange(addr uint32, buf []byte, offset, size int) error {
	if offset < 0 || size < 0 || offset+size > len(buf) {
		return utils.WrapKind(utils.KindOutOfRange, "MemoryMap.InsertRange",
			fmt.Errorf("range [%d,%d) exceeds buffer length %d", offset, offset+size, len(buf)))
	}
	return m.Insert(addr, buf[offset:offset+size])
}

// InsertMasked overlays data at addr, but only for positions whose bit in
// implemented is set; the rest remain gaps. Bit i of implemented governs
// data[i].
func (m *MemoryMap) InsertMasked(addr uint32, data []byte, implemented *bitmask.Mask) error {
	if implemented == nil {
		return m.Insert(addr, data)
	}
	i := 0
	for i < len(data) {
		bit, err := implemented.Get(int64(i))
		if err != nil {
			return err
		}
		if !bit {
			i++
			continue
		}
		j := i
		for j < len(data) {
			bit, err := implemented.Get(int64(j))
			if err != nil {
				return err
			}
			if !bit {
				break
			}
			j++
		}
		if err := m.Insert(addr+uint32(i), data[i:j]); err != nil {
			return err
		}
		i = j
	}
	return nil
}

// InsertFrom splices other's data, intersected with region, into m.
func (m *MemoryMap) InsertFrom(other *MemoryMap, region Region) error {
	k, v, ok := other.firstOverlapping(region.Start, region.End)
	for ok && k <= region.End {
		lo := maxU32(v.Start, region.Start)
		hi := minU32(v.End(), region.End)
		if lo <= hi {
			if err := m.Insert(lo, v.Data[lo-v.Start:hi-v.Start+1]); err != nil {
				return err
			}
		}
		k, v, ok = other.blocks.Next(k)
	}
	return nil
}

// deleteOne removes region r from every block it overlaps, re-adding the
// (up to two) fragments of each block that fall outside r.
func (m *MemoryMap) deleteOne(r Region) {
	var keys []uint32
	k, v, ok := m.firstOverlapping(r.Start, r.End)
	for ok && k <= r.End {
		keys = append(keys, k)
		k, v, ok = m.blocks.Next(k)
		_ = v
	}

	for _, key := range keys {
		block, present := m.blocks.Get(key)
		if !present {
			continue
		}
		m.blocks.Delete(key)
		if block.Start < r.Start {
			prefixLen := r.Start - block.Start
			m.blocks.Insert(block.Start, &Block{Start: block.Start, Data: append([]byte(nil), block.Data[:prefixLen]...)})
		}
		if block.End() > r.End {
			suffixStart := r.End + 1
			m.blocks.Insert(suffixStart, &Block{Start: suffixStart, Data: append([]byte(nil), block.Data[suffixStart-block.Start:]...)})
		}
	}
	m.organized = false
}

// Delete removes region r.
func (m *MemoryMap) Delete(r Region) { m.deleteOne(r) }

// DeleteRegions removes every region in rs.
func (m *MemoryMap) DeleteRegions(rs []Region) {
	for _, r := range rs {
		m.deleteOne(r)
	}
}

// Crop keeps only the data within r, deleting everything else.
func (m *MemoryMap) Crop(r Region) {
	if r.Start > 0 {
		m.deleteOne(Region{Start: 0, End: r.Start - 1})
	}
	if r.End < 0xFFFFFFFF {
		m.deleteOne(Region{Start: r.End + 1, End: 0xFFFFFFFF})
	}
}

// Clear removes every block.
func (m *MemoryMap) Clear() {
	m.blocks = trie.New[*Block]()
	m.organized = true
}

// Organize merges every maximal run of address-contiguous blocks into a
// single block. Idempotent; a no-op if the map is already known-organized.
func (m *MemoryMap) Organize() {
	if m.organized {
		return
	}
	var all []*Block
	m.blocks.Each(func(_ uint32, v *Block) bool {
		all = append(all, v)
		return true
	})

	m.blocks = trie.New[*Block]()
	if len(all) == 0 {
		m.organized = true
		return
	}

	groupStart := all[0].Start
	groupData := append([]byte(nil), all[0].Data...)
	for _, b := range all[1:] {
		prevEnd := groupStart + uint32(len(groupData)) - 1
		if prevEnd != 0xFFFFFFFF && b.Start == prevEnd+1 {
			groupData = append(groupData, b.Data...)
			continue
		}
		m.blocks.Insert(groupStart, &Block{Start: groupStart, Data: groupData})
		groupStart = b.Start
		groupData = append([]byte(nil), b.Data...)
	}
	m.blocks.Insert(groupStart, &Block{Start: groupStart, Data: groupData})
	m.organized = true
}

func (m *MemoryMap) maybeOrganize() {
	if !m.suppressOrganize {
		m.Organize()
	}
}

// Contains reports whether addr falls within an implemented block.
func (m *MemoryMap) Contains(addr uint32) bool {
	_, v, ok := m.blocks.TryGet(addr, trie.ModeFloor)
	return ok && v.End() >= addr
}

// BlockCount returns the number of stored blocks, organizing first unless
// suppressed.
func (m *MemoryMap) BlockCount() int {
	m.maybeOrganize()
	return m.blocks.Len()
}

// StartAddress returns the lowest implemented address.
func (m *MemoryMap) StartAddress() (uint32, bool) {
	m.maybeOrganize()
	k, _, ok := m.blocks.First()
	return k, ok
}

// EndAddress returns the highest implemented address.
func (m *MemoryMap) EndAddress() (uint32, bool) {
	m.maybeOrganize()
	_, v, ok := m.blocks.Last()
	if !ok {
		return 0, false
	}
	return v.End(), true
}

// Size returns the total number of implemented bytes.
func (m *MemoryMap) Size() uint64 {
	var total uint64
	m.blocks.Each(func(_ uint32, v *Block) bool {
		total += uint64(len(v.Data))
		return true
	})
	return total
}

// Regions returns every block's region in ascending order, organizing first
// unless suppressed.
func (m *MemoryMap) Regions() []Region {
	m.maybeOrganize()
	var out []Region
	m.blocks.Each(func(_ uint32, v *Block) bool {
		out = append(out, v.Region())
		return true
	})
	return out
}

// IntersectRegions returns the sub-regions of stored blocks that fall
// within r.
func (m *MemoryMap) IntersectRegions(r Region) []Region {
	var out []Region
	k, v, ok := m.firstOverlapping(r.Start, r.End)
	for ok && k <= r.End {
		lo := maxU32(v.Start, r.Start)
		hi := minU32(v.End(), r.End)
		if lo <= hi {
			out = append(out, Region{Start: lo, End: hi})
		}
		k, v, ok = m.blocks.Next(k)
	}
	return out
}

// NonIntersectRegions returns the sub-regions of r not covered by any
// stored block.
func (m *MemoryMap) NonIntersectRegions(r Region) []Region {
	covered := m.IntersectRegions(r)
	var out []Region
	cursor := r.Start
	for _, c := range covered {
		if c.Start > cursor {
			out = append(out, Region{Start: cursor, End: c.Start - 1})
		}
		if c.End == 0xFFFFFFFF {
			return out
		}
		cursor = c.End + 1
	}
	if cursor <= r.End {
		out = append(out, Region{Start: cursor, End: r.End})
	}
	return out
}

// Overlaps reports whether any stored block overlaps r.
func (m *MemoryMap) Overlaps(r Region) bool {
	_, _, ok := m.firstOverlapping(r.Start, r.End)
	return ok
}

// Index returns the byte at addr: the stored byte if implemented, else
// blank_data.
func (m *MemoryMap) Index(addr uint32) byte {
	_, v, ok := m.blocks.TryGet(addr, trie.ModeFloor)
	if ok && v.End() >= addr {
		return v.Data[addr-v.Start]
	}
	return m.blankData
}

// Fetch returns a block of exactly region.Size() bytes covering r, with
// un-implemented positions filled by blank_data.
func (m *MemoryMap) Fetch(r Region) *Block {
	out := make([]byte, r.Size())
	for i := range out {
		out[i] = m.blankData
	}
	k, v, ok := m.firstOverlapping(r.Start, r.End)
	for ok && k <= r.End {
		lo := maxU32(v.Start, r.Start)
		hi := minU32(v.End(), r.End)
		if lo <= hi {
			copy(out[uint64(lo-r.Start):], v.Data[lo-v.Start:hi-v.Start+1])
		}
		k, v, ok = m.blocks.Next(k)
	}
	return &Block{Start: r.Start, Data: out}
}

// Filter returns a shallow projection of m containing only the parts of
// blocks that fall within r.
func (m *MemoryMap) Filter(r Region) *MemoryMap {
	out := New()
	out.blankData = m.blankData
	out.suppressOrganize = true
	k, v, ok := m.firstOverlapping(r.Start, r.End)
	for ok && k <= r.End {
		lo := maxU32(v.Start, r.Start)
		hi := minU32(v.End(), r.End)
		if lo <= hi {
			out.blocks.Insert(lo, &Block{Start: lo, Data: append([]byte(nil), v.Data[lo-v.Start:hi-v.Start+1]...)})
		}
		k, v, ok = m.blocks.Next(k)
	}
	out.suppressOrganize = false
	out.organized = false
	return out
}

// OffsetAllData shifts every block by delta addresses (toward higher
// addresses if moveUp, else lower). Data pushed past the 32-bit address
// boundary is dropped, not wrapped.
func (m *MemoryMap) OffsetAllData(delta uint32, moveUp bool) {
	signedDelta := int64(delta)
	if !moveUp {
		signedDelta = -signedDelta
	}

	var all []*Block
	m.blocks.Each(func(_ uint32, v *Block) bool {
		all = append(all, v)
		return true
	})
	m.blocks = trie.New[*Block]()

	for _, b := range all {
		minOrig := int64(0) - signedDelta
		maxOrig := int64(0xFFFFFFFF) - signedDelta
		start := int64(b.Start)
		if minOrig > start {
			start = minOrig
		}
		end := int64(b.End())
		if maxOrig < end {
			end = maxOrig
		}
		if start > end {
			continue
		}
		newData := b.Data[start-int64(b.Start) : end-int64(b.Start)+1]
		newStart := uint32(start + signedDelta)
		m.blocks.Insert(newStart, &Block{Start: newStart, Data: append([]byte(nil), newData...)})
	}
	m.organized = false
}

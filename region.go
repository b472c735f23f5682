package memhex

import (
	"fmt"
	"sort"

	"github.com/sparsehex/memhex/internal/utils"
)

// Region is a closed [Start,End] address interval over the 32-bit address
// space, or the distinguished empty interval. The zero value is the empty
// region.
type Region struct {
	start   uint32
	end     uint32
	nonzero bool // false for the empty region; zero value must be empty
}

// EmptyRegion returns the distinguished empty region.
func EmptyRegion() Region { return Region{} }

// NewRegion builds a region from start/end addresses, auto-swapping them
// if given in reverse order.
func NewRegion(start, end uint32) Region {
	if start > end {
		start, end = end, start
	}
	return Region{start: start, end: end, nonzero: true}
}

// NewRegionSize builds a region from a start address and a size, rejecting
// sizes that would make the region wrap past the 32-bit address space.
// A size of 0 yields the empty region.
func NewRegionSize(start uint32, size uint64) (Region, error) {
	if size == 0 {
		return EmptyRegion(), nil
	}
	if err := utils.ValidateRegionBounds(uint64(start), size, "NewRegionSize"); err != nil {
		return Region{}, err
	}
	return Region{start: start, end: start + uint32(size-1), nonzero: true}, nil
}

// IsEmpty reports whether r is the distinguished empty region.
func (r Region) IsEmpty() bool { return !r.nonzero }

// Start returns the region's inclusive start address. Meaningless if IsEmpty.
func (r Region) Start() uint32 { return r.start }

// End returns the region's inclusive end address. Meaningless if IsEmpty.
func (r Region) End() uint32 { return r.end }

// Size returns end-start+1, or 0 for the empty region.
func (r Region) Size() uint64 {
	if r.IsEmpty() {
		return 0
	}
	return uint64(r.end) - uint64(r.start) + 1
}

// Contains reports whether addr falls within [Start,End].
func (r Region) Contains(addr uint32) bool {
	return !r.IsEmpty() && addr >= r.start && addr <= r.end
}

// Overlaps reports whether r and other share at least one address.
func (r Region) Overlaps(other Region) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.start <= other.end && other.start <= r.end
}

// Adjacent reports whether other begins exactly one byte past r's end (or
// vice versa), the condition organize() uses to merge neighboring blocks.
func (r Region) Adjacent(other Region) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return (r.end != utils.MaxAddress32 && r.end+1 == other.start) ||
		(other.end != utils.MaxAddress32 && other.end+1 == r.start)
}

// Intersect returns the overlapping sub-region of r and other, or the
// empty region if they do not overlap.
func (r Region) Intersect(other Region) Region {
	if !r.Overlaps(other) {
		return EmptyRegion()
	}
	start := r.start
	if other.start > start {
		start = other.start
	}
	end := r.end
	if other.end < end {
		end = other.end
	}
	return NewRegion(start, end)
}

// Compare gives a total order: empty < non-empty; among non-empty, by
// Start then End.
func (r Region) Compare(other Region) int {
	if r.IsEmpty() && other.IsEmpty() {
		return 0
	}
	if r.IsEmpty() {
		return -1
	}
	if other.IsEmpty() {
		return 1
	}
	switch {
	case r.start < other.start:
		return -1
	case r.start > other.start:
		return 1
	case r.end < other.end:
		return -1
	case r.end > other.end:
		return 1
	default:
		return 0
	}
}

// Equal reports whether r and other denote the same interval.
func (r Region) Equal(other Region) bool { return r.Compare(other) == 0 }

// String renders the region as "[start,end]" or "<empty>".
func (r Region) String() string {
	if r.IsEmpty() {
		return "<empty>"
	}
	return fmt.Sprintf("[%#x,%#x]", r.start, r.end)
}

// fullAddressSpace is the complement domain used by RegionCollection.Invert:
// [0, 0xFFFFFFFF].
var fullAddressSpace = NewRegion(0, utils.MaxAddress32)

// RegionCollection is an ordered set of non-overlapping memory regions,
// indexed by start address. Unlike MemoryMap (which defers merging behind
// an explicit organize() to avoid re-coalescing block *data* on every
// insert), a RegionCollection carries no payload, so it is kept canonical
// (sorted, non-overlapping, non-adjacent) after every mutation — Organize
// is exposed as an idempotent no-op for API symmetry with spec §4.C.
//
// Grounded on internal/writer/allocator.go's sorted AllocatedBlock tracking
// and overlap validation, generalized from append-only to insert/delete.
type RegionCollection struct {
	regions []Region // sorted, non-overlapping, non-adjacent
}

// NewRegionCollection returns an empty collection.
func NewRegionCollection() *RegionCollection {
	return &RegionCollection{}
}

// Organize is a no-op: the collection is kept canonical on every mutation.
func (c *RegionCollection) Organize() {}

// Count returns the number of disjoint regions currently stored.
func (c *RegionCollection) Count() int { return len(c.regions) }

// Regions returns the stored regions in ascending order. The slice is a
// copy; mutating it does not affect c.
func (c *RegionCollection) Regions() []Region {
	out := make([]Region, len(c.regions))
	copy(out, c.regions)
	return out
}

// Insert adds r to the collection, merging it with any region it overlaps
// or is adjacent to.
func (c *RegionCollection) Insert(r Region) {
	if r.IsEmpty() {
		return
	}

	merged := r
	out := c.regions[:0:0]
	for _, existing := range c.regions {
		if merged.Overlaps(existing) || merged.Adjacent(existing) {
			merged = NewRegion(minU32(merged.start, existing.start), maxU32(merged.end, existing.end))
			continue
		}
		out = append(out, existing)
	}
	out = append(out, merged)
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	c.regions = out
}

// Delete removes r from every stored region, splitting regions that only
// partially intersect it.
func (c *RegionCollection) Delete(r Region) {
	if r.IsEmpty() || len(c.regions) == 0 {
		return
	}

	out := make([]Region, 0, len(c.regions))
	for _, existing := range c.regions {
		if !existing.Overlaps(r) {
			out = append(out, existing)
			continue
		}
		if existing.start < r.start {
			out = append(out, NewRegion(existing.start, r.start-1))
		}
		if existing.end > r.end {
			out = append(out, NewRegion(r.end+1, existing.end))
		}
	}
	c.regions = out
}

// Crop keeps only the parts of stored regions that fall within r
// (equivalent to deleting the complement of r).
func (c *RegionCollection) Crop(r Region) {
	if r.IsEmpty() {
		c.regions = nil
		return
	}

	out := make([]Region, 0, len(c.regions))
	for _, existing := range c.regions {
		if in := existing.Intersect(r); !in.IsEmpty() {
			out = append(out, in)
		}
	}
	c.regions = out
}

// IntersectRegion returns a new collection holding the intersection of
// every stored region with r.
func (c *RegionCollection) IntersectRegion(r Region) *RegionCollection {
	out := NewRegionCollection()
	for _, existing := range c.regions {
		if in := existing.Intersect(r); !in.IsEmpty() {
			out.regions = append(out.regions, in)
		}
	}
	return out
}

// Invert returns the complement of c within [0, 0xFFFFFFFF]: the gaps
// between (and around) the stored regions.
func (c *RegionCollection) Invert() *RegionCollection {
	out := NewRegionCollection()
	if len(c.regions) == 0 {
		out.regions = []Region{fullAddressSpace}
		return out
	}

	cursor := uint64(0)
	for _, r := range c.regions {
		if uint64(r.start) > cursor {
			out.regions = append(out.regions, NewRegion(uint32(cursor), r.start-1))
		}
		cursor = uint64(r.end) + 1
	}
	if cursor <= uint64(utils.MaxAddress32) {
		out.regions = append(out.regions, NewRegion(uint32(cursor), utils.MaxAddress32))
	}
	return out
}

// Overlaps reports whether any stored region overlaps r.
func (c *RegionCollection) Overlaps(r Region) bool {
	for _, existing := range c.regions {
		if existing.Overlaps(r) {
			return true
		}
	}
	return false
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// Package bitmask implements a sparse, infinite-domain bit array: a partial
// function from a signed bit index to {0,1} with a default value for every
// un-materialized 32-bit chunk. It underlies DataBuffer's implemented-byte
// tracking and the memory map's insert-mask handling.
package bitmask

import (
	"fmt"
	"math/bits"

	"github.com/sparsehex/memhex/internal/utils"
)

const (
	// MinBitIndex and MaxBitIndex bound the addressable bit-index domain:
	// one bit per byte of a 32-bit address space, signed so that "one word
	// below address 0" is still representable for shift intermediate math.
	MinBitIndex = -(int64(1) << 32)
	MaxBitIndex = (int64(1) << 32) - 1

	minChunkIndex = int32(-(1 << 27))
	maxChunkIndex = int32((1 << 27) - 1)
)

// Mask is a sparse bit array over [MinBitIndex, MaxBitIndex]. The zero value
// is not valid; construct with New, Zeros or Ones.
type Mask struct {
	defaultBit bool
	words      map[int32]uint32 // chunk index -> word; never holds a default-pattern word
}

// New returns an empty mask: every bit reads as defaultBit.
func New(defaultBit bool) *Mask {
	return &Mask{defaultBit: defaultBit, words: make(map[int32]uint32)}
}

func (m *Mask) defaultWord() uint32 {
	if m.defaultBit {
		return 0xFFFFFFFF
	}
	return 0
}

// DefaultBit reports the value returned for any un-materialized bit.
func (m *Mask) DefaultBit() bool { return m.defaultBit }

func floorDivMod(a, b int64) (q, r int64) {
	q, r = a/b, a%b
	if r < 0 {
		r += b
		q--
	}
	return
}

func chunkOf(i int64) int32 {
	q, _ := floorDivMod(i, 32)
	return int32(q)
}

func bitOffset(i int64) uint {
	_, r := floorDivMod(i, 32)
	return uint(r)
}

func validateBitIndex(i int64, context string) error {
	if i < MinBitIndex || i > MaxBitIndex {
		return utils.WrapKind(utils.KindOutOfRange, context,
			fmt.Errorf("bit index %d outside [%d,%d]", i, MinBitIndex, MaxBitIndex))
	}
	return nil
}

func validateRange(lo, hi int64, context string) error {
	if err := validateBitIndex(lo, context); err != nil {
		return err
	}
	if err := validateBitIndex(hi, context); err != nil {
		return err
	}
	if lo > hi {
		return utils.WrapKind(utils.KindOutOfRange, context,
			fmt.Errorf("lo %d > hi %d", lo, hi))
	}
	return nil
}

func onesBelow(n int) uint32 {
	switch {
	case n <= 0:
		return 0
	case n >= 32:
		return 0xFFFFFFFF
	default:
		return (uint32(1) << uint(n)) - 1
	}
}

// inRangeMask returns the bitmask (relative to chunk c's word) of positions
// that fall within the global range [lo,hi].
func inRangeMask(c int32, lo, hi int64) uint32 {
	base := int64(c) * 32
	start := int(lo - base)
	end := int(hi - base)
	if end < 0 || start > 31 {
		return 0
	}
	if start < 0 {
		start = 0
	}
	if end > 31 {
		end = 31
	}
	if start > end {
		return 0
	}
	return onesBelow(end+1) &^ onesBelow(start)
}

// wordAt returns the stored word for c, or the default pattern if c is not
// materialized (or falls outside the storable chunk-index range).
func (m *Mask) wordAt(c int64) uint32 {
	if c < int64(minChunkIndex) || c > int64(maxChunkIndex) {
		return m.defaultWord()
	}
	if w, ok := m.words[int32(c)]; ok {
		return w
	}
	return m.defaultWord()
}

// Get returns the bit at index i.
func (m *Mask) Get(i int64) (bool, error) {
	if err := validateBitIndex(i, "Mask.Get"); err != nil {
		return false, err
	}
	w := m.wordAt(int64(chunkOf(i)))
	return (w>>bitOffset(i))&1 == 1, nil
}

// Set writes the bit at index i. If the chunk's word becomes the default
// pattern it is removed from storage, preserving canonical form.
func (m *Mask) Set(i int64, v bool) error {
	if err := validateBitIndex(i, "Mask.Set"); err != nil {
		return err
	}
	c := chunkOf(i)
	w, ok := m.words[c]
	if !ok {
		w = m.defaultWord()
	}
	off := bitOffset(i)
	if v {
		w |= 1 << off
	} else {
		w &^= 1 << off
	}
	if w == m.defaultWord() {
		delete(m.words, c)
	} else {
		m.words[c] = w
	}
	return nil
}

// Crop forces every bit outside [lo,hi] to the default value.
func (m *Mask) Crop(lo, hi int64) error {
	if err := validateRange(lo, hi, "Mask.Crop"); err != nil {
		return err
	}
	loChunk, hiChunk := chunkOf(lo), chunkOf(hi)
	for c, w := range m.words {
		if c < loChunk || c > hiChunk {
			delete(m.words, c)
			continue
		}
		mask := inRangeMask(c, lo, hi)
		newWord := (w & mask) | (m.defaultWord() &^ mask)
		if newWord == m.defaultWord() {
			delete(m.words, c)
		} else {
			m.words[c] = newWord
		}
	}
	return nil
}

// Delete forces every bit inside [lo,hi] to the default value.
func (m *Mask) Delete(lo, hi int64) error {
	if err := validateRange(lo, hi, "Mask.Delete"); err != nil {
		return err
	}
	loChunk, hiChunk := chunkOf(lo), chunkOf(hi)
	for c, w := range m.words {
		if c < loChunk || c > hiChunk {
			continue
		}
		mask := inRangeMask(c, lo, hi)
		newWord := (w &^ mask) | (m.defaultWord() & mask)
		if newWord == m.defaultWord() {
			delete(m.words, c)
		} else {
			m.words[c] = newWord
		}
	}
	return nil
}

// Zeros returns a mask with default_bit=true and explicit 0 bits materialized
// over [lo,hi].
func Zeros(lo, hi int64) (*Mask, error) {
	return materializeRange(lo, hi, true, false)
}

// Ones returns a mask with default_bit=false and explicit 1 bits materialized
// over [lo,hi].
func Ones(lo, hi int64) (*Mask, error) {
	return materializeRange(lo, hi, false, true)
}

func materializeRange(lo, hi int64, defaultBit, value bool) (*Mask, error) {
	if err := validateRange(lo, hi, "materializeRange"); err != nil {
		return nil, err
	}
	m := New(defaultBit)
	valueWord := uint32(0)
	if value {
		valueWord = 0xFFFFFFFF
	}
	loChunk, hiChunk := chunkOf(lo), chunkOf(hi)
	for c := loChunk; c <= hiChunk; c++ {
		mask := inRangeMask(c, lo, hi)
		newWord := (valueWord & mask) | (m.defaultWord() &^ mask)
		if newWord != m.defaultWord() {
			m.words[c] = newWord
		}
	}
	return m, nil
}

func combine(a, b *Mask, op func(x, y uint32) uint32, resultDefault bool) *Mask {
	out := New(resultDefault)
	seen := make(map[int32]struct{}, len(a.words)+len(b.words))
	for c := range a.words {
		seen[c] = struct{}{}
	}
	for c := range b.words {
		seen[c] = struct{}{}
	}
	for c := range seen {
		res := op(a.wordAt(int64(c)), b.wordAt(int64(c)))
		if res != out.defaultWord() {
			out.words[c] = res
		}
	}
	return out
}

// And returns the bitwise AND of a and b.
func And(a, b *Mask) *Mask {
	return combine(a, b, func(x, y uint32) uint32 { return x & y }, a.defaultBit && b.defaultBit)
}

// Or returns the bitwise OR of a and b.
func Or(a, b *Mask) *Mask {
	return combine(a, b, func(x, y uint32) uint32 { return x | y }, a.defaultBit || b.defaultBit)
}

// Xor returns the bitwise XOR of a and b.
func Xor(a, b *Mask) *Mask {
	return combine(a, b, func(x, y uint32) uint32 { return x ^ y }, a.defaultBit != b.defaultBit)
}

// Not returns the bitwise complement of m.
func (m *Mask) Not() *Mask {
	out := New(!m.defaultBit)
	for c, w := range m.words {
		out.words[c] = ^w
	}
	return out
}

// shiftBy moves every materialized bit by delta positions (positive = toward
// higher indices). Chunk indices that fall outside the storable range after
// the shift are silently dropped.
func (m *Mask) shiftBy(delta int64) *Mask {
	out := New(m.defaultBit)
	if len(m.words) == 0 {
		return out
	}
	chunkShift, bitShift := floorDivMod(delta, 32)

	if bitShift == 0 {
		for c, w := range m.words {
			nc := int64(c) + chunkShift
			if nc < int64(minChunkIndex) || nc > int64(maxChunkIndex) {
				continue
			}
			out.words[int32(nc)] = w
		}
		return out
	}

	dests := make(map[int32]struct{}, len(m.words)*2)
	for c := range m.words {
		for _, d := range [2]int64{int64(c) + chunkShift, int64(c) + chunkShift + 1} {
			if d >= int64(minChunkIndex) && d <= int64(maxChunkIndex) {
				dests[int32(d)] = struct{}{}
			}
		}
	}
	for d := range dests {
		lowerSrc := int64(d) - chunkShift
		upperSrc := int64(d) - chunkShift - 1
		wLower := m.wordAt(lowerSrc)
		wUpper := m.wordAt(upperSrc)
		newWord := (wLower << uint(bitShift)) | (wUpper >> uint(32-bitShift))
		if newWord != out.defaultWord() {
			out.words[d] = newWord
		}
	}
	return out
}

// Shl shifts every bit n positions toward higher indices. A negative n
// delegates to Shr.
func (m *Mask) Shl(n int64) *Mask {
	if n < 0 {
		return m.Shr(-n)
	}
	return m.shiftBy(n)
}

// Shr shifts every bit n positions toward lower indices. A negative n
// delegates to Shl.
func (m *Mask) Shr(n int64) *Mask {
	if n < 0 {
		return m.Shl(-n)
	}
	return m.shiftBy(-n)
}

// ToU8 reads a little-endian byte starting at bitIndex.
func (m *Mask) ToU8(bitIndex int64) uint8 { return uint8(m.toUint(bitIndex, 8)) }

// ToU16 reads a little-endian 16-bit value starting at bitIndex.
func (m *Mask) ToU16(bitIndex int64) uint16 { return uint16(m.toUint(bitIndex, 16)) }

// ToU32 reads a little-endian 32-bit value starting at bitIndex.
func (m *Mask) ToU32(bitIndex int64) uint32 { return uint32(m.toUint(bitIndex, 32)) }

// ToU64 reads a little-endian 64-bit value starting at bitIndex.
func (m *Mask) ToU64(bitIndex int64) uint64 { return m.toUint(bitIndex, 64) }

func (m *Mask) toUint(bitIndex int64, width int) uint64 {
	var v uint64
	for j := 0; j < width; j++ {
		w := m.wordAt(int64(chunkOf(bitIndex + int64(j))))
		if (w>>bitOffset(bitIndex+int64(j)))&1 == 1 {
			v |= uint64(1) << uint(j)
		}
	}
	return v
}

// FromU8 constructs a mask holding exactly the bits of v, starting at
// bitIndex, with every other bit equal to defaultBit.
func FromU8(v uint8, bitIndex int64, defaultBit bool) (*Mask, error) {
	return fromUint(uint64(v), 8, bitIndex, defaultBit)
}

// FromU16 constructs a mask holding exactly the bits of v, starting at
// bitIndex, with every other bit equal to defaultBit.
func FromU16(v uint16, bitIndex int64, defaultBit bool) (*Mask, error) {
	return fromUint(uint64(v), 16, bitIndex, defaultBit)
}

// FromU32 constructs a mask holding exactly the bits of v, starting at
// bitIndex, with every other bit equal to defaultBit.
func FromU32(v uint32, bitIndex int64, defaultBit bool) (*Mask, error) {
	return fromUint(uint64(v), 32, bitIndex, defaultBit)
}

// FromU64 constructs a mask holding exactly the bits of v, starting at
// bitIndex, with every other bit equal to defaultBit.
func FromU64(v uint64, bitIndex int64, defaultBit bool) (*Mask, error) {
	return fromUint(v, 64, bitIndex, defaultBit)
}

func fromUint(v uint64, width int, bitIndex int64, defaultBit bool) (*Mask, error) {
	if err := validateRange(bitIndex, bitIndex+int64(width)-1, "fromUint"); err != nil {
		return nil, err
	}
	m := New(defaultBit)
	for j := 0; j < width; j++ {
		if err := m.Set(bitIndex+int64(j), (v>>uint(j))&1 == 1); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ToArray returns the chunk-aligned u32 words covering [lo,hi], performing
// an internal shift when lo is not itself chunk-aligned.
func (m *Mask) ToArray(lo, hi int64) ([]uint32, error) {
	if err := validateRange(lo, hi, "Mask.ToArray"); err != nil {
		return nil, err
	}
	n := hi - lo + 1
	numWords := int((n + 31) / 32)
	out := make([]uint32, numWords)
	for i := 0; i < numWords; i++ {
		out[i] = m.ToU32(lo + int64(i)*32)
	}
	return out, nil
}

// CountBits tallies the bits equal to v in [lo,hi].
func (m *Mask) CountBits(lo, hi int64, v bool) (uint64, error) {
	if err := validateRange(lo, hi, "Mask.CountBits"); err != nil {
		return 0, err
	}
	loChunk, hiChunk := chunkOf(lo), chunkOf(hi)
	var total uint64
	for c := loChunk; c <= hiChunk; c++ {
		w := m.wordAt(int64(c))
		mask := inRangeMask(c, lo, hi)
		matching := mask
		if !v {
			matching = mask &^ w
		} else {
			matching = mask & w
		}
		total += uint64(bits.OnesCount32(matching))
	}
	return total, nil
}

// LowBitIndex returns the lowest bit index whose value differs from
// defaultBit. The second return is false if no such bit exists (the mask
// holds no materialized words).
func (m *Mask) LowBitIndex() (int64, bool) {
	if len(m.words) == 0 {
		return 0, false
	}
	min := int32(0)
	first := true
	for c := range m.words {
		if first || c < min {
			min, first = c, false
		}
	}
	diff := m.words[min] ^ m.defaultWord()
	return int64(min)*32 + int64(bits.TrailingZeros32(diff)), true
}

// HighBitIndex returns the highest bit index whose value differs from
// defaultBit. The second return is false if no such bit exists.
func (m *Mask) HighBitIndex() (int64, bool) {
	if len(m.words) == 0 {
		return 0, false
	}
	max := int32(0)
	first := true
	for c := range m.words {
		if first || c > max {
			max, first = c, false
		}
	}
	diff := m.words[max] ^ m.defaultWord()
	return int64(max)*32 + int64(31-bits.LeadingZeros32(diff)), true
}

// Equal reports structural equality: same defaultBit and, by the
// canonical-form invariant, an identical materialized-word map implies an
// identical bit function (and vice versa), so map comparison suffices.
func (m *Mask) Equal(other *Mask) bool {
	if m.defaultBit != other.defaultBit {
		return false
	}
	if len(m.words) != len(other.words) {
		return false
	}
	for c, w := range m.words {
		if ow, ok := other.words[c]; !ok || ow != w {
			return false
		}
	}
	return true
}

// IsEmpty reports whether every bit equals defaultBit.
func (m *Mask) IsEmpty() bool { return len(m.words) == 0 }

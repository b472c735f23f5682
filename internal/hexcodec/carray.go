package hexcodec

import (
	"bufio"
	"encoding/binary"
	"fmt"

	"github.com/sparsehex/memhex/internal/memmap"
	"github.com/sparsehex/memhex/internal/utils"
)

// CArray emits `const uintN_t name[…] = { … };` arrays plus a region-table
// comment; it is a write-only format — C source is not parsed back by this
// codec. Width selects the element type (8/16/32/64 bits); BigEndian
// selects the byte order words are packed in.
type CArray struct {
	Width    int
	BigEndian bool
}

// Name implements Format.
func (f *CArray) Name() string { return "C array" }

// BytesPerLine implements Format; used here as the element count per
// emitted row rather than a byte-per-line bound.
func (f *CArray) BytesPerLine() int { return 8 }

// ResetState implements Format.
func (f *CArray) ResetState() {}

// ProcessLine implements Format. Loading C-array source is out of scope;
// every line is rejected so content-based detection never selects this
// plug-in for reading.
func (f *CArray) ProcessLine(lineNumber int, line string) (*PendingRecord, Signal, error) {
	return nil, SignalContinue, utils.NewKind(utils.KindUnimplemented, "C array source is not parsed back")
}

// ReadHexData implements Format; unreachable since ProcessLine never
// queues a record.
func (f *CArray) ReadHexData(rec *PendingRecord, buf []byte, offset int) (uint32, error) {
	return 0, nil
}

// VerifyLineChecksum implements Format; C array has no checksum.
func (f *CArray) VerifyLineChecksum(lineNumber int, computed, declared uint32) error { return nil }

func (f *CArray) wordBytes() int {
	switch f.Width {
	case 8, 16, 32, 64:
		return f.Width / 8
	default:
		return 4
	}
}

func (f *CArray) cType() string {
	switch f.Width {
	case 8:
		return "uint8_t"
	case 16:
		return "uint16_t"
	case 64:
		return "uint64_t"
	default:
		return "uint32_t"
	}
}

func (f *CArray) packWord(word []byte) uint64 {
	buf := make([]byte, 8)
	copy(buf, word)
	if f.BigEndian {
		shifted := make([]byte, 8)
		copy(shifted[8-len(word):], word)
		return binary.BigEndian.Uint64(shifted)
	}
	return binary.LittleEndian.Uint64(buf)
}

// Save implements Format.
func (f *CArray) Save(w *bufio.Writer, mm *memmap.MemoryMap) error {
	wb := f.wordBytes()
	ctype := f.cType()
	regions := mm.Regions()

	for _, region := range regions {
		blk := mm.Fetch(memmap.Region{Start: region.Start, End: region.End})
		data := blk.Data
		wordCount := (len(data) + wb - 1) / wb
		if _, err := fmt.Fprintf(w, "const %s memhex_0x%08X[%d] = {\n", ctype, blk.Start, wordCount); err != nil {
			return err
		}
		perRow := f.BytesPerLine()
		for i := 0; i < wordCount; i++ {
			lo := i * wb
			hi := lo + wb
			if hi > len(data) {
				hi = len(data)
			}
			word := f.packWord(data[lo:hi])
			if i%perRow == 0 {
				if _, err := fmt.Fprint(w, "    "); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "0x%0*X, ", wb*2, word); err != nil {
				return err
			}
			if i%perRow == perRow-1 || i == wordCount-1 {
				if _, err := fmt.Fprint(w, "\n"); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprint(w, "};\n\n"); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprint(w, "/* region table */\n"); err != nil {
		return err
	}
	for _, region := range regions {
		if _, err := fmt.Fprintf(w, "/* 0x%08X - 0x%08X (%d bytes) */\n", region.Start, region.End, region.Size()); err != nil {
			return err
		}
	}
	return nil
}

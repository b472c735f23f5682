package hexcodec

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/sparsehex/memhex/internal/memmap"
)

// TIText implements the TI-Text format: an `@AAAA` address line followed by
// lines of up to 16 space-separated hex bytes continuing sequentially from
// that address, terminated by a lone `q`. There is no checksum.
type TIText struct {
	cursor uint32
	haveCursor bool
}

// Name implements Format.
func (f *TIText) Name() string { return "TI-Text" }

// BytesPerLine implements Format.
func (f *TIText) BytesPerLine() int { return 16 }

// ResetState implements Format.
func (f *TIText) ResetState() {
	f.cursor = 0
	f.haveCursor = false
}

// ProcessLine implements Format.
func (f *TIText) ProcessLine(lineNumber int, line string) (*PendingRecord, Signal, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, SignalContinue, nil
	}
	if strings.EqualFold(line, "q") {
		return nil, SignalTerminate, nil
	}
	if line[0] == '@' {
		addr, err := strconv.ParseUint(line[1:], 16, 32)
		if err != nil {
			return nil, SignalContinue, malformed("TI-Text", "invalid address %q: %v", line[1:], err)
		}
		f.cursor = uint32(addr)
		f.haveCursor = true
		return nil, SignalContinue, nil
	}
	if !f.haveCursor {
		return nil, SignalContinue, malformed("TI-Text", "data line before any '@' address line")
	}

	fields := strings.Fields(line)
	data := make([]byte, len(fields))
	for i, tok := range fields {
		b, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return nil, SignalContinue, malformed("TI-Text", "invalid byte %q: %v", tok, err)
		}
		data[i] = byte(b)
	}

	rec := &PendingRecord{
		LineNumber:   lineNumber,
		StartAddress: f.cursor,
		Size:         uint32(len(data)),
		RawData:      string(data),
	}
	f.cursor += uint32(len(data))
	return rec, SignalContinue, nil
}

// ReadHexData implements Format. TI-Text records carry decoded bytes
// directly in RawData (no hex re-decoding needed) since ProcessLine already
// parsed the space-separated tokens.
func (f *TIText) ReadHexData(rec *PendingRecord, buf []byte, offset int) (uint32, error) {
	copy(buf[offset:offset+len(rec.RawData)], rec.RawData)
	return 0, nil
}

// VerifyLineChecksum implements Format; TI-Text has no checksum.
func (f *TIText) VerifyLineChecksum(lineNumber int, computed, declared uint32) error { return nil }

// Save implements Format.
func (f *TIText) Save(w *bufio.Writer, mm *memmap.MemoryMap) error {
	for _, region := range mm.Regions() {
		blk := mm.Fetch(memmap.Region{Start: region.Start, End: region.End})
		if _, err := fmt.Fprintf(w, "@%04X\n", blk.Start); err != nil {
			return err
		}
		data := blk.Data
		for len(data) > 0 {
			n := f.BytesPerLine()
			if n > len(data) {
				n = len(data)
			}
			for i, b := range data[:n] {
				if i > 0 {
					if err := w.WriteByte(' '); err != nil {
						return err
					}
				}
				if _, err := fmt.Fprintf(w, "%02X", b); err != nil {
					return err
				}
			}
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
			data = data[n:]
		}
	}
	_, err := fmt.Fprint(w, "q\n")
	return err
}

package hexcodec

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/sparsehex/memhex/internal/memmap"
)

// ActelHex implements Actel Hex: `AAAAAA:DDDDDDDD` lines, word-addressed;
// the first data line's digit count fixes the word width for the rest of
// the file. There is no checksum.
type ActelHex struct {
	wordBytes int
}

// Name implements Format.
func (f *ActelHex) Name() string { return "Actel Hex" }

// BytesPerLine implements Format.
func (f *ActelHex) BytesPerLine() int {
	if f.wordBytes == 0 {
		return 4
	}
	return f.wordBytes
}

// ResetState implements Format.
func (f *ActelHex) ResetState() { f.wordBytes = 0 }

// ProcessLine implements Format.
func (f *ActelHex) ProcessLine(lineNumber int, line string) (*PendingRecord, Signal, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, SignalContinue, nil
	}
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return nil, SignalContinue, malformed("Actel Hex", "missing ':' separator")
	}
	addrStr, dataStr := parts[0], parts[1]
	if len(dataStr)%2 != 0 {
		return nil, SignalContinue, malformed("Actel Hex", "odd number of data hex digits")
	}
	if f.wordBytes == 0 {
		f.wordBytes = len(dataStr) / 2
	} else if len(dataStr)/2 != f.wordBytes {
		return nil, SignalContinue, malformed("Actel Hex", "data width changed from %d to %d bytes", f.wordBytes, len(dataStr)/2)
	}

	wordIndex, err := strconv.ParseUint(addrStr, 16, 32)
	if err != nil {
		return nil, SignalContinue, malformed("Actel Hex", "invalid address %q: %v", addrStr, err)
	}
	data, err := hex.DecodeString(dataStr)
	if err != nil {
		return nil, SignalContinue, malformed("Actel Hex", "invalid data hex digit: %v", err)
	}

	rec := &PendingRecord{
		LineNumber:   lineNumber,
		StartAddress: uint32(wordIndex) * uint32(f.wordBytes),
		Size:         uint32(len(data)),
		RawData:      dataStr,
	}
	return rec, SignalContinue, nil
}

// ReadHexData implements Format.
func (f *ActelHex) ReadHexData(rec *PendingRecord, buf []byte, offset int) (uint32, error) {
	data, err := hex.DecodeString(rec.RawData)
	if err != nil {
		return 0, malformed("Actel Hex", "invalid data hex digit: %v", err)
	}
	copy(buf[offset:offset+len(data)], data)
	return 0, nil
}

// VerifyLineChecksum implements Format; Actel Hex has no checksum.
func (f *ActelHex) VerifyLineChecksum(lineNumber int, computed, declared uint32) error { return nil }

// Save implements Format, emitting fixed-width words (default 4 bytes).
func (f *ActelHex) Save(w *bufio.Writer, mm *memmap.MemoryMap) error {
	width := f.BytesPerLine()
	for _, region := range mm.Regions() {
		blk := mm.Fetch(memmap.Region{Start: region.Start, End: region.End})
		addr := blk.Start
		data := blk.Data
		for len(data) > 0 {
			n := width
			if n > len(data) {
				n = len(data)
			}
			wordIndex := addr / uint32(width)
			if _, err := fmt.Fprintf(w, "%06X:%s\n", wordIndex, hex.EncodeToString(data[:n])); err != nil {
				return err
			}
			addr += uint32(n)
			data = data[n:]
		}
	}
	return nil
}

package hexcodec

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/sparsehex/memhex/internal/memmap"
)

// CheckSumMEM implements the CheckSum MEM format: a `Memory Type : X`
// header line (recognized and otherwise ignored) followed by
// `0xAAAAAAAA    0xDDDD…` lines of arbitrary address and data width. There
// is no checksum.
type CheckSumMEM struct {
	memoryType string
}

// Name implements Format.
func (f *CheckSumMEM) Name() string { return "CheckSum MEM" }

// BytesPerLine implements Format.
func (f *CheckSumMEM) BytesPerLine() int { return 4 }

// ResetState implements Format.
func (f *CheckSumMEM) ResetState() { f.memoryType = "" }

func stripHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// ProcessLine implements Format.
func (f *CheckSumMEM) ProcessLine(lineNumber int, line string) (*PendingRecord, Signal, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, SignalContinue, nil
	}
	if idx := strings.Index(strings.ToLower(line), "memory type"); idx == 0 {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) == 2 {
			f.memoryType = strings.TrimSpace(parts[1])
		}
		return nil, SignalContinue, nil
	}

	fields := strings.Fields(line)
	if len(fields) != 2 {
		return nil, SignalContinue, malformed("CheckSum MEM", "expected '0xADDR 0xDATA', got %q", line)
	}
	addrStr := stripHexPrefix(fields[0])
	dataStr := stripHexPrefix(fields[1])
	if len(dataStr)%2 != 0 {
		return nil, SignalContinue, malformed("CheckSum MEM", "odd number of data hex digits")
	}
	addr, err := strconv.ParseUint(addrStr, 16, 32)
	if err != nil {
		return nil, SignalContinue, malformed("CheckSum MEM", "invalid address %q: %v", addrStr, err)
	}
	data, err := hex.DecodeString(dataStr)
	if err != nil {
		return nil, SignalContinue, malformed("CheckSum MEM", "invalid data hex digit: %v", err)
	}

	rec := &PendingRecord{
		LineNumber:   lineNumber,
		StartAddress: uint32(addr),
		Size:         uint32(len(data)),
		RawData:      dataStr,
	}
	return rec, SignalContinue, nil
}

// ReadHexData implements Format.
func (f *CheckSumMEM) ReadHexData(rec *PendingRecord, buf []byte, offset int) (uint32, error) {
	data, err := hex.DecodeString(rec.RawData)
	if err != nil {
		return 0, malformed("CheckSum MEM", "invalid data hex digit: %v", err)
	}
	copy(buf[offset:offset+len(data)], data)
	return 0, nil
}

// VerifyLineChecksum implements Format; CheckSum MEM has no checksum.
func (f *CheckSumMEM) VerifyLineChecksum(lineNumber int, computed, declared uint32) error { return nil }

// Save implements Format.
func (f *CheckSumMEM) Save(w *bufio.Writer, mm *memmap.MemoryMap) error {
	if _, err := fmt.Fprint(w, "Memory Type : ROM\n"); err != nil {
		return err
	}
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
			if _, err := fmt.Fprintf(w, "0x%08X    0x%s\n", addr, hex.EncodeToString(data[:n])); err != nil {
				return err
			}
			addr += uint32(n)
			data = data[n:]
		}
	}
	return nil
}

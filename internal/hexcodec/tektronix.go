package hexcodec

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/sparsehex/memhex/internal/memmap"
	"github.com/sparsehex/memhex/internal/utils"
)

// Tektronix implements Tektronix Hex: `%LLTCCAA…` lines where LL is the
// count of hex digits in the T, address and data fields (the CC field is
// not counted; ProcessLine does not check LL against the line), T declares
// the address field's nibble count (<=8), CC is the declared checksum, and
// the checksum rule sums individual nibble values rather than bytes.
type Tektronix struct{}

// Name implements Format.
func (f *Tektronix) Name() string { return "Tektronix Hex" }

// BytesPerLine implements Format.
func (f *Tektronix) BytesPerLine() int { return 16 }

// ResetState implements Format.
func (f *Tektronix) ResetState() {}

func nibbleValue(c byte) (uint32, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint32(c - '0'), true
	case c >= 'A' && c <= 'F':
		return uint32(c-'A') + 10, true
	case c >= 'a' && c <= 'f':
		return uint32(c-'a') + 10, true
	default:
		return 0, false
	}
}

func nibbleSum(s string) (uint32, error) {
	var sum uint32
	for i := 0; i < len(s); i++ {
		v, ok := nibbleValue(s[i])
		if !ok {
			return 0, fmt.Errorf("invalid hex digit %q", s[i])
		}
		sum += v
	}
	return sum, nil
}

// ProcessLine implements Format.
func (f *Tektronix) ProcessLine(lineNumber int, line string) (*PendingRecord, Signal, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, SignalContinue, nil
	}
	if line[0] != '%' {
		return nil, SignalContinue, malformed("Tektronix Hex", "line does not start with '%%'")
	}
	body := line[1:]
	if len(body) < 5 {
		return nil, SignalContinue, malformed("Tektronix Hex", "record too short")
	}
	llStr := body[0:2]
	tStr := body[2:3]
	ccStr := body[3:5]
	rest := body[5:]

	llBytes, err := hex.DecodeString(llStr)
	if err != nil || len(llBytes) != 1 {
		return nil, SignalContinue, malformed("Tektronix Hex", "invalid length field %q", llStr)
	}
	nibbleCount, ok := nibbleValue(tStr[0])
	if !ok || nibbleCount == 0 || nibbleCount > 8 {
		return nil, SignalContinue, malformed("Tektronix Hex", "address nibble count %q out of range [1,8]", tStr)
	}
	ccBytes, err := hex.DecodeString(ccStr)
	if err != nil || len(ccBytes) != 1 {
		return nil, SignalContinue, malformed("Tektronix Hex", "invalid checksum field %q", ccStr)
	}
	if int(nibbleCount) > len(rest) {
		return nil, SignalContinue, malformed("Tektronix Hex", "address field longer than remaining record")
	}
	addrField := rest[:nibbleCount]
	dataField := rest[nibbleCount:]
	if len(dataField)%2 != 0 {
		return nil, SignalContinue, malformed("Tektronix Hex", "odd number of data hex digits")
	}

	addr, err := strconv.ParseUint(addrField, 16, 32)
	if err != nil {
		return nil, SignalContinue, malformed("Tektronix Hex", "invalid address %q: %v", addrField, err)
	}

	llSum, _ := nibbleSum(llStr)
	tSum := nibbleCount
	addrSum, err := nibbleSum(addrField)
	if err != nil {
		return nil, SignalContinue, malformed("Tektronix Hex", "%v", err)
	}
	headerSum := llSum + tSum + addrSum

	if len(dataField) == 0 {
		return nil, SignalContinue, nil
	}

	rec := &PendingRecord{
		LineNumber:       lineNumber,
		StartAddress:     uint32(addr),
		Size:             uint32(len(dataField) / 2),
		RawData:          dataField,
		HeaderChecksum:   headerSum,
		DeclaredChecksum: uint32(ccBytes[0]),
		HasChecksum:      true,
	}
	return rec, SignalContinue, nil
}

// ReadHexData implements Format.
func (f *Tektronix) ReadHexData(rec *PendingRecord, buf []byte, offset int) (uint32, error) {
	data, err := hex.DecodeString(rec.RawData)
	if err != nil {
		return 0, malformed("Tektronix Hex", "invalid hex digit: %v", err)
	}
	copy(buf[offset:offset+len(data)], data)
	sum, err := nibbleSum(rec.RawData)
	if err != nil {
		return 0, malformed("Tektronix Hex", "%v", err)
	}
	return sum, nil
}

// VerifyLineChecksum implements Format.
func (f *Tektronix) VerifyLineChecksum(lineNumber int, computed, declared uint32) error {
	if (computed & 0xFF) != declared {
		return utils.WrapKind(utils.KindChecksumMismatch, "Tektronix Hex",
			fmt.Errorf("computed nibble-sum checksum %#02x does not match declared %#02x", computed&0xFF, declared))
	}
	return nil
}

// Save implements Format. Addresses are always emitted with 8 nibbles.
func (f *Tektronix) Save(w *bufio.Writer, mm *memmap.MemoryMap) error {
	for _, region := range mm.Regions() {
		blk := mm.Fetch(memmap.Region{Start: region.Start, End: region.End})
		addr := blk.Start
		data := blk.Data
		for len(data) > 0 {
			n := f.BytesPerLine()
			if n > len(data) {
				n = len(data)
			}
			if err := f.emitLine(w, addr, data[:n]); err != nil {
				return err
			}
			addr += uint32(n)
			data = data[n:]
		}
	}
	return nil
}

func (f *Tektronix) emitLine(w *bufio.Writer, addr uint32, data []byte) error {
	addrField := fmt.Sprintf("%08X", addr)
	dataField := hex.EncodeToString(data)
	ll := 1 + len(addrField) + len(dataField)
	llStr := fmt.Sprintf("%02X", ll)

	llSum, _ := nibbleSum(llStr)
	addrSum, _ := nibbleSum(addrField)
	dataSum, _ := nibbleSum(dataField)
	checksum := byte((llSum + 8 + addrSum + dataSum) & 0xFF)

	_, err := fmt.Fprintf(w, "%%%s8%02X%s%s\n", llStr, checksum, addrField, dataField)
	return err
}

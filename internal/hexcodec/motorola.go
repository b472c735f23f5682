package hexcodec

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sparsehex/memhex/internal/memmap"
	"github.com/sparsehex/memhex/internal/utils"
)

// addrWidthForMotorolaType returns the address-field width in bytes for a
// Motorola S-record type digit, or 0 if the digit is not a record type this
// codec recognizes.
func addrWidthForMotorolaType(t byte) int {
	switch t {
	case '0':
		return 2
	case '1':
		return 2
	case '2':
		return 3
	case '3':
		return 4
	case '5':
		return 2
	case '6':
		return 3
	case '7':
		return 4
	case '8':
		return 3
	case '9':
		return 2
	default:
		return 0
	}
}

// Motorola implements the Motorola S-record family (S19/S28/S37): header
// (S0), 16/24/32-bit data (S1/S2/S3), record-count cross-check (S5/S6), and
// termination (S7/S8/S9) carrying the start address of the matching width.
type Motorola struct {
	dataCount  int
	maxAddrEnd uint32
}

// Name implements Format.
func (f *Motorola) Name() string { return "Motorola S-record" }

// BytesPerLine implements Format.
func (f *Motorola) BytesPerLine() int { return 16 }

// ResetState implements Format.
func (f *Motorola) ResetState() {
	f.dataCount = 0
	f.maxAddrEnd = 0
}

// ProcessLine implements Format.
func (f *Motorola) ProcessLine(lineNumber int, line string) (*PendingRecord, Signal, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, SignalContinue, nil
	}
	if line[0] != 'S' || len(line) < 4 {
		return nil, SignalContinue, malformed("Motorola S-record", "line does not start with a valid 'SN' prefix")
	}
	typeDigit := line[1]
	rest := line[2:]
	if len(rest)%2 != 0 {
		return nil, SignalContinue, malformed("Motorola S-record", "odd number of hex digits")
	}
	raw, err := hex.DecodeString(rest)
	if err != nil {
		return nil, SignalContinue, malformed("Motorola S-record", "invalid hex digit: %v", err)
	}
	if len(raw) < 1 {
		return nil, SignalContinue, malformed("Motorola S-record", "record too short")
	}
	byteCount := raw[0]
	if len(raw) != int(byteCount)+1 {
		return nil, SignalContinue, malformed("Motorola S-record", "byte count %d does not match record length", byteCount)
	}
	aw := addrWidthForMotorolaType(typeDigit)
	if aw == 0 {
		return nil, SignalContinue, malformed("Motorola S-record", "unknown record type S%c", typeDigit)
	}
	if int(byteCount) < aw+1 {
		return nil, SignalContinue, malformed("Motorola S-record", "record too short for its address width")
	}
	addrBytes := raw[1 : 1+aw]
	dataBytes := raw[1+aw : len(raw)-1]
	declared := uint32(raw[len(raw)-1])

	var addr uint32
	for _, b := range addrBytes {
		addr = addr<<8 | uint32(b)
	}
	headerSum := uint32(byteCount)
	for _, b := range addrBytes {
		headerSum += uint32(b)
	}

	switch typeDigit {
	case '0':
		return nil, SignalContinue, nil
	case '1', '2', '3':
		f.dataCount++
		end := addr + uint32(len(dataBytes))
		if end > f.maxAddrEnd {
			f.maxAddrEnd = end
		}
		rec := &PendingRecord{
			LineNumber:       lineNumber,
			StartAddress:     addr,
			Size:             uint32(len(dataBytes)),
			RawData:          hex.EncodeToString(dataBytes),
			HeaderChecksum:   headerSum,
			DeclaredChecksum: declared,
			HasChecksum:      true,
		}
		return rec, SignalContinue, nil
	case '5', '6':
		if addr != uint32(f.dataCount) {
			return nil, SignalContinue, malformed("Motorola S-record",
				"S%c declares %d data records but %d were seen", typeDigit, addr, f.dataCount)
		}
		return nil, SignalContinue, nil
	case '7', '8', '9':
		return nil, SignalTerminate, nil
	default:
		return nil, SignalContinue, malformed("Motorola S-record", "unknown record type S%c", typeDigit)
	}
}

// ReadHexData implements Format.
func (f *Motorola) ReadHexData(rec *PendingRecord, buf []byte, offset int) (uint32, error) {
	data, err := hex.DecodeString(rec.RawData)
	if err != nil {
		return 0, malformed("Motorola S-record", "invalid hex digit: %v", err)
	}
	copy(buf[offset:offset+len(data)], data)
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return sum, nil
}

// VerifyLineChecksum implements Format.
func (f *Motorola) VerifyLineChecksum(lineNumber int, computed, declared uint32) error {
	check := byte(0xFF - (computed & 0xFF))
	if uint32(check) != declared {
		return utils.WrapKind(utils.KindChecksumMismatch, "Motorola S-record",
			fmt.Errorf("computed checksum %#02x does not match declared %#02x", check, declared))
	}
	return nil
}

// Save implements Format. The address width (S1/S2/S3, terminated by
// S9/S8/S7 respectively) is chosen from the highest address actually
// present in the map.
func (f *Motorola) Save(w *bufio.Writer, mm *memmap.MemoryMap) error {
	end, _ := mm.EndAddress()
	dataType, termType, width := byte('1'), byte('9'), 2
	switch {
	case end > 0xFFFFFF:
		dataType, termType, width = '3', '7', 4
	case end > 0xFFFF:
		dataType, termType, width = '2', '8', 3
	}

	if err := f.emitRecord(w, '0', 0, []byte("memhex")); err != nil {
		return err
	}

	count := 0
	for _, region := range mm.Regions() {
		blk := mm.Fetch(memmap.Region{Start: region.Start, End: region.End})
		addr := blk.Start
		data := blk.Data
		for len(data) > 0 {
			n := f.BytesPerLine()
			if n > len(data) {
				n = len(data)
			}
			if err := f.emitRecordWidth(w, dataType, addr, data[:n], width); err != nil {
				return err
			}
			addr += uint32(n)
			data = data[n:]
			count++
		}
	}

	countType := byte('5')
	if count > 0xFFFF {
		countType = '6'
	}
	if err := f.emitRecordWidth(w, countType, uint32(count), nil, 2); err != nil {
		return err
	}
	return f.emitRecordWidth(w, termType, 0, nil, width)
}

func (f *Motorola) emitRecord(w *bufio.Writer, typeDigit byte, addr uint32, data []byte) error {
	return f.emitRecordWidth(w, typeDigit, addr, data, 2)
}

func (f *Motorola) emitRecordWidth(w *bufio.Writer, typeDigit byte, addr uint32, data []byte, width int) error {
	addrBytes := make([]byte, width)
	for i := 0; i < width; i++ {
		addrBytes[width-1-i] = byte(addr >> (8 * i))
	}
	byteCount := width + len(data) + 1
	sum := uint32(byteCount)
	for _, b := range addrBytes {
		sum += uint32(b)
	}
	for _, b := range data {
		sum += uint32(b)
	}
	checksum := byte(0xFF - (sum & 0xFF))

	if _, err := fmt.Fprintf(w, "S%c%02X", typeDigit, byteCount); err != nil {
		return err
	}
	for _, b := range addrBytes {
		if _, err := fmt.Fprintf(w, "%02X", b); err != nil {
			return err
		}
	}
	for _, b := range data {
		if _, err := fmt.Fprintf(w, "%02X", b); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%02X\n", checksum)
	return err
}

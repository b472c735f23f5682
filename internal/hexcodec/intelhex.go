package hexcodec

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sparsehex/memhex/internal/memmap"
	"github.com/sparsehex/memhex/internal/utils"
)

// Record types recognized in the type field (the "TT" of :LLAAAATT…CC).
const (
	ihexTypeData              = 0x00
	ihexTypeEOF               = 0x01
	ihexTypeExtSegmentAddr    = 0x02
	ihexTypeStartSegmentAddr  = 0x03
	ihexTypeExtLinearAddr     = 0x04
	ihexTypeStartLinearAddr   = 0x05
)

// IntelHex implements the Intel Hex format: `:LLAAAATT…CC` lines with
// 16-bit offsets extended by type-02 (segment) or type-04 (linear) address
// records, and a two's-complement checksum over every decoded byte.
type IntelHex struct {
	segBase uint32 // active only when mode == addrModeSegment
	linBase uint32 // active only when mode == addrModeLinear
	mode    int

	lastLinearHi uint32 // Save: last emitted :02000004 high half; meaningful only when haveLastHi
	haveLastHi   bool
}

const (
	addrModeNone = iota
	addrModeSegment
	addrModeLinear
)

// Name implements Format.
func (f *IntelHex) Name() string { return "Intel Hex" }

// BytesPerLine implements Format.
func (f *IntelHex) BytesPerLine() int { return 16 }

// ResetState implements Format.
func (f *IntelHex) ResetState() {
	f.segBase, f.linBase, f.mode = 0, 0, addrModeNone
	f.haveLastHi = false
}

// ProcessLine implements Format.
func (f *IntelHex) ProcessLine(lineNumber int, line string) (*PendingRecord, Signal, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, SignalContinue, nil
	}
	if line[0] != ':' {
		return nil, SignalContinue, malformed("Intel Hex", "line does not start with ':'")
	}
	body := line[1:]
	if len(body)%2 != 0 {
		return nil, SignalContinue, malformed("Intel Hex", "odd number of hex digits")
	}
	raw, err := hex.DecodeString(body)
	if err != nil {
		return nil, SignalContinue, malformed("Intel Hex", "invalid hex digit: %v", err)
	}
	if len(raw) < 5 {
		return nil, SignalContinue, malformed("Intel Hex", "record too short")
	}

	byteCount := raw[0]
	addrHi, addrLo := raw[1], raw[2]
	recType := raw[3]
	if len(raw) != int(byteCount)+5 {
		return nil, SignalContinue, malformed("Intel Hex", "byte count %d does not match record length", byteCount)
	}
	dataBytes := raw[4 : 4+byteCount]
	declared := uint32(raw[len(raw)-1])
	headerSum := uint32(byteCount) + uint32(addrHi) + uint32(addrLo) + uint32(recType)
	offset := uint32(addrHi)<<8 | uint32(addrLo)

	switch recType {
	case ihexTypeData:
		var base uint32
		if f.mode == addrModeSegment {
			base = f.segBase
		} else if f.mode == addrModeLinear {
			base = f.linBase
		}
		rec := &PendingRecord{
			LineNumber:       lineNumber,
			StartAddress:     base + offset,
			Size:             uint32(byteCount),
			RawData:          hex.EncodeToString(dataBytes),
			HeaderChecksum:   headerSum,
			DeclaredChecksum: declared,
			HasChecksum:      true,
		}
		return rec, SignalContinue, nil
	case ihexTypeEOF:
		return nil, SignalTerminate, nil
	case ihexTypeExtSegmentAddr:
		if byteCount != 2 {
			return nil, SignalContinue, malformed("Intel Hex", "extended segment address record must carry 2 bytes")
		}
		f.segBase = (uint32(dataBytes[0])<<8 | uint32(dataBytes[1])) << 4
		f.mode = addrModeSegment
		return nil, SignalContinue, nil
	case ihexTypeStartSegmentAddr:
		return nil, SignalContinue, nil
	case ihexTypeExtLinearAddr:
		if byteCount != 2 {
			return nil, SignalContinue, malformed("Intel Hex", "extended linear address record must carry 2 bytes")
		}
		f.linBase = (uint32(dataBytes[0])<<8 | uint32(dataBytes[1])) << 16
		f.mode = addrModeLinear
		return nil, SignalContinue, nil
	case ihexTypeStartLinearAddr:
		return nil, SignalContinue, nil
	default:
		return nil, SignalContinue, malformed("Intel Hex", "unknown record type %#02x", recType)
	}
}

// ReadHexData implements Format.
func (f *IntelHex) ReadHexData(rec *PendingRecord, buf []byte, offset int) (uint32, error) {
	data, err := hex.DecodeString(rec.RawData)
	if err != nil {
		return 0, malformed("Intel Hex", "invalid hex digit: %v", err)
	}
	copy(buf[offset:offset+len(data)], data)
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return sum, nil
}

// VerifyLineChecksum implements Format.
func (f *IntelHex) VerifyLineChecksum(lineNumber int, computed, declared uint32) error {
	check := byte((0x100 - int(computed&0xFF)) & 0xFF)
	if uint32(check) != declared {
		return utils.WrapKind(utils.KindChecksumMismatch, "Intel Hex",
			fmt.Errorf("computed checksum %#02x does not match declared %#02x", check, declared))
	}
	return nil
}

// Save implements Format.
func (f *IntelHex) Save(w *bufio.Writer, mm *memmap.MemoryMap) error {
	f.haveLastHi = false
	for _, region := range mm.Regions() {
		blk := mm.Fetch(memmap.Region{Start: region.Start, End: region.End})
		addr := blk.Start
		data := blk.Data
		for len(data) > 0 {
			hi := addr >> 16
			if !f.haveLastHi || hi != f.lastLinearHi {
				if err := f.emitExtLinearAddr(w, hi); err != nil {
					return err
				}
				f.lastLinearHi = hi
				f.haveLastHi = true
			}
			roomInSegment := 0x10000 - int(addr&0xFFFF)
			n := f.BytesPerLine()
			if n > roomInSegment {
				n = roomInSegment
			}
			if n > len(data) {
				n = len(data)
			}
			if err := f.emitDataLine(w, uint16(addr&0xFFFF), data[:n]); err != nil {
				return err
			}
			addr += uint32(n)
			data = data[n:]
		}
	}
	_, err := fmt.Fprint(w, ":00000001FF\n")
	return err
}

func (f *IntelHex) emitExtLinearAddr(w *bufio.Writer, hi uint32) error {
	hiBytes := []byte{byte(hi >> 8), byte(hi)}
	sum := 2 + uint32(ihexTypeExtLinearAddr) + uint32(hiBytes[0]) + uint32(hiBytes[1])
	checksum := byte((0x100 - int(sum&0xFF)) & 0xFF)
	_, err := fmt.Fprintf(w, ":02000004%02X%02X%02X\n", hiBytes[0], hiBytes[1], checksum)
	return err
}

func (f *IntelHex) emitDataLine(w *bufio.Writer, offset uint16, data []byte) error {
	addrHi, addrLo := byte(offset>>8), byte(offset)
	sum := uint32(len(data)) + uint32(addrHi) + uint32(addrLo) + uint32(ihexTypeData)
	for _, b := range data {
		sum += uint32(b)
	}
	checksum := byte((0x100 - int(sum&0xFF)) & 0xFF)
	if _, err := fmt.Fprintf(w, ":%02X%02X%02X%02X", len(data), addrHi, addrLo, ihexTypeData); err != nil {
		return err
	}
	for _, b := range data {
		if _, err := fmt.Fprintf(w, "%02X", b); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%02X\n", checksum)
	return err
}

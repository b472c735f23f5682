package memhex

import "github.com/sparsehex/memhex/internal/hexcodec"

// FormatKind identifies a recognized wire format. It mirrors
// internal/hexcodec.Kind so that callers outside the module can name a
// format without importing an internal package.
type FormatKind int

const (
	// FormatRaw is the fallback: uninterpreted binary loaded as one block.
	FormatRaw FormatKind = iota
	FormatIntelHex
	FormatMotorola
	FormatTektronix
	FormatTIText
	FormatActelHex
	FormatCheckSumMEM
	FormatCArray
	FormatELF
)

// String names the format for diagnostics and summaries.
func (k FormatKind) String() string {
	return k.toInternal().String()
}

func (k FormatKind) toInternal() hexcodec.Kind {
	switch k {
	case FormatIntelHex:
		return hexcodec.KindIntelHex
	case FormatMotorola:
		return hexcodec.KindMotorola
	case FormatTektronix:
		return hexcodec.KindTektronix
	case FormatTIText:
		return hexcodec.KindTIText
	case FormatActelHex:
		return hexcodec.KindActelHex
	case FormatCheckSumMEM:
		return hexcodec.KindCheckSumMEM
	case FormatCArray:
		return hexcodec.KindCArray
	case FormatELF:
		return hexcodec.KindELF
	default:
		return hexcodec.KindRaw
	}
}

func fromInternal(k hexcodec.Kind) FormatKind {
	switch k {
	case hexcodec.KindIntelHex:
		return FormatIntelHex
	case hexcodec.KindMotorola:
		return FormatMotorola
	case hexcodec.KindTektronix:
		return FormatTektronix
	case hexcodec.KindTIText:
		return FormatTIText
	case hexcodec.KindActelHex:
		return FormatActelHex
	case hexcodec.KindCheckSumMEM:
		return FormatCheckSumMEM
	case hexcodec.KindCArray:
		return FormatCArray
	case hexcodec.KindELF:
		return FormatELF
	default:
		return FormatRaw
	}
}

// DetectContentFormat inspects in-memory file contents and returns the
// format it recognizes, per the content-detection rules in the format
// inventory (text plug-ins probed in table order, else ELF, else raw).
func DetectContentFormat(data []byte) FormatKind {
	return fromInternal(hexcodec.DetectContent(data))
}

// DetectExtensionFormat maps a file extension (with or without a leading
// dot, case-insensitive) to a format.
func DetectExtensionFormat(ext string) FormatKind {
	return fromInternal(hexcodec.DetectExtension(ext))
}

package hexcodec

import (
	"bytes"
	"strings"
)

// Kind identifies a recognized wire format.
type Kind int

const (
	// KindRaw is the fallback: uninterpreted binary loaded as one flat block.
	KindRaw Kind = iota
	KindIntelHex
	KindMotorola
	KindTektronix
	KindTIText
	KindActelHex
	KindCheckSumMEM
	KindCArray
	KindELF
)

// String names the kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindIntelHex:
		return "Intel Hex"
	case KindMotorola:
		return "Motorola S-record"
	case KindTektronix:
		return "Tektronix Hex"
	case KindTIText:
		return "TI-Text"
	case KindActelHex:
		return "Actel Hex"
	case KindCheckSumMEM:
		return "CheckSum MEM"
	case KindCArray:
		return "C array"
	case KindELF:
		return "ELF (32-bit)"
	default:
		return "raw binary"
	}
}

// NewFormat constructs a fresh plug-in instance for every Kind except Raw
// and ELF, which are handled outside the Loader/Saver line-driven framework
// (nil is returned for them). The CArray instance is write-only: its
// ProcessLine rejects every line.
func NewFormat(k Kind) Format {
	switch k {
	case KindIntelHex:
		return &IntelHex{}
	case KindMotorola:
		return &Motorola{}
	case KindTektronix:
		return &Tektronix{}
	case KindTIText:
		return &TIText{}
	case KindActelHex:
		return &ActelHex{}
	case KindCheckSumMEM:
		return &CheckSumMEM{}
	case KindCArray:
		return &CArray{Width: 32}
	default:
		return nil
	}
}

var textPluginOrder = []struct {
	kind Kind
	new  func() Format
}{
	{KindIntelHex, func() Format { return &IntelHex{} }},
	{KindMotorola, func() Format { return &Motorola{} }},
	{KindTektronix, func() Format { return &Tektronix{} }},
	{KindTIText, func() Format { return &TIText{} }},
	{KindActelHex, func() Format { return &ActelHex{} }},
	{KindCheckSumMEM, func() Format { return &CheckSumMEM{} }},
}

// firstNonBlankLines returns up to n non-blank lines from data.
func firstNonBlankLines(data []byte, n int) []string {
	var out []string
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}

// looksBinary reports whether data's first limit bytes contain a control
// byte other than tab/CR/LF, the signal used to prefer binary plug-ins
// over text plug-ins during detection.
func looksBinary(data []byte, limit int) bool {
	if limit > len(data) {
		limit = len(data)
	}
	for _, b := range data[:limit] {
		if b < 0x20 && b != '\t' && b != '\r' && b != '\n' {
			return true
		}
	}
	return false
}

// DetectContent inspects the full contents of a stream already read into
// memory and returns the Kind it recognizes. Text plug-ins are tried, in
// the order documented in the format inventory, against the first five
// non-blank lines; the first whose ProcessLine accepts every one of them
// wins. If the content looks binary, binary plug-ins are probed instead.
// The zero value KindRaw is returned when nothing matches.
func DetectContent(data []byte) Kind {
	if !looksBinary(data, 4096) {
		lines := firstNonBlankLines(data, 5)
		if len(lines) > 0 {
			for _, p := range textPluginOrder {
				if acceptsAll(p.new(), lines) {
					return p.kind
				}
			}
		}
	}

	elf := &ELF32{}
	if elf.Test(bytes.NewReader(data)) {
		return KindELF
	}
	return KindRaw
}

func acceptsAll(f Format, lines []string) bool {
	f.ResetState()
	for i, line := range lines {
		if _, _, err := f.ProcessLine(i+1, line); err != nil {
			return false
		}
	}
	return true
}

// extensionKinds implements the file-extension table from the external
// interfaces section: extension -> recognized Kind, keyed lower-case and
// without the leading dot (DetectExtension normalizes both).
var extensionKinds = map[string]Kind{
	"ahex":  KindActelHex,
	"ahx":   KindActelHex,
	"bin":   KindRaw,
	"dat":   KindRaw,
	"elf":   KindELF,
	"c":     KindCArray,
	"cpp":   KindCArray,
	"h":     KindCArray,
	"hex":   KindIntelHex,
	"ihex":  KindIntelHex,
	"mem":   KindCheckSumMEM,
	"mhex":  KindMotorola,
	"mot":   KindMotorola,
	"s19":   KindMotorola,
	"s28":   KindMotorola,
	"s37":   KindMotorola,
	"srec":  KindMotorola,
	"tek":   KindTektronix,
	"txt":   KindTIText,
}

// DetectExtension maps a file extension (with or without a leading dot,
// case-insensitive) to a Kind, defaulting to KindRaw for anything
// unrecognized.
func DetectExtension(ext string) Kind {
	if k, ok := extensionKinds[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return k
	}
	return KindRaw
}

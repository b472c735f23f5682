package hexcodec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectContent_IntelHex(t *testing.T) {
	data := []byte(":10010000214601360121470136007EFE09D2190140\n:00000001FF\n")
	require.Equal(t, KindIntelHex, DetectContent(data))
}

func TestDetectContent_Motorola(t *testing.T) {
	data := []byte("S00F000068656C6C6F202020202000003C\nS111000048656C6C6F2C20776F726C64210034\nS9030000FC\n")
	require.Equal(t, KindMotorola, DetectContent(data))
}

func TestDetectContent_TIText(t *testing.T) {
	data := []byte("@8000\n00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F\nq\n")
	require.Equal(t, KindTIText, DetectContent(data))
}

func TestDetectContent_BinaryFallsBackToRaw(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0x7F, 0x80, 0xFF, 0x10, 0x20}
	require.Equal(t, KindRaw, DetectContent(data))
}

func TestDetectContent_ELF(t *testing.T) {
	image := buildELF32(t, 0x1000, []byte{1, 2, 3, 4})
	require.Equal(t, KindELF, DetectContent(image))
}

func TestDetectExtension(t *testing.T) {
	cases := map[string]Kind{
		"hex":  KindIntelHex,
		"ihex": KindIntelHex,
		"s19":  KindMotorola,
		"srec": KindMotorola,
		"tek":  KindTektronix,
		"txt":  KindTIText,
		"ahx":  KindActelHex,
		"mem":  KindCheckSumMEM,
		"c":    KindCArray,
		"elf":  KindELF,
		"bin":  KindRaw,
		"xyz":  KindRaw,
	}
	for ext, want := range cases {
		require.Equal(t, want, DetectExtension(ext), "extension %q", ext)
	}
}

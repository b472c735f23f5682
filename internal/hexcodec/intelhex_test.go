package hexcodec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparsehex/memhex/internal/memmap"
)

func TestIntelHex_SmallFile(t *testing.T) {
	input := ":10010000214601360121470136007EFE09D2190140\n:00000001FF"
	l := &Loader{}
	mm, errs, warnings, err := l.Load(strings.NewReader(input), &IntelHex{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Empty(t, warnings)

	require.Equal(t, 1, mm.BlockCount())
	start, _ := mm.StartAddress()
	end, _ := mm.EndAddress()
	blk := mm.Fetch(memmap.Region{Start: start, End: end})
	require.Equal(t,
		[]byte{0x21, 0x46, 0x01, 0x36, 0x01, 0x21, 0x47, 0x01, 0x36, 0x00, 0x7E, 0xFE, 0x09, 0xD2, 0x19, 0x01},
		blk.Data)
	require.Equal(t, uint32(0x0100), blk.Start)
}

func TestIntelHex_BadChecksum(t *testing.T) {
	input := ":10010000214601360121470136007EFE09D2190141\n:00000001FF"
	l := &Loader{InvalidChecksumWarning: false}
	mm, errs, warnings, err := l.Load(strings.NewReader(input), &IntelHex{})
	require.NoError(t, err)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "Line 1:")
	require.Empty(t, warnings)
	require.Equal(t, 1, mm.BlockCount())
}

func TestIntelHex_BadChecksum_AsWarning(t *testing.T) {
	input := ":10010000214601360121470136007EFE09D2190141\n:00000001FF"
	l := &Loader{InvalidChecksumWarning: true}
	_, errs, warnings, err := l.Load(strings.NewReader(input), &IntelHex{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, warnings, 1)
}

func TestIntelHex_RoundTrip(t *testing.T) {
	input := ":10010000214601360121470136007EFE09D2190140\n:00000001FF\n"
	l := &Loader{}
	mm, errs, _, err := l.Load(strings.NewReader(input), &IntelHex{})
	require.NoError(t, err)
	require.Empty(t, errs)

	var out strings.Builder
	s := &Saver{}
	require.NoError(t, s.Save(&out, mm, &IntelHex{}))

	l2 := &Loader{}
	mm2, errs2, _, err := l2.Load(strings.NewReader(out.String()), &IntelHex{})
	require.NoError(t, err)
	require.Empty(t, errs2)
	require.Equal(t, mm.Regions(), mm2.Regions())

	start, _ := mm.StartAddress()
	end, _ := mm.EndAddress()
	start2, _ := mm2.StartAddress()
	end2, _ := mm2.EndAddress()
	require.Equal(t, mm.Fetch(memmap.Region{Start: start, End: end}).Data,
		mm2.Fetch(memmap.Region{Start: start2, End: end2}).Data)
}

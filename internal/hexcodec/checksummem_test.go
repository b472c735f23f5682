package hexcodec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparsehex/memhex/internal/memmap"
)

func TestCheckSumMEM_RoundTrip(t *testing.T) {
	mm := memmap.New()
	require.NoError(t, mm.Insert(0x2000, []byte{0xDE, 0xAD, 0xBE, 0xEF}))

	var out strings.Builder
	s := &Saver{}
	require.NoError(t, s.Save(&out, mm, &CheckSumMEM{}))
	require.True(t, strings.HasPrefix(out.String(), "Memory Type"))

	l := &Loader{}
	mm2, errs, _, err := l.Load(strings.NewReader(out.String()), &CheckSumMEM{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Equal(t, mm.Regions(), mm2.Regions())

	start, _ := mm2.StartAddress()
	end, _ := mm2.EndAddress()
	blk := mm2.Fetch(memmap.Region{Start: start, End: end})
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, blk.Data)
}

func TestCheckSumMEM_HeaderRecognizedWithoutError(t *testing.T) {
	input := "Memory Type : Flash\n0x00000000    0x01020304\n"
	l := &Loader{}
	mm, errs, _, err := l.Load(strings.NewReader(input), &CheckSumMEM{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.True(t, mm.Contains(0))
}

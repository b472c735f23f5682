package hexcodec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparsehex/memhex/internal/memmap"
)

func TestTektronix_RoundTrip(t *testing.T) {
	mm := memmap.New()
	require.NoError(t, mm.Insert(0x1000, []byte{1, 2, 3, 4, 5}))

	var out strings.Builder
	s := &Saver{}
	require.NoError(t, s.Save(&out, mm, &Tektronix{}))

	l := &Loader{}
	mm2, errs, warnings, err := l.Load(strings.NewReader(out.String()), &Tektronix{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Empty(t, warnings)
	require.Equal(t, mm.Regions(), mm2.Regions())

	start, _ := mm2.StartAddress()
	end, _ := mm2.EndAddress()
	blk := mm2.Fetch(memmap.Region{Start: start, End: end})
	require.Equal(t, []byte{1, 2, 3, 4, 5}, blk.Data)
}

func TestTektronix_BadChecksumDetected(t *testing.T) {
	mm := memmap.New()
	require.NoError(t, mm.Insert(0x1000, []byte{1, 2, 3, 4, 5}))

	var out strings.Builder
	s := &Saver{}
	require.NoError(t, s.Save(&out, mm, &Tektronix{}))
	line := strings.TrimRight(out.String(), "\n")
	require.Equal(t, byte('8'), line[3])

	// flip the checksum field (line[4:6]) to a value guaranteed wrong.
	checksumField := line[4:6]
	replacement := "00"
	if checksumField == "00" {
		replacement = "01"
	}
	corrupted := line[:4] + replacement + line[6:] + "\n"

	l := &Loader{}
	_, errs, _, err := l.Load(strings.NewReader(corrupted), &Tektronix{})
	require.NoError(t, err)
	require.NotEmpty(t, errs)
}

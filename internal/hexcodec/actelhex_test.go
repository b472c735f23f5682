package hexcodec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparsehex/memhex/internal/memmap"
)

func TestActelHex_RoundTrip(t *testing.T) {
	mm := memmap.New()
	require.NoError(t, mm.Insert(0, []byte{1, 2, 3, 4, 5, 6, 7, 8}))

	var out strings.Builder
	s := &Saver{}
	require.NoError(t, s.Save(&out, mm, &ActelHex{}))

	l := &Loader{}
	mm2, errs, _, err := l.Load(strings.NewReader(out.String()), &ActelHex{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Equal(t, mm.Regions(), mm2.Regions())
}

func TestActelHex_WidthMismatchRejected(t *testing.T) {
	input := "000000:00010203\n000001:0405\n"
	l := &Loader{}
	_, errs, _, err := l.Load(strings.NewReader(input), &ActelHex{})
	require.NoError(t, err)
	require.Len(t, errs, 1)
}

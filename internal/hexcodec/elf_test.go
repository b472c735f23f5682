package hexcodec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	mockio "github.com/sparsehex/memhex/internal/testing"
)

// buildELF32 assembles a minimal well-formed 32-bit little-endian ELF image
// with one PT_LOAD segment, for exercising ELF32.Load without depending on
// a real toolchain-produced binary.
func buildELF32(t *testing.T, paddr uint32, payload []byte) []byte {
	t.Helper()
	const ehdrSize = 52
	const phdrSize = 32
	phoff := uint32(ehdrSize)
	dataOff := phoff + phdrSize

	buf := make([]byte, int(dataOff)+len(payload))
	copy(buf[0:4], []byte{0x7F, 'E', 'L', 'F'})
	buf[4] = 1 // EI_CLASS = ELFCLASS32
	buf[5] = 1 // EI_DATA = little-endian
	buf[6] = 1 // EI_VERSION

	bo := binary.LittleEndian
	bo.PutUint16(buf[16:18], 2)         // e_type = ET_EXEC
	bo.PutUint16(buf[18:20], 3)         // e_machine
	bo.PutUint32(buf[20:24], 1)         // e_version
	bo.PutUint32(buf[24:28], 0)         // e_entry
	bo.PutUint32(buf[28:32], phoff)     // e_phoff
	bo.PutUint32(buf[32:36], 0)         // e_shoff (none)
	bo.PutUint32(buf[36:40], 0)         // e_flags
	bo.PutUint16(buf[40:42], ehdrSize)  // e_ehsize
	bo.PutUint16(buf[42:44], phdrSize)  // e_phentsize
	bo.PutUint16(buf[44:46], 1)         // e_phnum
	bo.PutUint16(buf[46:48], 0)         // e_shentsize
	bo.PutUint16(buf[48:50], 0)         // e_shnum
	bo.PutUint16(buf[50:52], 0)         // e_shstrndx

	ph := buf[phoff : phoff+phdrSize]
	bo.PutUint32(ph[0:4], 1)               // p_type = PT_LOAD
	bo.PutUint32(ph[4:8], dataOff)          // p_offset
	bo.PutUint32(ph[8:12], paddr)           // p_vaddr
	bo.PutUint32(ph[12:16], paddr)          // p_paddr
	bo.PutUint32(ph[16:20], uint32(len(payload))) // p_filesz
	bo.PutUint32(ph[20:24], uint32(len(payload))) // p_memsz
	bo.PutUint32(ph[24:28], 5)              // p_flags
	bo.PutUint32(ph[28:32], 4)              // p_align

	copy(buf[dataOff:], payload)
	return buf
}

func TestELF32_LoadsProgramHeader(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	image := buildELF32(t, 0x8000, payload)

	f := &ELF32{}
	require.True(t, f.Test(bytes.NewReader(image)))

	mm, errs, warnings, err := f.Load(bytes.NewReader(image))
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Empty(t, warnings)

	require.True(t, mm.Contains(0x8000))
	require.True(t, mm.Contains(0x8007))
	require.False(t, mm.Contains(0x8008))
}

func TestELF32_RejectsBadMagic(t *testing.T) {
	f := &ELF32{}
	_, _, _, err := f.Load(bytes.NewReader(make([]byte, 52)))
	require.Error(t, err)
}

func TestELF32_RejectsTruncatedHeader(t *testing.T) {
	// A reader that errors past its 10 available bytes stands in for a
	// stream that closes mid-header, distinct from bytes.Reader's silent
	// zero-fill behavior were the slice merely too short.
	f := &ELF32{}
	_, _, _, err := f.Load(mockio.NewMockReaderAt([]byte{0x7F, 'E', 'L', 'F', 1, 1, 1, 0, 0, 0}))
	require.Error(t, err)
}

func TestELF32_TestViaMockReaderAt(t *testing.T) {
	image := buildELF32(t, 0x1000, []byte{1, 2, 3, 4})
	f := &ELF32{}
	require.True(t, f.Test(mockio.NewMockReaderAt(image)))
	require.False(t, f.Test(mockio.NewMockReaderAt([]byte{0, 0, 0, 0})))
}

func TestELF32_Rejects64Bit(t *testing.T) {
	image := buildELF32(t, 0x1000, []byte{1})
	image[4] = 2 // EI_CLASS = ELFCLASS64
	f := &ELF32{}
	_, _, _, err := f.Load(bytes.NewReader(image))
	require.Error(t, err)
}

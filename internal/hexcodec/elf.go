package hexcodec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sparsehex/memhex/internal/memmap"
	"github.com/sparsehex/memhex/internal/utils"
)

const elfMagic = 0x464C457F

const (
	elfClass32 = 1
	elfClass64 = 2
	elfDataLE  = 1
	elfDataBE  = 2

	elfShfAlloc  = 0x2
	elfShtNobits = 8
	elfPtLoad    = 1
)

// ELF32 loads the 32-bit ELF object/executable format: sections flagged
// SHF_ALLOC (excluding SHT_NOBITS, which occupies no file data) keyed by
// sh_addr, then PT_LOAD program headers keyed by p_paddr. It does not
// implement the text-format Format interface — ELF is a random-access
// binary format, not line-oriented — and is driven directly rather than
// through Loader.
type ELF32 struct{}

// Name identifies the format in diagnostics.
func (f *ELF32) Name() string { return "ELF (32-bit)" }

// Test reports whether r begins with the ELF magic number.
func (f *ELF32) Test(r io.ReaderAt) bool {
	magic, err := utils.ReadUint32(r, 0, binary.LittleEndian)
	if err != nil {
		return false
	}
	return magic == elfMagic
}

// readU32/readU16 wrap the shared endian helpers with the "ELF" error
// context and KindUnexpectedEOF, the uniform failure mode for any header
// field a truncated stream cuts off.
func readU32(r io.ReaderAt, offset int64, bo binary.ByteOrder, field string) (uint32, error) {
	v, err := utils.ReadUint32(r, offset, bo)
	if err != nil {
		return 0, utils.WrapKind(utils.KindUnexpectedEOF, "ELF", fmt.Errorf("reading %s: %w", field, err))
	}
	return v, nil
}

func readU16(r io.ReaderAt, offset int64, bo binary.ByteOrder, field string) (uint16, error) {
	v, err := utils.ReadUint16(r, offset, bo)
	if err != nil {
		return 0, utils.WrapKind(utils.KindUnexpectedEOF, "ELF", fmt.Errorf("reading %s: %w", field, err))
	}
	return v, nil
}

// Load parses the ELF header, section headers and program headers from r,
// streaming allocated sections and loadable segments into a fresh memory
// map. A non-nil error is structural (truncated header, bad magic, 64-bit
// class); per-entry faults while walking sections/segments accumulate into
// the returned errors slice instead.
func (f *ELF32) Load(r io.ReaderAt) (*memmap.MemoryMap, []string, []string, error) {
	magic, err := readU32(r, 0, binary.LittleEndian, "e_ident magic")
	if err != nil {
		return nil, nil, nil, err
	}
	if magic != elfMagic {
		return nil, nil, nil, utils.NewKind(utils.KindUnexpectedEOF, "ELF magic missing")
	}

	var identTail [2]byte
	if _, err := r.ReadAt(identTail[:], 4); err != nil {
		return nil, nil, nil, utils.WrapKind(utils.KindUnexpectedEOF, "ELF", fmt.Errorf("reading e_ident: %w", err))
	}
	class, dataEnc := identTail[0], identTail[1]
	if class == elfClass64 {
		return nil, nil, nil, utils.NewKind(utils.KindUnimplemented, "64-bit ELF is not supported")
	}
	if class != elfClass32 {
		return nil, nil, nil, malformed("ELF", "unknown EI_CLASS %d", class)
	}

	var bo binary.ByteOrder = binary.LittleEndian
	if dataEnc == elfDataBE {
		bo = binary.BigEndian
	}

	phoff, err := readU32(r, 28, bo, "e_phoff")
	if err != nil {
		return nil, nil, nil, err
	}
	shoff, err := readU32(r, 32, bo, "e_shoff")
	if err != nil {
		return nil, nil, nil, err
	}
	ehsize, err := readU16(r, 40, bo, "e_ehsize")
	if err != nil {
		return nil, nil, nil, err
	}
	phentsize, err := readU16(r, 42, bo, "e_phentsize")
	if err != nil {
		return nil, nil, nil, err
	}
	phnum, err := readU16(r, 44, bo, "e_phnum")
	if err != nil {
		return nil, nil, nil, err
	}
	shentsize, err := readU16(r, 46, bo, "e_shentsize")
	if err != nil {
		return nil, nil, nil, err
	}
	shnum, err := readU16(r, 48, bo, "e_shnum")
	if err != nil {
		return nil, nil, nil, err
	}
	if ehsize != 52 {
		return nil, nil, nil, malformed("ELF", "unexpected e_ehsize %d", ehsize)
	}

	mm := memmap.New()
	mm.SetSuppressOrganize(true)
	var errorsList, warningsList []string

	if shnum > 0 && shentsize != 40 {
		errorsList = append(errorsList, fmt.Sprintf("unexpected e_shentsize %d", shentsize))
	} else {
		for i := 0; i < int(shnum); i++ {
			off := int64(shoff) + int64(i)*int64(shentsize)
			shType, err := utils.ReadUint32(r, off+4, bo)
			if err != nil {
				errorsList = append(errorsList, fmt.Sprintf("reading section header %d: %v", i, err))
				continue
			}
			shFlags, err := utils.ReadUint32(r, off+8, bo)
			if err != nil {
				errorsList = append(errorsList, fmt.Sprintf("reading section header %d: %v", i, err))
				continue
			}
			shAddr, err := utils.ReadUint32(r, off+12, bo)
			if err != nil {
				errorsList = append(errorsList, fmt.Sprintf("reading section header %d: %v", i, err))
				continue
			}
			shOffset, err := utils.ReadUint32(r, off+16, bo)
			if err != nil {
				errorsList = append(errorsList, fmt.Sprintf("reading section header %d: %v", i, err))
				continue
			}
			shSize, err := utils.ReadUint32(r, off+20, bo)
			if err != nil {
				errorsList = append(errorsList, fmt.Sprintf("reading section header %d: %v", i, err))
				continue
			}
			if shFlags&elfShfAlloc == 0 || shType == elfShtNobits || shSize == 0 {
				continue
			}
			data := make([]byte, shSize)
			if _, err := r.ReadAt(data, int64(shOffset)); err != nil {
				errorsList = append(errorsList, fmt.Sprintf("reading section %d data: %v", i, err))
				continue
			}
			if err := mm.Insert(shAddr, data); err != nil {
				errorsList = append(errorsList, err.Error())
			}
		}
	}

	if phnum > 0 && phentsize != 32 {
		errorsList = append(errorsList, fmt.Sprintf("unexpected e_phentsize %d", phentsize))
	} else {
		for i := 0; i < int(phnum); i++ {
			off := int64(phoff) + int64(i)*int64(phentsize)
			pType, err := utils.ReadUint32(r, off, bo)
			if err != nil {
				errorsList = append(errorsList, fmt.Sprintf("reading program header %d: %v", i, err))
				continue
			}
			pOffset, err := utils.ReadUint32(r, off+4, bo)
			if err != nil {
				errorsList = append(errorsList, fmt.Sprintf("reading program header %d: %v", i, err))
				continue
			}
			pPaddr, err := utils.ReadUint32(r, off+12, bo)
			if err != nil {
				errorsList = append(errorsList, fmt.Sprintf("reading program header %d: %v", i, err))
				continue
			}
			pFilesz, err := utils.ReadUint32(r, off+16, bo)
			if err != nil {
				errorsList = append(errorsList, fmt.Sprintf("reading program header %d: %v", i, err))
				continue
			}
			if pType != elfPtLoad || pFilesz == 0 {
				continue
			}
			data := make([]byte, pFilesz)
			if _, err := r.ReadAt(data, int64(pOffset)); err != nil {
				errorsList = append(errorsList, fmt.Sprintf("reading segment %d data: %v", i, err))
				continue
			}
			if err := mm.Insert(pPaddr, data); err != nil {
				errorsList = append(errorsList, err.Error())
			}
		}
	}

	mm.SetSuppressOrganize(false)
	return mm, errorsList, warningsList, nil
}

// Save always fails: ELF writing is out of scope, and the 64-bit variant
// is likewise unimplemented.
func (f *ELF32) Save(w io.Writer, mm *memmap.MemoryMap) error {
	return utils.NewKind(utils.KindUnimplemented, "ELF writing is not supported")
}

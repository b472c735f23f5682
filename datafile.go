package memhex

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sparsehex/memhex/internal/hexcodec"
	"github.com/sparsehex/memhex/internal/memmap"
	"github.com/sparsehex/memhex/internal/utils"
)

// DataFile is a thin façade over a MemoryMap that owns format detection
// (content-based on load, extension-based on save, whenever the caller
// does not pin a format down) and the per-operation Errors/Warnings lists.
// A non-empty Errors after Load means MemoryMap may be partial but is
// still usable, per the wire-format error model.
type DataFile struct {
	MemoryMap  *memmap.MemoryMap
	FormatType FormatKind
	Errors     []string
	Warnings   []string

	// InvalidChecksumWarning demotes checksum-mismatch faults from Errors
	// to Warnings during Load.
	InvalidChecksumWarning bool
}

// NewDataFile returns an empty façade around a fresh memory map.
func NewDataFile() *DataFile {
	return &DataFile{MemoryMap: memmap.New()}
}

// Load reads a wire-format image from r into MemoryMap. If format is nil
// the wire format is chosen by content detection; otherwise format pins
// the parse. The stream is read into memory in full, since both content
// detection and the ELF loader need random access to it.
func (d *DataFile) Load(r io.Reader, format *FormatKind) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return utils.WrapKind(utils.KindUnexpectedEOF, "DataFile.Load", err)
	}
	return d.loadBytes(data, format)
}

// LoadPath opens path and loads it; format behaves as in Load.
func (d *DataFile) LoadPath(path string, format *FormatKind) error {
	//nolint:gosec // caller-provided path is intentional for a file-format library
	f, err := os.Open(path)
	if err != nil {
		return utils.WrapError("DataFile.LoadPath", err)
	}
	defer f.Close()
	return d.Load(f, format)
}

func (d *DataFile) loadBytes(data []byte, format *FormatKind) error {
	kind := hexcodec.DetectContent(data)
	if format != nil {
		kind = format.toInternal()
	}
	d.FormatType = fromInternal(kind)
	d.Errors = nil
	d.Warnings = nil

	switch kind {
	case hexcodec.KindELF:
		f := &hexcodec.ELF32{}
		mm, errs, warnings, err := f.Load(bytes.NewReader(data))
		if err != nil {
			return err
		}
		d.MemoryMap, d.Errors, d.Warnings = mm, errs, warnings
		return nil
	case hexcodec.KindRaw:
		mm := memmap.New()
		if len(data) > 0 {
			if err := mm.Insert(0, data); err != nil {
				return err
			}
		}
		d.MemoryMap = mm
		return nil
	default:
		f := hexcodec.NewFormat(kind)
		l := &hexcodec.Loader{InvalidChecksumWarning: d.InvalidChecksumWarning}
		mm, errs, warnings, err := l.Load(bytes.NewReader(data), f)
		if err != nil {
			return err
		}
		d.MemoryMap, d.Errors, d.Warnings = mm, errs, warnings
		return nil
	}
}

// Save writes MemoryMap as format to w. If format is nil, FormatType (the
// format most recently detected or set by Load) is used.
func (d *DataFile) Save(w io.Writer, format *FormatKind) error {
	kind := d.FormatType.toInternal()
	if format != nil {
		kind = format.toInternal()
	}
	if d.MemoryMap == nil {
		d.MemoryMap = memmap.New()
	}
	d.MemoryMap.Organize()

	switch kind {
	case hexcodec.KindELF:
		return utils.NewKind(utils.KindUnimplemented, "ELF writing is not supported")
	case hexcodec.KindRaw:
		return d.saveRaw(w)
	default:
		f := hexcodec.NewFormat(kind)
		if f == nil {
			return utils.NewKind(utils.KindUnimplemented, fmt.Sprintf("no writer for format %s", fromInternal(kind)))
		}
		return (&hexcodec.Saver{}).Save(w, d.MemoryMap, f)
	}
}

// SavePath creates path and saves to it; if format is nil, the wire format
// is chosen by extension detection on path.
func (d *DataFile) SavePath(path string, format *FormatKind) error {
	kind := format
	if kind == nil {
		detected := DetectExtensionFormat(filepath.Ext(path))
		kind = &detected
	}
	//nolint:gosec // caller-provided path is intentional for a file-format library
	f, err := os.Create(path)
	if err != nil {
		return utils.WrapError("DataFile.SavePath", err)
	}
	defer f.Close()
	return d.Save(f, kind)
}

func (d *DataFile) saveRaw(w io.Writer) error {
	start, ok := d.MemoryMap.StartAddress()
	if !ok {
		return nil
	}
	end, _ := d.MemoryMap.EndAddress()
	blk := d.MemoryMap.Fetch(memmap.Region{Start: start, End: end})
	_, err := w.Write(blk.Data)
	return err
}

// Summary is a read-only report over the façade's current memory map.
type Summary struct {
	FormatType      FormatKind
	BlockCount      int
	ImplementedSize uint64
	StartAddress    uint32
	EndAddress      uint32
	HasData         bool
}

// Summary reports block count, total implemented bytes and address bounds
// for the façade's current memory map, for CLI dump/load reporting.
func (d *DataFile) Summary() Summary {
	s := Summary{FormatType: d.FormatType}
	if d.MemoryMap == nil {
		return s
	}
	s.BlockCount = d.MemoryMap.BlockCount()
	s.ImplementedSize = d.MemoryMap.Size()
	if start, ok := d.MemoryMap.StartAddress(); ok {
		end, _ := d.MemoryMap.EndAddress()
		s.StartAddress = start
		s.EndAddress = end
		s.HasData = true
	}
	return s
}

package main

import (
	"fmt"
	"os"

	"github.com/sparsehex/memhex"
	"github.com/sparsehex/memhex/internal/config"
	"github.com/sparsehex/memhex/internal/memmap"
)

// resolveFormat turns a user-supplied format name (the same names the
// extension-detection table recognizes, e.g. "hex", "s19", "elf") into a
// pinned format, or nil to defer to content/extension detection.
func resolveFormat(name string) *memhex.FormatKind {
	if name == "" {
		return nil
	}
	k := memhex.DetectExtensionFormat(name)
	return &k
}

func runLoad(cfg *config.Config, path, format string) error {
	df := memhex.NewDataFile()
	df.InvalidChecksumWarning = cfg.InvalidChecksumWarning
	if err := df.LoadPath(path, resolveFormat(format)); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	df.MemoryMap.SetBlankData(cfg.BlankData)
	printSummary(os.Stdout, df)
	if len(df.Errors) > 0 {
		return fmt.Errorf("%d error(s) while loading %s", len(df.Errors), path)
	}
	return nil
}

func runDump(cfg *config.Config, path, format string) error {
	df := memhex.NewDataFile()
	df.InvalidChecksumWarning = cfg.InvalidChecksumWarning
	if err := df.LoadPath(path, resolveFormat(format)); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	df.MemoryMap.SetBlankData(cfg.BlankData)

	s := df.Summary()
	if !s.HasData {
		fmt.Println("(empty memory map)")
		return nil
	}
	blk := df.MemoryMap.Fetch(memmap.Region{Start: s.StartAddress, End: s.EndAddress})
	hexDump(os.Stdout, blk.Data, s.StartAddress)
	return nil
}

func runConvert(cfg *config.Config, inPath, outPath, fromFormat, toFormat string) error {
	df := memhex.NewDataFile()
	df.InvalidChecksumWarning = cfg.InvalidChecksumWarning
	if err := df.LoadPath(inPath, resolveFormat(fromFormat)); err != nil {
		return fmt.Errorf("loading %s: %w", inPath, err)
	}
	df.MemoryMap.SetBlankData(cfg.BlankData)
	if len(df.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d error(s) while loading %s\n", len(df.Errors), inPath)
	}
	if err := df.SavePath(outPath, resolveFormat(toFormat)); err != nil {
		return fmt.Errorf("saving %s: %w", outPath, err)
	}
	fmt.Printf("converted %s (%s) -> %s (%s)\n", inPath, df.FormatType, outPath, df.Summary().FormatType)
	return nil
}

func runVerify(cfg *config.Config, path, format string) error {
	df := memhex.NewDataFile()
	df.InvalidChecksumWarning = cfg.InvalidChecksumWarning
	if err := df.LoadPath(path, resolveFormat(format)); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	for _, w := range df.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, e := range df.Errors {
		fmt.Printf("error: %s\n", e)
	}
	if len(df.Errors) > 0 {
		return fmt.Errorf("%d error(s)", len(df.Errors))
	}
	fmt.Println("ok")
	return nil
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/sparsehex/memhex"
)

func init() {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// printSummary renders a DataFile's Summary and its errors/warnings as
// plain, line-oriented text, colorized only when attached to a terminal.
func printSummary(w io.Writer, df *memhex.DataFile) {
	s := df.Summary()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s: %s\n", bold("format"), s.FormatType)
	fmt.Fprintf(w, "%s: %d\n", bold("blocks"), s.BlockCount)
	fmt.Fprintf(w, "%s: %s\n", bold("implemented"), humanize.Bytes(s.ImplementedSize))
	if s.HasData {
		fmt.Fprintf(w, "%s: 0x%08X..0x%08X\n", bold("range"), s.StartAddress, s.EndAddress)
	}
	if len(df.Errors) > 0 {
		fmt.Fprintf(w, "%s (%d):\n", color.RedString("errors"), len(df.Errors))
		for _, e := range df.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	if len(df.Warnings) > 0 {
		fmt.Fprintf(w, "%s (%d):\n", color.YellowString("warnings"), len(df.Warnings))
		for _, msg := range df.Warnings {
			fmt.Fprintf(w, "  %s\n", msg)
		}
	}
}

// hexDump renders data as offset/hex/ASCII rows, 16 bytes per row, with
// offsets printed relative to base rather than 0.
func hexDump(w io.Writer, data []byte, base uint32) {
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		chunk := data[i:end]

		fmt.Fprintf(w, "%08x: ", base+uint32(i))
		for j := 0; j < 16; j++ {
			if j < len(chunk) {
				fmt.Fprintf(w, "%02x ", chunk[j])
			} else {
				fmt.Fprint(w, "   ")
			}
			if j == 7 {
				fmt.Fprint(w, " ")
			}
		}
		fmt.Fprint(w, " |")
		for _, b := range chunk {
			if b >= 32 && b <= 126 {
				fmt.Fprintf(w, "%c", b)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w, "|")
	}
}

// Command memhex loads, converts, inspects and verifies sparse 32-bit
// memory images in any of the wire formats the memhex library recognizes.
package main

import (
	"fmt"
	"os"

	"github.com/attic-labs/kingpin"
	"go.uber.org/zap"

	"github.com/sparsehex/memhex/internal/config"
)

var (
	app = kingpin.New("memhex", "Load, convert, inspect and verify sparse 32-bit memory images.")

	configPath = app.Flag("config", "Path to a TOML defaults file.").String()
	verbose    = app.Flag("verbose", "Enable debug logging.").Short('v').Bool()

	loadCmd    = app.Command("load", "Load a file and print a summary.")
	loadFile   = loadCmd.Arg("file", "Input file.").Required().String()
	loadFormat = loadCmd.Flag("format", "Wire format name (default: content detection).").String()

	convertCmd       = app.Command("convert", "Convert a file from one wire format to another.")
	convertIn        = convertCmd.Arg("input", "Input file.").Required().String()
	convertOut       = convertCmd.Arg("output", "Output file.").Required().String()
	convertInFormat  = convertCmd.Flag("from", "Input wire format (default: content detection).").String()
	convertOutFormat = convertCmd.Flag("to", "Output wire format (default: extension detection).").String()

	dumpCmd    = app.Command("dump", "Hex-dump the implemented contents of a file.")
	dumpFile   = dumpCmd.Arg("file", "Input file.").Required().String()
	dumpFormat = dumpCmd.Flag("format", "Wire format name (default: content detection).").String()

	verifyCmd    = app.Command("verify", "Load a file and report its errors/warnings.")
	verifyFile   = verifyCmd.Arg("file", "Input file.").Required().String()
	verifyFormat = verifyCmd.Flag("format", "Wire format name (default: content detection).").String()
)

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := newLogger(*verbose)
	defer func() { _ = logger.Sync() }()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal("loading config", zap.Error(err))
		}
		cfg = loaded
	}

	var err error
	switch cmd {
	case loadCmd.FullCommand():
		err = runLoad(cfg, *loadFile, *loadFormat)
	case convertCmd.FullCommand():
		err = runConvert(cfg, *convertIn, *convertOut, *convertInFormat, *convertOutFormat)
	case dumpCmd.FullCommand():
		err = runDump(cfg, *dumpFile, *dumpFormat)
	case verifyCmd.FullCommand():
		err = runVerify(cfg, *verifyFile, *verifyFormat)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", cmd), zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(verbose bool) *zap.Logger {
	zcfg := zap.NewDevelopmentConfig()
	if !verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/ingest"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/parse"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/pipeline"
	repo "github.com/joseph-ayodele/voter-roll-extractor/internal/repository"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// flagSet reports whether the named flag was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// forceOCRSetting prefers an explicit -force-ocr over extract.force_ocr.
func forceOCRSetting(fs *flag.FlagSet, flagVal bool, cfg *common.Config) bool {
	if flagSet(fs, "force-ocr") {
		return flagVal
	}
	return cfg.Extract.ForceOCR
}

// run returns the process exit code so deferred cleanup always runs.
func run(args []string) int {
	fs := flag.NewFlagSet("voterroll", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "optional config file (yaml/json/toml)")
		pdfPath    = fs.String("pdf", "", "input PDF (default: first *.pdf in the current directory)")
		out        = fs.String("out", "output.xlsx", "output XLSX path")
		csvOut     = fs.String("csv", "output.csv", "output CSV path (empty disables)")
		forceOCR   = fs.Bool("force-ocr", true, "always OCR pages instead of trusting the embedded text layer (default from config)")
		dpi        = fs.Int("dpi", 0, "rasterization DPI (default from config, 300)")
		workers    = fs.Int("workers", 0, "pages processed in parallel (default from config)")
		inmem      = fs.Bool("inmem", false, "track the job in an in-memory SQLite database")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		return 2
	}
	*forceOCR = forceOCRSetting(fs, *forceOCR, cfg)
	if *workers > 0 {
		cfg.Extract.Workers = *workers
	}
	logger := common.NewLogger(cfg.Log)

	if *pdfPath == "" {
		p, err := ingest.FirstPDF(".")
		if err != nil {
			printError("Error: -pdf not given and %v\n", err)
			return 2
		}
		*pdfPath = p
	}
	if _, err := os.Stat(*pdfPath); err != nil {
		printError("Error: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := server.OpenJobStore(ctx, cfg.Database, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		return 1
	}
	defer db.Close(logger)

	tx, err := server.NewTextExtractor(cfg, logger)
	if err != nil {
		logger.Error("failed to set up text extraction", "error", err)
		return 1
	}
	proc := server.NewProcessor(cfg, tx, repo.NewExtractJobRepository(db, logger), logger)

	fmt.Printf("Processing: %s\n", *pdfPath)
	res, err := proc.Convert(ctx, pipeline.Request{
		SourcePath: *pdfPath,
		ForceOCR:   *forceOCR,
		DPI:        *dpi,
		XLSXPath:   *out,
		CSVPath:    strings.TrimSpace(*csvOut),
	})
	if err != nil {
		if errors.Is(err, parse.ErrNoRecords) {
			printError("No records found. Try -force-ocr=%t or a different -dpi.\n", !*forceOCR)
		} else {
			printError("Conversion failed (job %s): %v\n", res.JobID, err)
		}
		return 1
	}

	fmt.Printf("Extracted %d records (job %s, %d migrated entries skipped)\n", len(res.Records), res.JobID, res.Migrated)
	fmt.Printf("- Excel: %s\n", res.XLSXPath)
	if res.CSVPath != "" {
		fmt.Printf("- CSV:   %s\n", res.CSVPath)
	}
	return 0
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/extract"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/parse"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional config file (yaml/json/toml)")
		forceOCR   = flag.Bool("force-ocr", true, "always OCR pages instead of trusting the embedded text layer")
		dpi        = flag.Int("dpi", 0, "rasterization DPI (default from config)")
		digits     = flag.Bool("digits", false, "print the text after Bangla digit normalization")
	)
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runocr [-force-ocr=false] [-dpi N] <file.pdf>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	tx, err := server.NewTextExtractor(cfg, logger)
	if err != nil {
		logger.Error("failed to set up text extraction", "error", err)
		os.Exit(1)
	}

	timeout := cfg.Server.ConvertTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res, err := tx.Extract(ctx, path, extract.Options{ForceOCR: *forceOCR, DPI: *dpi})
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err)
		os.Exit(1)
	}

	text := res.Text
	if *digits {
		text = parse.NormalizeDigits(text)
	}
	fmt.Println(text)

	logger.Info("text extraction OK",
		"pages", res.Pages,
		"methods", res.PageMethods,
		"bytes", len(res.Text),
		"bangla_chars", extract.CountBangla(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
}

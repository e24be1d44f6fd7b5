package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/async"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/ingest"
	repo "github.com/joseph-ayodele/voter-roll-extractor/internal/repository"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type summary struct {
	mu        sync.Mutex
	processed int
	failures  int
	records   int
}

func (s *summary) add(o async.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.Err != nil {
		s.failures++
		return
	}
	s.processed++
	s.records += len(o.Result.Records)
}

func main() {
	var (
		configPath = flag.String("config", "", "optional config file (yaml/json/toml)")
		inmem      = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir        = flag.String("dir", "", "directory of voter-roll PDFs (required)")
		out        = flag.String("out", "", "output directory for XLSX/CSV files (default: <dir>/xlsx)")
		writeCSV   = flag.Bool("csv", false, "also write a CSV next to each workbook")
		forceOCR   = flag.Bool("force-ocr", true, "always OCR pages instead of trusting the embedded text layer")
		dpi        = flag.Int("dpi", 0, "rasterization DPI (default from config)")
		workers    = flag.Int("workers", 2, "documents converted concurrently")
		reprocess  = flag.Bool("reprocess", false, "convert files whose content was already parsed in an earlier run")
		watch      = flag.Bool("watch", false, "keep running and convert PDFs as they appear under -dir")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(*dir, "xlsx")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := server.OpenJobStore(ctx, cfg.Database, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	tx, err := server.NewTextExtractor(cfg, logger)
	if err != nil {
		logger.Error("failed to set up text extraction", "error", err)
		os.Exit(1)
	}
	jobsRepo := repo.NewExtractJobRepository(db, logger)
	processor := server.NewProcessor(cfg, tx, jobsRepo, logger)

	var sum summary
	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(*workers),
		async.WithProcessTimeout(cfg.Server.ConvertTimeout),
		async.WithOutputs(func(j async.Job) (string, string) {
			base := strings.TrimSuffix(filepath.Base(j.Path), filepath.Ext(j.Path))
			xlsx := filepath.Join(*out, base+".xlsx")
			if !*writeCSV {
				return xlsx, ""
			}
			return xlsx, filepath.Join(*out, base+".csv")
		}),
		async.WithResultHandler(sum.add),
	)

	enqueue := func(path, hash string) {
		if !*reprocess {
			prev, err := jobsRepo.FindParsedByHash(ctx, hash)
			switch {
			case err == nil:
				logger.Info("skipping already converted file", "path", path, "job_id", prev.ID)
				return
			case !errors.Is(err, common.ErrNotFound):
				logger.Warn("dedup lookup failed", "path", path, "error", err)
			}
		}
		if err := queue.Enqueue(ctx, async.Job{Path: path, HashHex: hash, ForceOCR: *forceOCR, DPI: *dpi}); err != nil {
			logger.Error("failed to enqueue", "path", path, "error", err)
		}
	}

	results, stats, err := ingest.ScanDirectory(ctx, *dir, true)
	if err != nil {
		logger.Error("failed to scan directory", "error", err)
		os.Exit(1)
	}
	logger.Info("scan complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)
	for _, r := range results {
		if r.Err != "" || r.Deduplicated {
			continue
		}
		enqueue(r.Path, r.HashHex)
	}

	if *watch {
		runWatch(ctx, *dir, logger, enqueue)
	}

	queue.Shutdown(context.Background())

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- PDFs found: %d\n", stats.Matched)
	fmt.Printf("- Files processed: %d\n", sum.processed)
	fmt.Printf("- Failures: %d\n", sum.failures)
	fmt.Printf("- Records: %d\n", sum.records)
	fmt.Printf("- Output: %s\n", *out)
	if sum.failures > 0 {
		os.Exit(1)
	}
}

// runWatch converts PDFs that show up under dir until ctx is cancelled.
func runWatch(ctx context.Context, dir string, logger *slog.Logger, enqueue func(path, hash string)) {
	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{Roots: []string{dir}, Debounce: 2 * time.Second}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		return
	}
	logger.Info("watching for new PDFs", "dir", dir)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher error", "error", err)
		case p, ok := <-paths:
			if !ok {
				return
			}
			hash, _, err := ingest.HashFile(p)
			if err != nil {
				logger.Warn("cannot hash new file", "path", p, "error", err)
				continue
			}
			enqueue(p, hash)
		}
	}
}

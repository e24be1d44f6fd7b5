package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/voter-roll-extractor/constants"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/entity"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/export"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/extract"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/ingest"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/repository"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/storage"
)

// Request describes one PDF conversion.
type Request struct {
	JobID       string // generated when empty
	SourcePath  string
	ContentHash string // computed when empty
	ForceOCR    bool
	DPI         int    // 0 keeps the configured DPI
	XLSXPath    string // "" skips the workbook
	CSVPath     string // "" skips the CSV
}

type Result struct {
	JobID       string
	Records     []entity.Record
	Pages       int
	PageMethods []string
	Migrated    int
	Dropped     int
	XLSXPath    string
	CSVPath     string
	Duration    time.Duration
}

// Processor coordinates text extraction then record parsing, and writes the exports.
type Processor struct {
	Logger   *slog.Logger
	Jobs     repository.ExtractJobRepository
	Text     *TextStage
	Parse    *ParseStage
	Exporter *export.Service
}

func NewProcessor(logger *slog.Logger, jobs repository.ExtractJobRepository, text *TextStage, parse *ParseStage, exporter *export.Service) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	return &Processor{Logger: logger, Jobs: jobs, Text: text, Parse: parse, Exporter: exporter}
}

// Convert runs a PDF through the whole pipeline. The returned Result carries
// the job id even when conversion fails, so callers can look the job up.
func (p *Processor) Convert(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	if req.JobID == "" {
		req.JobID = storage.NewJobID()
	}
	res := Result{JobID: req.JobID}
	ctx = common.WithJobID(ctx, req.JobID)
	log := common.LoggerWith(ctx, p.Logger)

	if req.SourcePath == "" {
		return res, fmt.Errorf("%w: source path is required", common.ErrInvalidInput)
	}
	if req.ContentHash == "" {
		sum, _, err := ingest.HashFile(req.SourcePath)
		if err != nil {
			return res, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
		}
		req.ContentHash = sum
	}

	if _, err := p.Jobs.Start(ctx, repository.StartJobRequest{
		ID:          req.JobID,
		SourcePath:  req.SourcePath,
		ContentHash: req.ContentHash,
		Format:      constants.PDF,
		ForceOCR:    req.ForceOCR,
		DPI:         req.DPI,
	}); err != nil {
		return res, err
	}

	// 1) text stage: per-page native/OCR decision, assembled into one stream
	txt, err := p.Text.Run(ctx, req.JobID, req.SourcePath, extract.Options{ForceOCR: req.ForceOCR, DPI: req.DPI})
	if err != nil {
		log.Error("processor.text.failed", "err", err)
		return res, err
	}
	res.Pages = txt.Pages
	res.PageMethods = txt.PageMethods
	log.Info("processor.text.ok", "pages", txt.Pages, "duration_ms", txt.Duration.Milliseconds())

	// 2) parse stage: segment, extract fields, order
	parsed, err := p.Parse.Run(ctx, req.JobID, txt.Text)
	if err != nil {
		log.Error("processor.parse.failed", "err", err, "blocks", parsed.Blocks, "migrated", parsed.Migrated)
		return res, err
	}
	res.Records = parsed.Records
	res.Migrated = parsed.Migrated
	res.Dropped = parsed.Dropped

	if req.XLSXPath != "" {
		if err := p.Exporter.WriteFiles(parsed.Records, req.XLSXPath, req.CSVPath); err != nil {
			p.markFailed(ctx, req.JobID, err)
			return res, fmt.Errorf("export: %w", err)
		}
		res.XLSXPath, res.CSVPath = req.XLSXPath, req.CSVPath
	}

	res.Duration = time.Since(start)
	log.Info("processor.convert.ok",
		"records", len(res.Records),
		"migrated", res.Migrated,
		"dropped", res.Dropped,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (p *Processor) markFailed(ctx context.Context, jobID string, cause error) {
	if err := p.Jobs.FinishFailure(context.WithoutCancel(ctx), jobID, cause.Error()); err != nil {
		p.Logger.Error("failed to record job failure", "job_id", jobID, "error", err)
	}
}

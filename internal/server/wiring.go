package server

import (
	"log/slog"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/export"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/extract"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/ocr"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/parse"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/pdf"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/pipeline"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/repository"
)

func OCRConfig(cfg *common.Config) ocr.Config {
	return ocr.Config{
		Pdfinfo:       cfg.OCR.Pdfinfo,
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		Engine:        cfg.OCR.Engine,
		TesseractLang: cfg.OCR.Lang,
		DPI:           cfg.OCR.DPI,
		TessdataDir:   cfg.OCR.TessdataDir,
		PSM:           cfg.OCR.PSM,
		OEM:           cfg.OCR.OEM,
		PageTimeout:   cfg.OCR.PageTimeout,
	}.WithDefaults()
}

// NewTextExtractor builds the PDF opener, OCR engine, and page assembler from config.
func NewTextExtractor(cfg *common.Config, logger *slog.Logger) (*extract.PDFExtractor, error) {
	oc := OCRConfig(cfg)
	engine, err := ocr.NewEngine(oc, logger)
	if err != nil {
		return nil, err
	}
	pages := extract.NewPageExtractor(extract.PageExtractorConfig{
		DPI:         oc.DPI,
		Lang:        oc.TesseractLang,
		PageTimeout: oc.PageTimeout,
		Garble:      extract.NewGarbleDetector(cfg.Extract.MinBanglaChars, cfg.Extract.GarbleMarker),
	}, engine, logger)
	asm := extract.NewAssembler(pages, logger, extract.WithWorkers(cfg.Extract.Workers))
	opener := pdf.NewPoppler(oc, ocr.ExecRunner{}, logger)
	return extract.NewPDFExtractor(opener, asm, logger), nil
}

// NewProcessor wires both pipeline stages around jobs.
func NewProcessor(cfg *common.Config, tx extract.TextExtractor, jobs repository.ExtractJobRepository, logger *slog.Logger) *pipeline.Processor {
	parser := parse.NewParser(parse.Options{RequireVoterNumber: cfg.Parse.RequireVoterNumber}, logger)
	return pipeline.NewProcessor(logger, jobs,
		pipeline.NewTextStage(jobs, tx, logger),
		pipeline.NewParseStage(jobs, parser, logger),
		export.NewService(logger),
	)
}

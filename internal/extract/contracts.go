package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/pdf"
)

// TextExtractor is Stage 1: file -> raw text stream.
type TextExtractor interface {
	Extract(ctx context.Context, path string, opts Options) (TextExtractionResult, error)
}

// Options are per-document overrides.
type Options struct {
	ForceOCR bool
	DPI      int // 0 keeps the configured DPI
}

type TextExtractionResult struct {
	Text        string
	Pages       int
	PageMethods []string // one of MethodNative | MethodOCR | MethodOCRFallback per page
	Duration    time.Duration
}

// PDFExtractor opens a file and assembles its text.
type PDFExtractor struct {
	opener    pdf.Opener
	assembler *Assembler
	logger    *slog.Logger
}

func NewPDFExtractor(opener pdf.Opener, assembler *Assembler, logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{opener: opener, assembler: assembler, logger: logger}
}

func (e *PDFExtractor) Extract(ctx context.Context, path string, opts Options) (TextExtractionResult, error) {
	doc, err := e.opener.Open(ctx, path)
	if err != nil {
		return TextExtractionResult{}, err
	}
	asm, err := e.assembler.WithDPI(opts.DPI).Assemble(ctx, doc, opts.ForceOCR)
	if err != nil {
		return TextExtractionResult{}, err
	}
	return TextExtractionResult{
		Text:        asm.Text,
		Pages:       doc.NumPages(),
		PageMethods: asm.Methods(),
		Duration:    asm.Duration,
	}, nil
}

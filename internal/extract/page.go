package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/ocr"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/pdf"
)

const (
	MethodNative      = "pdf-text"
	MethodOCR         = "pdf-ocr"
	MethodOCRFallback = "pdf-ocr-fallback"
)

// PageText is the text produced for one page and how it was obtained.
type PageText struct {
	Index  int
	Text   string
	Method string
}

// PageError is a terminal rasterize or recognition failure for one page.
type PageError struct {
	Page int // 0-based
	Op   string
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s: %v", e.Page+1, e.Op, e.Err)
}

func (e *PageError) Unwrap() []error { return []error{common.ErrExtraction, e.Err} }

type PageExtractorConfig struct {
	DPI         int
	Lang        string
	PageTimeout time.Duration
	Garble      GarbleDetector
}

// PageExtractor picks between the native text layer and OCR for a single page.
type PageExtractor struct {
	cfg    PageExtractorConfig
	engine ocr.Engine
	logger *slog.Logger
}

func NewPageExtractor(cfg PageExtractorConfig, engine ocr.Engine, logger *slog.Logger) *PageExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.Lang == "" {
		cfg.Lang = ocr.LangBengali
	}
	cfg.Garble = NewGarbleDetector(cfg.Garble.MinBanglaChars, cfg.Garble.Marker)
	return &PageExtractor{cfg: cfg, engine: engine, logger: logger}
}

// WithDPI returns a copy rasterizing at dpi. Non-positive values keep the current DPI.
func (x *PageExtractor) WithDPI(dpi int) *PageExtractor {
	if dpi <= 0 || dpi == x.cfg.DPI {
		return x
	}
	cp := *x
	cp.cfg.DPI = dpi
	return &cp
}

func (x *PageExtractor) DPI() int { return x.cfg.DPI }

// ExtractPage returns text for page. With forceOCR the page is always
// rasterized and recognized; otherwise the native text layer is tried first
// and OCR is used only when the garble detector rejects it.
func (x *PageExtractor) ExtractPage(ctx context.Context, page pdf.Page, index int, forceOCR bool) (PageText, error) {
	if forceOCR {
		text, err := x.recognize(ctx, page, index)
		if err != nil {
			return PageText{}, err
		}
		return PageText{Index: index, Text: text, Method: MethodOCR}, nil
	}

	native, err := page.NativeText(ctx)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return PageText{}, &PageError{Page: index, Op: "native text", Err: ctx.Err()}
		}
		x.logger.Warn("native text extraction failed, falling back to OCR", "page", index+1, "error", err)
	case x.cfg.Garble.Usable(native):
		return PageText{Index: index, Text: native, Method: MethodNative}, nil
	default:
		x.logger.Debug("native text unusable, falling back to OCR",
			"page", index+1, "bangla_chars", CountBangla(native), "bytes", len(native))
	}

	text, err := x.recognize(ctx, page, index)
	if err != nil {
		return PageText{}, err
	}
	return PageText{Index: index, Text: text, Method: MethodOCRFallback}, nil
}

func (x *PageExtractor) recognize(ctx context.Context, page pdf.Page, index int) (string, error) {
	if x.engine == nil {
		return "", &PageError{Page: index, Op: "ocr", Err: ocr.ErrEngineUnavailable}
	}
	if x.cfg.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.cfg.PageTimeout)
		defer cancel()
	}

	start := time.Now()
	img, err := page.Rasterize(ctx, x.cfg.DPI)
	if err != nil {
		return "", &PageError{Page: index, Op: "rasterize", Err: err}
	}
	text, err := x.engine.Recognize(ctx, img, x.cfg.Lang)
	if err != nil {
		return "", &PageError{Page: index, Op: "ocr", Err: err}
	}
	x.logger.Debug("page recognized",
		"page", index+1,
		"engine", x.engine.Name(),
		"dpi", x.cfg.DPI,
		"chars", len([]rune(text)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

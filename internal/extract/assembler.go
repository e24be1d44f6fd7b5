package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/ocr"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/pdf"
)

// Assembly is the raw text stream of a document plus per-page provenance.
type Assembly struct {
	Text     string
	Pages    []PageText
	Duration time.Duration
}

// Methods lists the extraction method of every page in page order.
func (a Assembly) Methods() []string {
	out := make([]string, len(a.Pages))
	for i, p := range a.Pages {
		out[i] = p.Method
	}
	return out
}

// Assembler runs the page extractor over every page of a document.
type Assembler struct {
	pages     *PageExtractor
	workers   int
	normalize bool
	logger    *slog.Logger
}

type AssemblerOption func(*Assembler)

// WithWorkers extracts up to n pages concurrently. Output order is unchanged.
func WithWorkers(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithNormalize cleans whitespace noise in each page before joining.
func WithNormalize(on bool) AssemblerOption {
	return func(a *Assembler) { a.normalize = on }
}

func NewAssembler(pages *PageExtractor, logger *slog.Logger, opts ...AssemblerOption) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Assembler{pages: pages, workers: 1, normalize: true, logger: logger}
	for _, o := range opts {
		o(a)
	}
	return a
}

// WithDPI returns a copy whose pages are rasterized at dpi.
func (a *Assembler) WithDPI(dpi int) *Assembler {
	pages := a.pages.WithDPI(dpi)
	if pages == a.pages {
		return a
	}
	cp := *a
	cp.pages = pages
	return &cp
}

// Assemble extracts every page and joins the results with "\n" in page order.
// The first page failure aborts the document.
func (a *Assembler) Assemble(ctx context.Context, doc pdf.Document, forceOCR bool) (Assembly, error) {
	start := time.Now()
	n := doc.NumPages()
	if n == 0 {
		return Assembly{}, pdf.ErrEmptyDocument
	}

	results := make([]PageText, n)
	extractOne := func(ctx context.Context, i int) error {
		page, err := doc.Page(i)
		if err != nil {
			return &PageError{Page: i, Op: "open page", Err: err}
		}
		pt, err := a.pages.ExtractPage(ctx, page, i, forceOCR)
		if err != nil {
			return err
		}
		if a.normalize {
			pt.Text = ocr.Normalize(pt.Text)
		}
		results[i] = pt
		return nil
	}

	if a.workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return Assembly{}, err
			}
			if err := extractOne(ctx, i); err != nil {
				return Assembly{}, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.workers)
		for i := 0; i < n; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return extractOne(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return Assembly{}, err
		}
	}

	texts := make([]string, n)
	for i, pt := range results {
		texts[i] = pt.Text
	}
	asm := Assembly{
		Text:     strings.Join(texts, "\n"),
		Pages:    results,
		Duration: time.Since(start),
	}
	a.logger.Info("document assembled",
		"path", doc.Path(),
		"pages", n,
		"force_ocr", forceOCR,
		"workers", a.workers,
		"methods", summarizeMethods(asm.Methods()),
		"duration_ms", asm.Duration.Milliseconds(),
	)
	return asm, nil
}

func summarizeMethods(methods []string) string {
	counts := map[string]int{}
	var order []string
	for _, m := range methods {
		if counts[m] == 0 {
			order = append(order, m)
		}
		counts[m]++
	}
	parts := make([]string, len(order))
	for i, m := range order {
		parts[i] = fmt.Sprintf("%s=%d", m, counts[m])
	}
	return strings.Join(parts, ",")
}

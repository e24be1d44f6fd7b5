package pdf

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/ocr"
)

// Poppler opens documents with the poppler-utils binaries (pdfinfo, pdftotext, pdftoppm).
type Poppler struct {
	cfg    ocr.Config
	runner ocr.Runner
	logger *slog.Logger
}

func NewPoppler(cfg ocr.Config, runner ocr.Runner, logger *slog.Logger) *Poppler {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.ExecRunner{}
	}
	return &Poppler{cfg: cfg.WithDefaults(), runner: runner, logger: logger}
}

func (p *Poppler) Open(ctx context.Context, path string) (Document, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("open pdf: %s is a directory", path)
	}

	out, _, err := p.runner.Run(ctx, p.cfg.Pdfinfo, p.logger, path)
	if err != nil {
		return nil, fmt.Errorf("pdfinfo: %w", err)
	}
	n, err := parsePageCount(out)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmptyDocument
	}
	p.logger.Debug("opened pdf", "path", path, "pages", n)
	return &popplerDoc{p: p, path: path, pages: n}, nil
}

// parsePageCount reads the "Pages:" line from pdfinfo output.
func parsePageCount(out []byte) (int, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		v := strings.TrimSpace(strings.TrimPrefix(line, "Pages:"))
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("pdfinfo: bad page count %q: %w", v, err)
		}
		return n, nil
	}
	return 0, errors.New("pdfinfo: no page count in output")
}

type popplerDoc struct {
	p     *Poppler
	path  string
	pages int
}

func (d *popplerDoc) Path() string  { return d.path }
func (d *popplerDoc) NumPages() int { return d.pages }

func (d *popplerDoc) Page(i int) (Page, error) {
	if i < 0 || i >= d.pages {
		return nil, fmt.Errorf("%w: %d (pages=%d)", ErrPageRange, i, d.pages)
	}
	return &popplerPage{doc: d, index: i}, nil
}

type popplerPage struct {
	doc   *popplerDoc
	index int
}

func (pg *popplerPage) Index() int { return pg.index }

// poppler page numbers are 1-based
func (pg *popplerPage) number() string { return strconv.Itoa(pg.index + 1) }

func (pg *popplerPage) NativeText(ctx context.Context) (string, error) {
	p := pg.doc.p
	// pdftotext -f N -l N -enc UTF-8 -eol unix <path> -
	// No -layout: side-by-side entries must come out in reading order.
	out, _, err := p.runner.Run(ctx, p.cfg.Pdftotext, p.logger,
		"-f", pg.number(), "-l", pg.number(),
		"-enc", "UTF-8", "-eol", "unix",
		pg.doc.path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return strings.TrimRight(string(out), "\f"), nil
}

func (pg *popplerPage) Rasterize(ctx context.Context, dpi int) (ocr.Image, error) {
	p := pg.doc.p
	if dpi <= 0 {
		dpi = p.cfg.DPI
	}
	tmpDir, err := os.MkdirTemp(p.cfg.TempDir, "vr-pp-*")
	if err != nil {
		return ocr.Image{}, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			p.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f N -l N -r DPI -png -singlefile <in.pdf> <tmp/page>
	if _, _, err := p.runner.Run(ctx, p.cfg.Pdftoppm, p.logger,
		"-f", pg.number(), "-l", pg.number(),
		"-r", strconv.Itoa(dpi), "-png", "-singlefile",
		pg.doc.path, prefix); err != nil {
		return ocr.Image{}, fmt.Errorf("pdftoppm: %w", err)
	}

	data, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return ocr.Image{}, fmt.Errorf("pdftoppm produced no image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ocr.Image{}, fmt.Errorf("decode rendered page: %w", err)
	}
	return ocr.Image{Data: data, Width: cfg.Width, Height: cfg.Height, DPI: dpi}, nil
}

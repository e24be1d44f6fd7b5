//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/otiai10/gosseract/v2"
)

// Gosseract runs tesseract in-process through libtesseract. Build with -tags ocr.
type Gosseract struct {
	cfg    Config
	logger *slog.Logger
}

func NewGosseract(cfg Config, logger *slog.Logger) (*Gosseract, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gosseract{cfg: cfg.WithDefaults(), logger: logger}, nil
}

func (g *Gosseract) Name() string { return "gosseract" }

// Recognize creates a client per call; gosseract clients are not safe for concurrent use.
func (g *Gosseract) Recognize(ctx context.Context, img Image, lang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if lang == "" {
		lang = g.cfg.TesseractLang
	}

	c := gosseract.NewClient()
	defer func() {
		if err := c.Close(); err != nil {
			g.logger.Warn("failed to close gosseract client", "error", err)
		}
	}()

	if g.cfg.TessdataDir != "" {
		if err := c.SetTessdataPrefix(g.cfg.TessdataDir); err != nil {
			return "", fmt.Errorf("%w: tessdata prefix: %v", ErrEngineUnavailable, err)
		}
	}
	if err := c.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("%w: set language %q: %v", ErrEngineUnavailable, lang, err)
	}
	if g.cfg.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(g.cfg.PSM)); err != nil {
			return "", fmt.Errorf("set psm: %w", err)
		}
	}
	if img.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(img.DPI)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetImageFromBytes(img.Data); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	// libtesseract cannot be interrupted; the result is discarded when ctx is done.
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := c.Text()
		done <- result{text: text, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("recognize text: %w", r.err)
		}
		return r.text, nil
	}
}

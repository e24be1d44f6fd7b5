package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// LangBengali is the tesseract traineddata used for voter rolls.
const LangBengali = "ben"

const (
	EngineCLI       = "cli"
	EngineGosseract = "gosseract"
)

// ErrEngineUnavailable is returned when the configured recognizer cannot run at all.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

type Config struct {
	Pdfinfo   string // binary name or absolute path; if empty -> "pdfinfo"
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Engine        string // EngineCLI (default) | EngineGosseract
	TesseractLang string // default "ben"
	DPI           int    // rasterization DPI, default 300
	TessdataDir   string

	PSM int // e.g., 6 is good for uniform block of text; 0 leaves tesseract's default
	OEM int // 1 = LSTM; leave 0 to use default

	// PageTimeout bounds one page's rasterize+recognize. Zero disables it.
	PageTimeout time.Duration
	TempDir     string
}

// WithDefaults fills every unset field.
func (c Config) WithDefaults() Config {
	if c.Pdfinfo == "" {
		c.Pdfinfo = "pdfinfo"
	}
	if c.Pdftotext == "" {
		c.Pdftotext = "pdftotext"
	}
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Engine == "" {
		c.Engine = EngineCLI
	}
	if c.TesseractLang == "" {
		c.TesseractLang = LangBengali
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	return c
}

// Image is a rasterized page. Data holds PNG bytes.
type Image struct {
	Data   []byte
	Width  int
	Height int
	DPI    int
}

// Engine recognizes text in a page image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img Image, lang string) (string, error)
}

// NewEngine builds the engine named by cfg.Engine.
func NewEngine(cfg Config, logger *slog.Logger) (Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.WithDefaults()
	switch cfg.Engine {
	case EngineCLI:
		return NewTesseractCLI(cfg, ExecRunner{}, logger), nil
	case EngineGosseract:
		g, err := NewGosseract(cfg, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q (want %q or %q)", cfg.Engine, EngineCLI, EngineGosseract)
	}
}

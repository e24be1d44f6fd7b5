package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
)

// TesseractCLI shells out to the tesseract binary, one process per page.
type TesseractCLI struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseractCLI(cfg Config, runner Runner, logger *slog.Logger) *TesseractCLI {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &TesseractCLI{cfg: cfg.WithDefaults(), runner: runner, logger: logger}
}

func (t *TesseractCLI) Name() string { return "tesseract-cli" }

func (t *TesseractCLI) Recognize(ctx context.Context, img Image, lang string) (string, error) {
	if len(img.Data) == 0 {
		return "", errors.New("tesseract: empty image")
	}
	if lang == "" {
		lang = t.cfg.TesseractLang
	}

	f, err := os.CreateTemp(t.cfg.TempDir, "vr-page-*.png")
	if err != nil {
		return "", fmt.Errorf("tesseract: temp image: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			t.logger.Warn("failed to remove temp page image", "path", path, "error", err)
		}
	}()
	if _, err := f.Write(img.Data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("tesseract: write temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("tesseract: close temp image: %w", err)
	}

	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", lang}
	if img.DPI > 0 {
		args = append(args, "--dpi", strconv.Itoa(img.DPI))
	}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}

	out, _, err := t.runner.Run(ctx, t.cfg.Tesseract, t.logger, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

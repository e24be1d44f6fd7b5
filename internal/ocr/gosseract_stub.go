//go:build !ocr

package ocr

import (
	"context"
	"fmt"
	"log/slog"
)

// Gosseract is the stub used when the "ocr" build tag is not set.
// Rebuild with -tags ocr (libtesseract + leptonica headers required) to enable it.
type Gosseract struct{}

func NewGosseract(_ Config, _ *slog.Logger) (*Gosseract, error) {
	return nil, fmt.Errorf("%w: gosseract support not compiled in; rebuild with -tags ocr or use engine %q", ErrEngineUnavailable, EngineCLI)
}

func (*Gosseract) Name() string { return "gosseract" }

func (*Gosseract) Recognize(context.Context, Image, string) (string, error) {
	return "", ErrEngineUnavailable
}

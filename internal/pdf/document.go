// Package pdf exposes a voter-roll PDF as a sequence of pages that can yield
// their embedded text layer or a rendered image.
package pdf

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/ocr"
)

var (
	ErrEmptyDocument = errors.New("pdf has no pages")
	ErrPageRange     = errors.New("page index out of range")
)

// Document is an opened PDF. Pages are 0-indexed.
type Document interface {
	Path() string
	NumPages() int
	Page(i int) (Page, error)
}

// Page is a single page of a Document.
type Page interface {
	Index() int
	// NativeText returns the embedded text layer. An empty string means the page has none.
	NativeText(ctx context.Context) (string, error)
	// Rasterize renders the page as PNG at the given DPI.
	Rasterize(ctx context.Context, dpi int) (ocr.Image, error)
}

// Opener opens a document from a path on disk.
type Opener interface {
	Open(ctx context.Context, path string) (Document, error)
}

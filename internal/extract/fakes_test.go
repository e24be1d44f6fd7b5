package extract

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/ocr"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/pdf"
)

type fakePage struct {
	index     int
	native    string
	nativeErr error
	rastErr   error
	block     bool // wait for ctx cancellation before rendering
}

func (p *fakePage) Index() int { return p.index }

func (p *fakePage) NativeText(context.Context) (string, error) {
	return p.native, p.nativeErr
}

func (p *fakePage) Rasterize(ctx context.Context, dpi int) (ocr.Image, error) {
	if p.block {
		<-ctx.Done()
	}
	if err := ctx.Err(); err != nil {
		return ocr.Image{}, err
	}
	if p.rastErr != nil {
		return ocr.Image{}, p.rastErr
	}
	// the fake engine reads the page index back out of the image bytes
	return ocr.Image{Data: []byte(strconv.Itoa(p.index)), Width: 1, Height: 1, DPI: dpi}, nil
}

type fakeDoc struct {
	pages []*fakePage
}

func (d *fakeDoc) Path() string  { return "roll.pdf" }
func (d *fakeDoc) NumPages() int { return len(d.pages) }

func (d *fakeDoc) Page(i int) (pdf.Page, error) {
	if i < 0 || i >= len(d.pages) {
		return nil, pdf.ErrPageRange
	}
	return d.pages[i], nil
}

// fakeEngine returns a fixed text per page index.
type fakeEngine struct {
	mu    sync.Mutex
	texts map[int]string
	fail  map[int]error
	calls int
	dpis  []int
	langs []string
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Recognize(_ context.Context, img ocr.Image, lang string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.dpis = append(e.dpis, img.DPI)
	e.langs = append(e.langs, lang)
	i, err := strconv.Atoi(string(img.Data))
	if err != nil {
		return "", errors.New("bad image")
	}
	if err := e.fail[i]; err != nil {
		return "", err
	}
	if t, ok := e.texts[i]; ok {
		return t, nil
	}
	return fmt.Sprintf("ocr page %d", i), nil
}

type fakeOpener struct {
	doc pdf.Document
	err error
}

func (o fakeOpener) Open(context.Context, string) (pdf.Document, error) {
	return o.doc, o.err
}

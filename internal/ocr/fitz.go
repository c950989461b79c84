package ocr

import (
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// FitzRasterizer renders pages with MuPDF through go-fitz
type FitzRasterizer struct {
	DPI float64
}

// NewFitzRasterizer creates a rasterizer rendering at dpi
func NewFitzRasterizer(dpi float64) *FitzRasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &FitzRasterizer{DPI: dpi}
}

func (r *FitzRasterizer) Open(path string) (PageImages, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf for rendering: %w", err)
	}
	return &fitzPages{doc: doc, dpi: r.DPI}, nil
}

type fitzPages struct {
	mu  sync.Mutex
	doc *fitz.Document
	dpi float64
}

func (p *fitzPages) NumPage() int {
	return p.doc.NumPage()
}

// Render is serialized; MuPDF contexts are not shared across goroutines.
func (p *fitzPages) Render(n int) (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	img, err := p.doc.ImageDPI(n-1, p.dpi)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (p *fitzPages) Close() error {
	return p.doc.Close()
}

// Package ocr rasterizes PDF pages and recognizes their text with tesseract.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Recognition languages
var (
	LangEnglish        = []string{"eng"}
	LangEnglishChinese = []string{"eng", "chi_sim"}
)

var (
	// ErrOCRUnavailable no usable OCR engine
	ErrOCRUnavailable = errors.New("ocr engine unavailable")

	// ErrOCREmptyResult no page yielded any text
	ErrOCREmptyResult = errors.New("ocr recognized no text")

	// ErrOCRFailed rasterization or recognition of a page failed
	ErrOCRFailed = errors.New("ocr failed")
)

// PageError ties a failure to a page number (1-based)
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("ocr page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

func (e *PageError) Is(target error) bool {
	return target == ErrOCRFailed
}

// Config is passed to NewRecognizer; zero values get defaults.
type Config struct {
	// TesseractPath binary name or path, default "tesseract"
	TesseractPath string

	// DPI used to rasterize pages, default 300
	DPI float64

	// Concurrency pages processed at once, default 1
	Concurrency int

	// TempDir for per-page images, default os.TempDir()
	TempDir string
}

const (
	DefaultTesseractPath = "tesseract"
	DefaultDPI           = 300.0
)

func (c Config) withDefaults() Config {
	if c.TesseractPath == "" {
		c.TesseractPath = DefaultTesseractPath
	}
	if c.DPI <= 0 {
		c.DPI = DefaultDPI
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	return c
}

// Rasterizer opens a PDF for page rendering
type Rasterizer interface {
	Open(path string) (PageImages, error)
}

// PageImages renders pages of an opened PDF
type PageImages interface {
	NumPage() int

	// Render renders page n, 1-based
	Render(n int) (image.Image, error)

	Close() error
}

// Engine recognizes text in a single image file
type Engine interface {
	// Available reports nil when the engine can be used
	Available(ctx context.Context) error

	Recognize(ctx context.Context, imagePath string, langs []string) (string, error)
}

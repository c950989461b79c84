package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Recognizer turns PDF pages into text
type Recognizer struct {
	cfg        Config
	rasterizer Rasterizer
	engine     Engine
	logger     *zap.Logger

	availMu      sync.Mutex
	availChecked bool
	availErr     error
}

// availTimeout 单次引擎探测的超时，与调用方的 context 无关
const availTimeout = 10 * time.Second

// Option configures a Recognizer
type Option func(*Recognizer)

// WithRasterizer replaces the go-fitz rasterizer
func WithRasterizer(r Rasterizer) Option {
	return func(rec *Recognizer) { rec.rasterizer = r }
}

// WithEngine replaces the tesseract engine
func WithEngine(e Engine) Option {
	return func(rec *Recognizer) { rec.engine = e }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(rec *Recognizer) {
		if l != nil {
			rec.logger = l
		}
	}
}

// NewRecognizer creates a Recognizer. The engine is probed on first use.
func NewRecognizer(cfg Config, opts ...Option) *Recognizer {
	cfg = cfg.withDefaults()
	rec := &Recognizer{
		cfg:        cfg,
		rasterizer: NewFitzRasterizer(cfg.DPI),
		engine:     NewTesseract(cfg.TesseractPath),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(rec)
	}
	return rec
}

// Available reports whether OCR can run. Only a definite answer is
// cached; a cancelled caller or a timed-out check is retried next time.
func (r *Recognizer) Available(ctx context.Context) error {
	r.availMu.Lock()
	defer r.availMu.Unlock()

	if r.availChecked {
		return r.availErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), availTimeout)
	defer cancel()

	err := r.engine.Available(checkCtx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		r.logger.Warn("ocr engine check interrupted", zap.Error(err))
		return err
	}

	r.availChecked = true
	r.availErr = err
	if err != nil {
		r.logger.Warn("ocr engine unavailable", zap.Error(err))
	}
	return err
}

// Recognize runs English recognition over every page. Non-blank page
// texts are concatenated, each followed by a blank line.
func (r *Recognizer) Recognize(ctx context.Context, path string) (string, error) {
	pages, err := r.RecognizePages(ctx, path, LangEnglish)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, text := range pages {
		if strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrOCREmptyResult
	}
	return sb.String(), nil
}

// RecognizePages returns the raw recognized text of every page in page order
func (r *Recognizer) RecognizePages(ctx context.Context, path string, langs []string) ([]string, error) {
	if err := r.Available(ctx); err != nil {
		return nil, err
	}

	doc, err := r.rasterizer.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOCRFailed, err)
	}
	defer doc.Close()

	total := doc.NumPage()
	r.logger.Info("starting ocr",
		zap.String("file", filepath.Base(path)),
		zap.Int("pages", total),
		zap.Strings("langs", langs))

	results := make([]string, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for i := 0; i < total; i++ {
		page := i + 1
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.logger.Info("ocr page", zap.Int("page", page), zap.Int("total", total))

			text, err := r.recognizePage(gctx, doc, page, langs)
			if err != nil {
				return &PageError{Page: page, Err: err}
			}
			results[page-1] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// recognizePage renders one page to a temp PNG, recognizes it and
// removes the image before returning.
func (r *Recognizer) recognizePage(ctx context.Context, doc PageImages, page int, langs []string) (string, error) {
	img, err := doc.Render(page)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}

	imagePath, err := writePNG(r.cfg.TempDir, img)
	if err != nil {
		return "", err
	}
	defer os.Remove(imagePath)

	return r.engine.Recognize(ctx, imagePath, langs)
}

func writePNG(dir string, img image.Image) (string, error) {
	f, err := os.CreateTemp(dir, "ocr-page-*.png")
	if err != nil {
		return "", fmt.Errorf("create page image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("encode page image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

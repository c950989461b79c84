package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry 格式处理器注册表
// 按格式标签分发提取和写出，新增格式只需注册一个处理器
type Registry struct {
	mu         sync.RWMutex
	extractors map[Format]Extractor
	writers    map[Format]Writer
	logger     *zap.Logger
}

// RegistryOptions 注册表选项
type RegistryOptions struct {
	// PDF 逐页文本来源，为空时使用 ledongthuc/pdf
	PDF PDFOpener

	// OCR 没有文本层时的回退，可为空
	OCR OCRFallback

	// FontPaths PDF 写出时尝试的字体
	FontPaths []string

	// NormalizeMarkdown 写出 md 前是否规范化
	NormalizeMarkdown bool

	Logger *zap.Logger
}

// NewRegistry 创建注册表并注册内置处理器
func NewRegistry(opts RegistryOptions) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pdfOpener := opts.PDF
	if pdfOpener == nil {
		pdfOpener = NewPDFReader()
	}

	r := &Registry{
		extractors: make(map[Format]Extractor),
		writers:    make(map[Format]Writer),
		logger:     logger,
	}

	raw := NewRawTextExtractor()
	r.RegisterExtractor(FormatHTML, raw)
	r.RegisterExtractor(FormatMarkdown, raw)
	r.RegisterExtractor(FormatDOCX, NewDocxExtractor())
	r.RegisterExtractor(FormatEPUB, NewEPUBExtractor(logger))
	r.RegisterExtractor(FormatPDF, NewPDFExtractor(pdfOpener, opts.OCR, logger))

	plain := NewTextWriter(logger)
	r.RegisterWriter(FormatHTML, plain)
	r.RegisterWriter(FormatText, plain)
	r.RegisterWriter(FormatMarkdown, NewMarkdownWriter(opts.NormalizeMarkdown, logger))
	r.RegisterWriter(FormatDOCX, NewDocxWriter())
	r.RegisterWriter(FormatPDF, NewPDFWriter(opts.FontPaths, logger))
	r.RegisterWriter(FormatEPUB, NewEPUBWriter(logger))

	return r
}

// RegisterExtractor 注册提取器，已存在时覆盖
func (r *Registry) RegisterExtractor(format Format, extractor Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[format] = extractor
}

// RegisterWriter 注册写出器，已存在时覆盖
func (r *Registry) RegisterWriter(format Format, writer Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writers[format] = writer
}

// Extract 按格式提取文本
// 格式不在支持集合内时直接返回 ErrUnsupportedFormat，不会读取文件
func (r *Registry) Extract(ctx context.Context, doc Document) (string, error) {
	if !doc.Format.IsInput() {
		return "", UnsupportedFormatError(doc.Format, inputFormats)
	}

	r.mu.RLock()
	extractor, exists := r.extractors[doc.Format]
	r.mu.RUnlock()
	if !exists {
		return "", UnsupportedFormatError(doc.Format, inputFormats)
	}

	r.logger.Info("extracting text",
		zap.String("file", filepath.Base(doc.Path)),
		zap.String("format", doc.Format.String()))

	text, err := extractor.Extract(ctx, doc)
	if err != nil {
		return "", err
	}

	r.logger.Info("text extracted",
		zap.String("file", filepath.Base(doc.Path)),
		zap.Int("length", len(text)))
	return text, nil
}

// Write 按格式写出文件，返回实际写入的路径
func (r *Registry) Write(ctx context.Context, req WriteRequest) (string, error) {
	if !req.Format.IsOutput() {
		return "", UnsupportedFormatError(req.Format, outputFormats)
	}

	r.mu.RLock()
	writer, exists := r.writers[req.Format]
	r.mu.RUnlock()
	if !exists {
		return "", UnsupportedFormatError(req.Format, outputFormats)
	}

	if err := os.MkdirAll(filepath.Dir(req.Path), 0o755); err != nil {
		return "", &WriteError{Format: req.Format, Path: req.Path, Err: err}
	}

	r.logger.Info("writing output",
		zap.String("path", req.Path),
		zap.String("format", req.Format.String()))

	written, err := writer.Write(ctx, req)
	if err != nil {
		var writeErr *WriteError
		if errors.As(err, &writeErr) {
			return "", err
		}
		return "", &WriteError{Format: req.Format, Path: req.Path, Err: err}
	}
	return written, nil
}

// Formats 返回已注册提取器的格式，按名称排序
func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]Format, 0, len(r.extractors))
	for format := range r.extractors {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// String 便于日志输出
func (r *Registry) String() string {
	return fmt.Sprintf("document.Registry%v", r.Formats())
}

package document

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// PDFExtractor PDF 文本提取器
// 文本层为空时交给 OCR 回退
type PDFExtractor struct {
	opener PDFOpener
	ocr    OCRFallback
	logger *zap.Logger
}

// NewPDFExtractor 创建 PDF 提取器，ocr 可以为空
func NewPDFExtractor(opener PDFOpener, ocr OCRFallback, logger *zap.Logger) *PDFExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFExtractor{opener: opener, ocr: ocr, logger: logger}
}

// Extract 逐页提取文本，非空页文本后追加换行
func (e *PDFExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	pages, err := e.opener.OpenPDF(doc.Path)
	if err != nil {
		return "", &ExtractionError{Format: FormatPDF, Path: doc.Path, Err: err}
	}
	defer pages.Close()

	total := pages.NumPage()
	if total == 0 {
		return "", &ExtractionError{Format: FormatPDF, Path: doc.Path, Err: ErrNoPages}
	}

	var sb strings.Builder
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := pages.PageText(n)
		if err != nil {
			return "", &ExtractionError{Format: FormatPDF, Path: doc.Path, Page: n, Err: err}
		}
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}

	if strings.TrimSpace(sb.String()) != "" {
		return sb.String(), nil
	}

	e.logger.Info("pdf has no text layer, falling back to OCR",
		zap.String("path", doc.Path),
		zap.Int("pages", total))

	if e.ocr == nil {
		return "", &ExtractionError{Format: FormatPDF, Path: doc.Path, Err: ErrOCRNotConfigured}
	}
	return e.ocr.Recognize(ctx, doc.Path)
}

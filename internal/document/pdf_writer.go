package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// PDF 版式参数，单位 pt
const (
	pdfMargin   = 72.0
	pdfFontSize = 12.0
	pdfLeading  = 14.0
	pdfSpacer   = 12.0
	pdfFontName = "cjk"
)

// DefaultFontPaths 常见的 CJK 字体位置
var DefaultFontPaths = []string{
	"/usr/share/fonts/truetype/wqy/wqy-microhei.ttc",
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
	"/System/Library/Fonts/PingFang.ttc",
	"C:/Windows/Fonts/simhei.ttf",
	"C:/Windows/Fonts/simsun.ttc",
	"C:/Windows/Fonts/msyh.ttc",
}

// PDFRenderFunc 把文本排版到 path
type PDFRenderFunc func(text, path string) error

// PDFWriter PDF 写出器
// 排版或校验失败时写出同名 .txt，并返回该路径
type PDFWriter struct {
	fontPaths []string
	logger    *zap.Logger
	render    PDFRenderFunc
	validate  func(path string) error
}

// NewPDFWriter 创建 PDF 写出器，fontPaths 为空时使用 DefaultFontPaths
func NewPDFWriter(fontPaths []string, logger *zap.Logger) *PDFWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fontPaths) == 0 {
		fontPaths = DefaultFontPaths
	}
	w := &PDFWriter{fontPaths: fontPaths, logger: logger, validate: validatePDF}
	w.render = w.renderFPDF
	return w
}

// WithRenderer 替换排版实现
func (w *PDFWriter) WithRenderer(render PDFRenderFunc) *PDFWriter {
	w.render = render
	return w
}

// Write 写出 PDF，失败时回退为文本文件
func (w *PDFWriter) Write(ctx context.Context, req WriteRequest) (string, error) {
	err := w.renderSafely(req.Text, req.Path)
	if err == nil {
		err = w.validate(req.Path)
	}
	if err == nil {
		return req.Path, nil
	}

	w.logger.Error("pdf generation failed, falling back to plain text",
		zap.String("path", req.Path), zap.Error(err))
	os.Remove(req.Path)

	txtPath := strings.TrimSuffix(req.Path, filepath.Ext(req.Path)) + ".txt"
	if err := os.WriteFile(txtPath, []byte(req.Text), 0o644); err != nil {
		return "", &WriteError{Format: FormatPDF, Path: txtPath, Err: err}
	}
	return txtPath, nil
}

func (w *PDFWriter) renderSafely(text, path string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf renderer panic: %v", rec)
		}
	}()
	return w.render(text, path)
}

// renderFPDF A4 流式排版，每个非空行一段，段后留白
func (w *PDFWriter) renderFPDF(text, path string) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)

	translate := w.setFont(pdf)
	pdf.AddPage()

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pdf.MultiCell(0, pdfLeading, translate(line), "", "L", false)
		pdf.Ln(pdfSpacer)
	}

	return pdf.OutputFileAndClose(path)
}

// setFont 依次尝试可用的 CJK 字体，都不可用时使用 Helvetica
func (w *PDFWriter) setFont(pdf *fpdf.Fpdf) func(string) string {
	for _, fontPath := range w.fontPaths {
		if _, err := os.Stat(fontPath); err != nil {
			continue
		}
		pdf.AddUTF8Font(pdfFontName, "", fontPath)
		if err := pdf.Error(); err != nil {
			w.logger.Debug("font rejected", zap.String("font", fontPath), zap.Error(err))
			pdf.ClearError()
			continue
		}
		pdf.SetFont(pdfFontName, "", pdfFontSize)
		w.logger.Debug("using font", zap.String("font", fontPath))
		return func(s string) string { return s }
	}

	w.logger.Warn("no CJK font found, using Helvetica")
	pdf.SetFont("Helvetica", "", pdfFontSize)
	return pdf.UnicodeTranslatorFromDescriptor("")
}

// validatePDF 使用 pdfcpu 校验生成的文件
func validatePDF(path string) error {
	if err := api.ValidateFile(path, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("validate pdf: %w", err)
	}
	return nil
}

// Package markdown 将 PDF 文本整理为带页标记、标题和列表的 Markdown
package markdown

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nerdneilsfield/go-doc-translator/internal/document"
	"github.com/nerdneilsfield/go-doc-translator/internal/ocr"
	"go.uber.org/zap"
)

// ErrNoTextExtracted 所有页面都没有得到文本
var ErrNoTextExtracted = errors.New("no text extracted")

// 直接提取路径下标题的最大长度
const maxHeadingLength = 100

// PageRecognizer 逐页 OCR
type PageRecognizer interface {
	RecognizePages(ctx context.Context, path string, langs []string) ([]string, error)
}

// Structurer PDF 到 Markdown 的转换器
type Structurer struct {
	pdf    document.PDFOpener
	ocr    PageRecognizer
	logger *zap.Logger
}

// NewStructurer 创建转换器，recognizer 可以为空
func NewStructurer(pdf document.PDFOpener, recognizer PageRecognizer, logger *zap.Logger) *Structurer {
	if pdf == nil {
		pdf = document.NewPDFReader()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Structurer{pdf: pdf, ocr: recognizer, logger: logger}
}

// source 页面文本来源，决定标题和列表的判定规则
type source int

const (
	sourceDirect source = iota
	sourceOCR
)

// ToMarkdown 转换 PDF
// 只要有一页能直接提取到文本就整篇走直接路径，全部为空时才整篇 OCR
func (s *Structurer) ToMarkdown(ctx context.Context, path string) (string, error) {
	s.logger.Info("converting pdf to markdown", zap.String("file", filepath.Base(path)))

	pages, err := s.readPages(path)
	if err != nil {
		return "", err
	}

	src := sourceOCR
	for _, text := range pages {
		if strings.TrimSpace(text) != "" {
			src = sourceDirect
			break
		}
	}

	if src == sourceOCR {
		s.logger.Info("no text layer found, using OCR", zap.Int("pages", len(pages)))
		if s.ocr == nil {
			return "", ocr.ErrOCRUnavailable
		}
		pages, err = s.ocr.RecognizePages(ctx, path, ocr.LangEnglishChinese)
		if err != nil {
			return "", err
		}
	}

	var fragments []string
	for i, text := range pages {
		page := i + 1
		if strings.TrimSpace(text) == "" {
			s.logger.Warn("page has no text, skipping", zap.Int("page", page))
			continue
		}
		s.logger.Debug("structuring page", zap.Int("page", page))
		fragments = append(fragments, structurePage(page, text, src)...)
	}

	content := strings.Join(fragments, "\n")
	if strings.TrimSpace(content) == "" {
		return "", ErrNoTextExtracted
	}

	s.logger.Info("markdown conversion finished", zap.Int("length", len(content)))
	return content, nil
}

// readPages 读取每一页的直接文本
func (s *Structurer) readPages(path string) ([]string, error) {
	pdf, err := s.pdf.OpenPDF(path)
	if err != nil {
		return nil, &document.ExtractionError{Format: document.FormatPDF, Path: path, Err: err}
	}
	defer pdf.Close()

	total := pdf.NumPage()
	if total == 0 {
		return nil, &document.ExtractionError{Format: document.FormatPDF, Path: path, Err: document.ErrNoPages}
	}

	pages := make([]string, total)
	for n := 1; n <= total; n++ {
		text, err := pdf.PageText(n)
		if err != nil {
			return nil, &document.ExtractionError{Format: document.FormatPDF, Path: path, Page: n, Err: err}
		}
		pages[n-1] = text
	}
	return pages, nil
}

// structurePage 生成一页的片段：页标记、逐行分类、段后空行
func structurePage(page int, text string, src source) []string {
	fragments := []string{fmt.Sprintf("\n## Page %d\n", page)}

	for _, paragraph := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}
		for _, line := range strings.Split(paragraph, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			fragments = append(fragments, classifyLine(line, src))
		}
		fragments = append(fragments, "\n")
	}
	return fragments
}

func classifyLine(line string, src source) string {
	if isHeading(line, src) {
		return "\n### " + line + "\n"
	}
	if isListItem(line, src) {
		_, size := utf8.DecodeRuneInString(line)
		return "- " + strings.TrimSpace(line[size:])
	}
	return line
}

func isHeading(line string, src source) bool {
	if src == sourceOCR {
		return isUpper(line) || strings.HasPrefix(line, "#")
	}
	return isUpper(line) && utf8.RuneCountInString(line) < maxHeadingLength
}

func isListItem(line string, src source) bool {
	first, _ := utf8.DecodeRuneInString(line)
	switch first {
	case '•', '-', '*', '○':
		return true
	case '>':
		return src == sourceOCR
	}
	return false
}

// isUpper 至少有一个区分大小写的字符，且没有小写或首字母大写形式的字符
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	epub "github.com/go-shiori/go-epub"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

const (
	epubSectionTitle = "Content"
	epubSectionFile  = "content.xhtml"
)

// EPUBWriter 单章节 EPUB 写出器
type EPUBWriter struct {
	md     goldmark.Markdown
	logger *zap.Logger
}

// NewEPUBWriter 创建 EPUB 写出器
func NewEPUBWriter(logger *zap.Logger) *EPUBWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	md := goldmark.New(
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	return &EPUBWriter{md: md, logger: logger}
}

// Write 正文放在 content.xhtml 中，有原始文件时尽量复制其元数据
func (w *EPUBWriter) Write(ctx context.Context, req WriteRequest) (string, error) {
	book, err := epub.NewEpub(epubSectionTitle)
	if err != nil {
		return "", &WriteError{Format: FormatEPUB, Path: req.Path, Err: err}
	}

	if req.Original != "" {
		w.copyMetadata(book, req.Original)
	}

	body, err := w.renderBody(req.Text)
	if err != nil {
		return "", &WriteError{Format: FormatEPUB, Path: req.Path, Err: err}
	}

	if _, err := book.AddSection(body, epubSectionTitle, epubSectionFile, ""); err != nil {
		return "", &WriteError{Format: FormatEPUB, Path: req.Path, Err: err}
	}

	if err := book.Write(req.Path); err != nil {
		return "", &WriteError{Format: FormatEPUB, Path: req.Path, Err: err}
	}
	return req.Path, nil
}

// markupEscaper 译文中的尖括号按字面显示，不作为 HTML 解释
var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func (w *EPUBWriter) renderBody(text string) (string, error) {
	var buf bytes.Buffer
	if err := w.md.Convert([]byte(markupEscaper.Replace(text)), &buf); err != nil {
		return "", fmt.Errorf("render epub body: %w", err)
	}
	return buf.String(), nil
}

// copyMetadata 复制原书的元数据，失败只记录警告
func (w *EPUBWriter) copyMetadata(book *epub.Epub, original string) {
	meta, err := readEPUBMetadata(original)
	if err != nil {
		w.logger.Warn("failed to copy epub metadata",
			zap.String("original", original), zap.Error(err))
		return
	}

	if meta.Title != "" {
		book.SetTitle(meta.Title)
	}
	if meta.Creator != "" {
		book.SetAuthor(meta.Creator)
	}
	if meta.Language != "" {
		book.SetLang(meta.Language)
	}
	if meta.Identifier != "" {
		book.SetIdentifier(meta.Identifier)
	}
	if meta.Description != "" {
		book.SetDescription(meta.Description)
	}
}

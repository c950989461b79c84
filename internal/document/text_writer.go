package document

import (
	"context"
	"os"

	"github.com/Kunde21/markdownfmt/v3"
	"github.com/Kunde21/markdownfmt/v3/markdown"
	"go.uber.org/zap"
)

// TextWriter 原样写出文本，用于 html 和 txt
type TextWriter struct {
	logger *zap.Logger
}

// NewTextWriter 创建文本写出器
func NewTextWriter(logger *zap.Logger) *TextWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextWriter{logger: logger}
}

// Write 以 UTF-8 写出文本
func (w *TextWriter) Write(ctx context.Context, req WriteRequest) (string, error) {
	if err := os.WriteFile(req.Path, []byte(req.Text), 0o644); err != nil {
		return "", &WriteError{Format: req.Format, Path: req.Path, Err: err}
	}
	w.logger.Debug("text file written", zap.String("path", req.Path), zap.Int("size", len(req.Text)))
	return req.Path, nil
}

// MarkdownWriter Markdown 写出器，可选规范化
type MarkdownWriter struct {
	normalize bool
	logger    *zap.Logger
}

// NewMarkdownWriter 创建 Markdown 写出器
func NewMarkdownWriter(normalize bool, logger *zap.Logger) *MarkdownWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkdownWriter{normalize: normalize, logger: logger}
}

// Write 写出 Markdown，规范化失败时写出原文
func (w *MarkdownWriter) Write(ctx context.Context, req WriteRequest) (string, error) {
	content := []byte(req.Text)
	if w.normalize {
		content = w.format(req.Path, content)
	}
	if err := os.WriteFile(req.Path, content, 0o644); err != nil {
		return "", &WriteError{Format: FormatMarkdown, Path: req.Path, Err: err}
	}
	return req.Path, nil
}

func (w *MarkdownWriter) format(path string, content []byte) []byte {
	opts := []markdown.Option{
		markdown.WithCodeFormatters(markdown.GoCodeFormatter),
	}
	res, err := markdownfmt.Process("", content, opts...)
	if err != nil {
		w.logger.Warn("markdown normalization failed, writing verbatim",
			zap.String("path", path), zap.Error(err))
		return content
	}
	w.logger.Debug("markdown normalized",
		zap.String("path", path),
		zap.Int("before", len(content)),
		zap.Int("after", len(res)))
	return res
}

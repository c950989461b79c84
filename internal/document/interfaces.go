package document

import (
	"context"
)

// Extractor 文本提取器接口
// 负责把一种格式的源文件转换为纯文本
type Extractor interface {
	// Extract 提取文档的全部文本
	Extract(ctx context.Context, doc Document) (string, error)
}

// Writer 文件写出器接口
type Writer interface {
	// Write 写出文件，返回实际写入的路径
	Write(ctx context.Context, req WriteRequest) (string, error)
}

// WriteRequest 写出请求
type WriteRequest struct {
	// Text 要写出的文本
	Text string

	// Format 目标格式
	Format Format

	// Path 目标路径
	Path string

	// Original 原始源文件路径，可为空；EPUB 写出时用于复制元数据
	Original string
}

// OCRFallback 没有文本层的 PDF 使用的识别回退
type OCRFallback interface {
	// Recognize 对整个 PDF 进行识别并返回拼接后的文本
	Recognize(ctx context.Context, path string) (string, error)
}

// PDFOpener 打开 PDF 并逐页提供文本
type PDFOpener interface {
	OpenPDF(path string) (PDFPages, error)
}

// PDFPages 已打开的 PDF
type PDFPages interface {
	// NumPage 页数
	NumPage() int

	// PageText 第 n 页的文本，n 从 1 开始
	PageText(n int) (string, error)

	// Close 释放底层文件
	Close() error
}

// ExtractorFunc 函数适配器
type ExtractorFunc func(ctx context.Context, doc Document) (string, error)

// Extract 实现 Extractor
func (f ExtractorFunc) Extract(ctx context.Context, doc Document) (string, error) {
	return f(ctx, doc)
}

// WriterFunc 函数适配器
type WriterFunc func(ctx context.Context, req WriteRequest) (string, error)

// Write 实现 Writer
func (f WriterFunc) Write(ctx context.Context, req WriteRequest) (string, error) {
	return f(ctx, req)
}

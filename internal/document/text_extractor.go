package document

import (
	"context"
	"os"
)

// RawTextExtractor 直接读取文本内容，用于 html 和 md
type RawTextExtractor struct{}

// NewRawTextExtractor 创建原样读取的提取器
func NewRawTextExtractor() *RawTextExtractor {
	return &RawTextExtractor{}
}

// Extract 读取文件字节作为文本，不做任何转换
func (e *RawTextExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return "", &ExtractionError{Format: doc.Format, Path: doc.Path, Err: err}
	}
	return string(data), nil
}

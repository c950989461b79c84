package document

import (
	"errors"
	"fmt"
	"path/filepath"
)

// 预定义错误
var (
	// ErrUnsupportedFormat 格式不在支持的集合内
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtraction 格式解析器拒绝了文件
	ErrExtraction = errors.New("extraction failed")

	// ErrWrite 输出文件写入失败
	ErrWrite = errors.New("write failed")

	// ErrNoPages PDF 没有任何页面
	ErrNoPages = errors.New("pdf has no pages")

	// ErrOCRNotConfigured PDF 没有文本层且未配置 OCR
	ErrOCRNotConfigured = errors.New("pdf has no text layer and no OCR fallback is configured")
)

// UnsupportedFormatError 创建带支持列表的格式错误
func UnsupportedFormatError(format Format, supported []Format) error {
	return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, string(format), joinFormats(supported))
}

// ExtractionError 提取错误，带页码或条目上下文
type ExtractionError struct {
	Format Format
	Path   string
	Page   int    // PDF 页码，从 1 开始，0 表示无
	Item   string // EPUB 条目等
	Err    error
}

// Error 实现error接口
func (e *ExtractionError) Error() string {
	name := filepath.Base(e.Path)
	switch {
	case e.Page > 0:
		return fmt.Sprintf("cannot extract text from %s file %q, page %d: %v", e.Format, name, e.Page, e.Err)
	case e.Item != "":
		return fmt.Sprintf("cannot extract text from %s file %q, item %q: %v", e.Format, name, e.Item, e.Err)
	default:
		return fmt.Sprintf("cannot extract text from %s file %q: %v", e.Format, name, e.Err)
	}
}

// Unwrap 返回原因错误
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrExtraction) 成立
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// WriteError 写入错误
type WriteError struct {
	Format Format
	Path   string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write %s file %q: %v", e.Format, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}

// Package document 负责文档格式的识别、文本提取和结果文件的写出
package document

import (
	"path/filepath"
	"strings"
)

// Format 文档格式类型
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
	FormatMarkdown Format = "md"
	FormatEPUB     Format = "epub"
	FormatText     Format = "txt"
	FormatUnknown  Format = "unknown"
)

// inputFormats 可提取的输入格式
var inputFormats = []Format{FormatPDF, FormatHTML, FormatDOCX, FormatMarkdown, FormatEPUB}

// outputFormats 可写出的输出格式
var outputFormats = []Format{FormatHTML, FormatMarkdown, FormatText, FormatDOCX, FormatPDF, FormatEPUB}

// InputFormats 返回支持的输入格式
func InputFormats() []Format {
	return append([]Format(nil), inputFormats...)
}

// OutputFormats 返回支持的输出格式
func OutputFormats() []Format {
	return append([]Format(nil), outputFormats...)
}

// ParseFormat 根据扩展名解析格式，不区分大小写，允许带点号
func ParseFormat(ext string) (Format, bool) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	switch Format(ext) {
	case FormatPDF, FormatHTML, FormatDOCX, FormatMarkdown, FormatEPUB, FormatText:
		return Format(ext), true
	}
	return FormatUnknown, false
}

// FormatFromPath 根据文件路径的扩展名获取格式
func FormatFromPath(path string) Format {
	format, _ := ParseFormat(filepath.Ext(path))
	return format
}

// IsInput 是否为支持的输入格式
func (f Format) IsInput() bool {
	return containsFormat(inputFormats, f)
}

// IsOutput 是否为支持的输出格式
func (f Format) IsOutput() bool {
	return containsFormat(outputFormats, f)
}

func (f Format) String() string {
	return string(f)
}

func containsFormat(list []Format, f Format) bool {
	for _, candidate := range list {
		if candidate == f {
			return true
		}
	}
	return false
}

func joinFormats(list []Format) string {
	names := make([]string, len(list))
	for i, f := range list {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Document 待处理的源文档，读取后不可变
type Document struct {
	// Path 源文件路径
	Path string

	// Format 声明的格式
	Format Format
}

// NewDocument 根据路径创建文档，格式由扩展名决定
func NewDocument(path string) Document {
	return Document{Path: path, Format: FormatFromPath(path)}
}

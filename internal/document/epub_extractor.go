package document

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// EPUBExtractor EPUB 文本提取器
// 按清单声明顺序遍历正文文档，去掉标记后拼接
type EPUBExtractor struct {
	logger *zap.Logger
}

// NewEPUBExtractor 创建 EPUB 提取器
func NewEPUBExtractor(logger *zap.Logger) *EPUBExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EPUBExtractor{logger: logger}
}

// Extract 每个文档的文本后追加一个换行
func (e *EPUBExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	archive, err := openEPUB(doc.Path)
	if err != nil {
		return "", &ExtractionError{Format: FormatEPUB, Path: doc.Path, Err: err}
	}
	defer archive.Close()

	var sb strings.Builder
	for _, item := range archive.pkg.Manifest.Items {
		if !item.IsDocument() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		content, err := archive.ReadItem(item)
		if err != nil {
			return "", &ExtractionError{Format: FormatEPUB, Path: doc.Path, Item: item.Href, Err: err}
		}

		page, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
		if err != nil {
			return "", &ExtractionError{Format: FormatEPUB, Path: doc.Path, Item: item.Href, Err: err}
		}

		e.logger.Debug("epub item extracted",
			zap.String("item", item.Href),
			zap.Int("bytes", len(content)))

		sb.WriteString(page.Text())
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

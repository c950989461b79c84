package document

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// PDFReader 基于 ledongthuc/pdf 的 PDFOpener 实现
type PDFReader struct{}

// NewPDFReader 创建默认的 PDF 读取器
func NewPDFReader() *PDFReader {
	return &PDFReader{}
}

// OpenPDF 打开 PDF 文件
// 解析器在畸形输入上可能 panic，这里统一转换为错误
func (r *PDFReader) OpenPDF(path string) (pages PDFPages, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("open pdf: %v", rec)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &pdfPages{file: f, reader: reader}, nil
}

type pdfPages struct {
	file   *os.File
	reader *pdf.Reader
}

func (p *pdfPages) NumPage() int {
	return p.reader.NumPage()
}

// PageText 返回第 n 页的纯文本，空页返回空串
func (p *pdfPages) PageText(n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("read page %d: %v", n, rec)
		}
	}()

	page := p.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (p *pdfPages) Close() error {
	return p.file.Close()
}

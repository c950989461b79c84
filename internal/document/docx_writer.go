package document

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// DocxWriter writes text as a minimal WordprocessingML package
type DocxWriter struct{}

// NewDocxWriter creates a new DOCX writer
func NewDocxWriter() *DocxWriter {
	return &DocxWriter{}
}

// Write emits one paragraph per non-blank line, in order
func (w *DocxWriter) Write(ctx context.Context, req WriteRequest) (string, error) {
	var paragraphs []string
	for _, line := range strings.Split(req.Text, "\n") {
		if strings.TrimSpace(line) != "" {
			paragraphs = append(paragraphs, line)
		}
	}

	f, err := os.Create(req.Path)
	if err != nil {
		return "", &WriteError{Format: FormatDOCX, Path: req.Path, Err: err}
	}

	if err := writeDocxPackage(f, paragraphs); err != nil {
		f.Close()
		os.Remove(req.Path)
		return "", &WriteError{Format: FormatDOCX, Path: req.Path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &WriteError{Format: FormatDOCX, Path: req.Path, Err: err}
	}
	return req.Path, nil
}

func writeDocxPackage(out io.Writer, paragraphs []string) error {
	zw := zip.NewWriter(out)

	parts := []struct {
		name string
		v    interface{}
	}{
		{"[Content_Types].xml", defaultContentTypes()},
		{"_rels/.rels", defaultPackageRels()},
		{docxDocumentPart, NewWordDocument(paragraphs)},
	}

	for _, part := range parts {
		fw, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := io.WriteString(fw, xml.Header); err != nil {
			return err
		}
		if err := xml.NewEncoder(fw).Encode(part.v); err != nil {
			return fmt.Errorf("encode %s: %w", part.name, err)
		}
	}

	return zw.Close()
}

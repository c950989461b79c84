package document

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxDocumentPart = "word/document.xml"

// DocxExtractor extracts paragraph-level text from DOCX files
type DocxExtractor struct{}

// NewDocxExtractor creates a new DOCX extractor
func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{}
}

// Extract returns the body paragraphs joined by newlines.
// Tables, images and styling are discarded.
func (e *DocxExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	r, err := zip.OpenReader(doc.Path)
	if err != nil {
		return "", &ExtractionError{Format: FormatDOCX, Path: doc.Path, Err: err}
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == docxDocumentPart {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", &ExtractionError{
			Format: FormatDOCX,
			Path:   doc.Path,
			Err:    fmt.Errorf("%s not found in archive", docxDocumentPart),
		}
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", &ExtractionError{Format: FormatDOCX, Path: doc.Path, Err: err}
	}
	defer rc.Close()

	paragraphs, err := readDocxParagraphs(rc)
	if err != nil {
		return "", &ExtractionError{Format: FormatDOCX, Path: doc.Path, Err: err}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// readDocxParagraphs walks document.xml and returns the text of every
// paragraph that is a direct child of w:body, in document order.
// Only runs directly under the paragraph (or under a hyperlink in it) count,
// so text boxes and table cells are skipped.
func readDocxParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var (
		stack      []string
		paragraphs []string
		current    strings.Builder
		pIndex     = -1
	)

	// runChild reports whether the element at the top of the stack is a
	// child of a run that belongs to the open body-level paragraph.
	runChild := func() bool {
		if pIndex < 0 {
			return false
		}
		n := len(stack)
		switch {
		case n == pIndex+3:
			return stack[pIndex+1] == "r"
		case n == pIndex+4:
			return stack[pIndex+1] == "hyperlink" && stack[pIndex+2] == "r"
		}
		return false
	}

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", docxDocumentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			switch t.Name.Local {
			case "p":
				if pIndex < 0 && len(stack) >= 2 && stack[len(stack)-2] == "body" {
					pIndex = len(stack) - 1
					current.Reset()
				}
			case "tab":
				if runChild() {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if runChild() {
					current.WriteByte('\n')
				}
			}

		case xml.CharData:
			if len(stack) > 0 && stack[len(stack)-1] == "t" && runChild() {
				current.Write(t)
			}

		case xml.EndElement:
			if t.Name.Local == "p" && pIndex == len(stack)-1 {
				paragraphs = append(paragraphs, current.String())
				pIndex = -1
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	return paragraphs, nil
}

package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
            xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <w:body>
    <w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Annual Report</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Hello </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>world</w:t></w:r></w:p>
    <w:p/>
    <w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell text</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
    <w:p><w:r><w:t>Col1</w:t><w:tab/><w:t>Col2</w:t><w:br/><w:t>Next</w:t></w:r></w:p>
    <w:p><w:r><w:t>See </w:t></w:r><w:hyperlink r:id="rId5"><w:r><w:t>the site</w:t></w:r></w:hyperlink></w:p>
    <w:sectPr/>
  </w:body>
</w:document>`

func TestDocxExtractor(t *testing.T) {
	dir := t.TempDir()

	t.Run("BodyParagraphs", func(t *testing.T) {
		path := filepath.Join(dir, "report.docx")
		writeZip(t, path, zipEntry{"word/document.xml", testDocumentXML})

		text, err := NewDocxExtractor().Extract(context.Background(), NewDocument(path))
		require.NoError(t, err)
		assert.Equal(t, "Annual Report\nHello world\n\nCol1\tCol2\nNext\nSee the site", text)
		assert.NotContains(t, text, "cell text")
	})

	t.Run("MissingDocumentPart", func(t *testing.T) {
		path := filepath.Join(dir, "empty.docx")
		writeZip(t, path, zipEntry{"word/styles.xml", "<styles/>"})

		_, err := NewDocxExtractor().Extract(context.Background(), NewDocument(path))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrExtraction))
	})

	t.Run("NotAZip", func(t *testing.T) {
		path := filepath.Join(dir, "bogus.docx")
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))
		_, err := NewDocxExtractor().Extract(context.Background(), NewDocument(path))
		assert.True(t, errors.Is(err, ErrExtraction))
	})
}

func TestDocxWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.docx")
	text := "第一行\n\n   \nSecond <line> & more\nThird"

	written, err := NewDocxWriter().Write(context.Background(), WriteRequest{Text: text, Format: FormatDOCX, Path: path})
	require.NoError(t, err)
	assert.Equal(t, path, written)

	got, err := NewDocxExtractor().Extract(context.Background(), NewDocument(path))
	require.NoError(t, err)
	assert.Equal(t, "第一行\nSecond <line> & more\nThird", got)
}

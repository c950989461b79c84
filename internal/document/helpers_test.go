package document

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type zipEntry struct {
	name    string
	content string
}

func writeZip(t *testing.T, path string, entries ...zipEntry) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

const testContainerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
    <dc:creator>Jane Doe</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="bookid">urn:uuid:1234</dc:identifier>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="c1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
    <item id="c2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="c1"/>
    <itemref idref="c2"/>
  </spine>
</package>`

func writeTestEPUB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "book.epub")
	writeZip(t, path,
		zipEntry{"mimetype", "application/epub+zip"},
		zipEntry{"META-INF/container.xml", testContainerXML},
		zipEntry{"OEBPS/content.opf", testOPF},
		zipEntry{"OEBPS/nav.xhtml", `<html><body><nav>Table of contents</nav></body></html>`},
		zipEntry{"OEBPS/text/ch1.xhtml", `<html><body><h1>Chapter One</h1><p>First <b>bold</b> line.</p></body></html>`},
		zipEntry{"OEBPS/style.css", `body { color: black; }`},
		zipEntry{"OEBPS/text/ch2.xhtml", `<html><body><p>Second chapter.</p></body></html>`},
	)
	return path
}

// stubPages 固定页文本的 PDFPages
type stubPages struct {
	pages   []string
	failAt  int
	closed  bool
	pageErr error
}

func (s *stubPages) NumPage() int { return len(s.pages) }

func (s *stubPages) PageText(n int) (string, error) {
	if n == s.failAt {
		return "", s.pageErr
	}
	return s.pages[n-1], nil
}

func (s *stubPages) Close() error {
	s.closed = true
	return nil
}

type stubOpener struct {
	pages *stubPages
	err   error
}

func (o *stubOpener) OpenPDF(path string) (PDFPages, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.pages, nil
}

type stubOCR struct {
	text  string
	err   error
	calls int
}

func (o *stubOCR) Recognize(ctx context.Context, path string) (string, error) {
	o.calls++
	return o.text, o.err
}

var errBrokenPage = errors.New("broken content stream")

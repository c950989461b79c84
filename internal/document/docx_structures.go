package document

import (
	"encoding/xml"
)

// DOCX XML Namespaces
const (
	WordprocessingMLNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	RelationshipsNamespace    = "http://schemas.openxmlformats.org/package/2006/relationships"
	ContentTypesNamespace     = "http://schemas.openxmlformats.org/package/2006/content-types"
	OfficeDocumentRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
)

// WordDocument represents the main document.xml structure.
// Element names carry the w: prefix literally so the marshalled output
// matches what Word itself writes.
type WordDocument struct {
	XMLName xml.Name `xml:"w:document"`
	XMLNSW  string   `xml:"xmlns:w,attr"`
	Body    Body     `xml:"w:body"`
}

// Body represents the document body
type Body struct {
	Paragraphs []Paragraph `xml:"w:p"`
}

// Paragraph represents a paragraph element
type Paragraph struct {
	Runs []Run `xml:"w:r"`
}

// Run represents a text run
type Run struct {
	Text *Text `xml:"w:t"`
}

// Text represents actual text content
type Text struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Text  string `xml:",chardata"`
}

// ContentTypes represents [Content_Types].xml
type ContentTypes struct {
	XMLName   xml.Name       `xml:"Types"`
	XMLNS     string         `xml:"xmlns,attr"`
	Defaults  []DefaultType  `xml:"Default"`
	Overrides []OverrideType `xml:"Override"`
}

// DefaultType maps an extension to a content type
type DefaultType struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// OverrideType maps a part name to a content type
type OverrideType struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Relationships represents a .rels part
type Relationships struct {
	XMLName       xml.Name       `xml:"Relationships"`
	XMLNS         string         `xml:"xmlns,attr"`
	Relationships []Relationship `xml:"Relationship"`
}

// Relationship represents a single relationship
type Relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

// NewWordDocument builds a document with one paragraph per entry
func NewWordDocument(paragraphs []string) *WordDocument {
	doc := &WordDocument{XMLNSW: WordprocessingMLNamespace}
	doc.Body.Paragraphs = make([]Paragraph, 0, len(paragraphs))
	for _, text := range paragraphs {
		doc.Body.Paragraphs = append(doc.Body.Paragraphs, Paragraph{
			Runs: []Run{{Text: &Text{Space: "preserve", Text: text}}},
		})
	}
	return doc
}

// defaultContentTypes returns the content types of a minimal package
func defaultContentTypes() *ContentTypes {
	return &ContentTypes{
		XMLNS: ContentTypesNamespace,
		Defaults: []DefaultType{
			{Extension: "rels", ContentType: "application/vnd.openxmlformats-package.relationships+xml"},
			{Extension: "xml", ContentType: "application/xml"},
		},
		Overrides: []OverrideType{
			{
				PartName:    "/word/document.xml",
				ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml",
			},
		},
	}
}

// defaultPackageRels returns _rels/.rels pointing at word/document.xml
func defaultPackageRels() *Relationships {
	return &Relationships{
		XMLNS: RelationshipsNamespace,
		Relationships: []Relationship{
			{ID: "rId1", Type: OfficeDocumentRelType, Target: "word/document.xml"},
		},
	}
}

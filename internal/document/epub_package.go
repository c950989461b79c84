package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

// Package OPF 包文档
type Package struct {
	XMLName  xml.Name `xml:"package"`
	Metadata Metadata `xml:"metadata"`
	Manifest Manifest `xml:"manifest"`
	Spine    Spine    `xml:"spine"`
}

// Manifest 资源清单
type Manifest struct {
	Items []ManifestItem `xml:"item"`
}

// ManifestItem 清单项
type ManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// Spine 阅读顺序
type Spine struct {
	ItemRefs []SpineItemRef `xml:"itemref"`
}

// SpineItemRef 阅读顺序引用
type SpineItemRef struct {
	IDRef string `xml:"idref,attr"`
}

// Metadata Dublin Core 元数据
type Metadata struct {
	Title       string `xml:"title"`
	Creator     string `xml:"creator"`
	Language    string `xml:"language"`
	Identifier  string `xml:"identifier"`
	Description string `xml:"description"`
}

// IsDocument 是否为正文文档（排除导航文档）
func (item ManifestItem) IsDocument() bool {
	switch item.MediaType {
	case "application/xhtml+xml", "text/html":
	default:
		return false
	}
	for _, prop := range strings.Fields(item.Properties) {
		if prop == "nav" {
			return false
		}
	}
	return true
}

// epubArchive 打开的 EPUB 包
type epubArchive struct {
	zip     *zip.ReadCloser
	opfPath string
	pkg     Package
}

// openEPUB 打开 EPUB 并解析 OPF
func openEPUB(filePath string) (*epubArchive, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}

	opfPath, err := findOPFPath(&zr.Reader)
	if err != nil {
		zr.Close()
		return nil, err
	}

	content, err := readZipFile(&zr.Reader, opfPath)
	if err != nil {
		zr.Close()
		return nil, err
	}

	var pkg Package
	if err := xml.Unmarshal(content, &pkg); err != nil {
		zr.Close()
		return nil, fmt.Errorf("parse %s: %w", opfPath, err)
	}

	return &epubArchive{zip: zr, opfPath: opfPath, pkg: pkg}, nil
}

// Close 关闭底层文件
func (a *epubArchive) Close() error {
	return a.zip.Close()
}

// ReadItem 读取清单项内容，href 相对于 OPF 所在目录
// href 是 URL 形式，先做百分号解码，解码失败时按原样使用
func (a *epubArchive) ReadItem(item ManifestItem) ([]byte, error) {
	href := item.Href
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	name := path.Join(path.Dir(a.opfPath), href)
	return readZipFile(&a.zip.Reader, name)
}

// readEPUBMetadata 只读取元数据
func readEPUBMetadata(filePath string) (Metadata, error) {
	archive, err := openEPUB(filePath)
	if err != nil {
		return Metadata{}, err
	}
	defer archive.Close()
	return archive.pkg.Metadata, nil
}

func findOPFPath(zipReader *zip.Reader) (string, error) {
	// 首先查找 META-INF/container.xml
	for _, file := range zipReader.File {
		if file.Name != "META-INF/container.xml" {
			continue
		}
		reader, err := file.Open()
		if err != nil {
			return "", err
		}
		defer reader.Close()

		var container struct {
			Rootfiles struct {
				Rootfile struct {
					FullPath string `xml:"full-path,attr"`
				} `xml:"rootfile"`
			} `xml:"rootfiles"`
		}
		if err := xml.NewDecoder(reader).Decode(&container); err != nil {
			return "", fmt.Errorf("parse container.xml: %w", err)
		}
		if container.Rootfiles.Rootfile.FullPath != "" {
			return container.Rootfiles.Rootfile.FullPath, nil
		}
		break
	}

	// 没有 container.xml 时查找 *.opf
	for _, file := range zipReader.File {
		if strings.HasSuffix(file.Name, ".opf") {
			return file.Name, nil
		}
	}

	return "", fmt.Errorf("OPF file not found")
}

func readZipFile(zipReader *zip.Reader, name string) ([]byte, error) {
	for _, file := range zipReader.File {
		if file.Name == name {
			reader, err := file.Open()
			if err != nil {
				return nil, err
			}
			defer reader.Close()

			return io.ReadAll(reader)
		}
	}
	return nil, fmt.Errorf("file not found: %s", name)
}

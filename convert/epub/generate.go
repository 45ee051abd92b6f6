package epub

import (
	"bytes"
	"fmt"

	"github.com/beevik/etree"

	"pdf2epub/book"
)

type metadata struct {
	id       string
	title    string
	author   string
	language string
}

func xmlBytes(doc *etree.Document) ([]byte, error) {
	doc.Indent(2)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildContainer() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	container := doc.CreateElement("container")
	container.CreateAttr("version", "1.0")
	container.CreateAttr("xmlns", "urn:oasis:names:tc:opendocument:xmlns:container")

	rootfiles := container.CreateElement("rootfiles")
	rootfile := rootfiles.CreateElement("rootfile")
	rootfile.CreateAttr("full-path", oebpsDir+"/"+opfFile)
	rootfile.CreateAttr("media-type", "application/oebps-package+xml")

	return xmlBytes(doc)
}

func buildOPF(meta metadata, chapters int) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	pkg := doc.CreateElement("package")
	pkg.CreateAttr("version", "2.0")
	pkg.CreateAttr("xmlns", "http://www.idpf.org/2007/opf")
	pkg.CreateAttr("unique-identifier", "book-id")

	metadata := pkg.CreateElement("metadata")
	metadata.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	metadata.CreateAttr("xmlns:opf", "http://www.idpf.org/2007/opf")

	metadata.CreateElement("dc:title").SetText(meta.title)

	dcCreator := metadata.CreateElement("dc:creator")
	dcCreator.CreateAttr("opf:role", "aut")
	dcCreator.SetText(meta.author)

	metadata.CreateElement("dc:language").SetText(meta.language)

	dcIdentifier := metadata.CreateElement("dc:identifier")
	dcIdentifier.CreateAttr("id", "book-id")
	dcIdentifier.SetText(meta.id)

	manifest := pkg.CreateElement("manifest")
	addItem := func(id, href, mediaType string) {
		item := manifest.CreateElement("item")
		item.CreateAttr("id", id)
		item.CreateAttr("href", href)
		item.CreateAttr("media-type", mediaType)
	}
	addItem("ncx", ncxFile, "application/x-dtbncx+xml")
	addItem("css", styleFile, "text/css")
	for i := range chapters {
		addItem(book.ChapterID(i), book.ChapterFile(i), "application/xhtml+xml")
	}

	spine := pkg.CreateElement("spine")
	spine.CreateAttr("toc", "ncx")
	for i := range chapters {
		spine.CreateElement("itemref").CreateAttr("idref", book.ChapterID(i))
	}

	return xmlBytes(doc)
}

func buildNCX(meta metadata, chapters []book.Chapter) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective(`DOCTYPE ncx PUBLIC "-//NISO//DTD ncx 2005-1//EN" "http://www.daisy.org/z3986/2005/ncx-2005-1.dtd"`)

	ncx := doc.CreateElement("ncx")
	ncx.CreateAttr("version", "2005-1")
	ncx.CreateAttr("xmlns", "http://www.daisy.org/z3986/2005/ncx/")

	head := ncx.CreateElement("head")
	for _, m := range [][2]string{
		{"dtb:uid", meta.id},
		{"dtb:depth", "1"},
		{"dtb:totalPageCount", "0"},
		{"dtb:maxPageNumber", "0"},
	} {
		el := head.CreateElement("meta")
		el.CreateAttr("name", m[0])
		el.CreateAttr("content", m[1])
	}

	ncx.CreateElement("docTitle").CreateElement("text").SetText(meta.title)

	navMap := ncx.CreateElement("navMap")
	for i, ch := range chapters {
		navPoint := navMap.CreateElement("navPoint")
		navPoint.CreateAttr("id", fmt.Sprintf("navPoint-%d", i+1))
		navPoint.CreateAttr("playOrder", fmt.Sprintf("%d", i+1))

		navPoint.CreateElement("navLabel").CreateElement("text").SetText(ch.Title)
		navPoint.CreateElement("content").CreateAttr("src", book.ChapterFile(i))
	}

	return xmlBytes(doc)
}

// Package book defines structured book produced by content analysis and
// consumed by EPUB packaging.
package book

import (
	"fmt"
	"unicode/utf8"

	"pdf2epub/utils/debug"
)

// Chapter is a single reading unit. Content is XHTML body fragment and is
// used as is.
type Chapter struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Book is treated as immutable once constructed. Chapter order is reading
// order.
type Book struct {
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	Chapters []Chapter `json:"chapters"`
}

// ChapterID returns manifest id of the chapter with 0-based index i.
func ChapterID(i int) string {
	return fmt.Sprintf("chapter%d", i+1)
}

// ChapterFile returns file name of the chapter with 0-based index i.
func ChapterFile(i int) string {
	return ChapterID(i) + ".xhtml"
}

// String returns readable tree of the book for debugging.
func (b *Book) String() string {
	if b == nil {
		return "<nil book>\n"
	}
	tw := debug.NewTreeWriter()
	tw.TextBlock(0, "Title", b.Title, 0)
	tw.TextBlock(0, "Author", b.Author, 0)
	tw.Line(0, "Chapters: %d", len(b.Chapters))
	for i, ch := range b.Chapters {
		tw.Line(1, "[%d] %s (%d runes)", i+1, ChapterFile(i), utf8.RuneCountInString(ch.Content))
		tw.TextBlock(2, "Title", ch.Title, 0)
		tw.TextBlock(2, "Content", ch.Content, 120)
	}
	return tw.String()
}

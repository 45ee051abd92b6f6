// Package epub packages structured book as EPUB 2.0 archive.
package epub

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"pdf2epub/book"
	"pdf2epub/common"
)

const (
	mimetypeContent = "application/epub+zip"
	oebpsDir        = "OEBPS"
	opfFile         = "content.opf"
	ncxFile         = "toc.ncx"
	styleFile       = "style.css"
	defaultLanguage = "en"
)

type Option func(*Packager)

// WithLanguage sets dc:language of produced books.
func WithLanguage(lang string) Option {
	return func(p *Packager) {
		if len(lang) > 0 {
			p.language = lang
		}
	}
}

// WithStylesheet replaces built-in stylesheet. Empty css keeps built-in one.
func WithStylesheet(css []byte) Option {
	return func(p *Packager) {
		if len(css) > 0 {
			p.css = css
		}
	}
}

// WithTransliteration transliterates title and author in book metadata.
func WithTransliteration(on bool) Option {
	return func(p *Packager) {
		p.transliterate = on
	}
}

// WithIDGenerator replaces book identifier source, used in tests.
func WithIDGenerator(gen func() string) Option {
	return func(p *Packager) {
		p.newID = gen
	}
}

// Packager builds EPUB archive in memory.
type Packager struct {
	w             ArchiveWriter
	language      string
	css           []byte
	transliterate bool
	newID         func() string
	log           *zap.Logger
}

func New(w ArchiveWriter, log *zap.Logger, opts ...Option) *Packager {
	p := &Packager{
		w:        w,
		language: defaultLanguage,
		css:      defaultStylesheet,
		newID:    uuid.NewString,
		log:      log.Named("epub"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Package produces archive bytes. Book content is not validated. Every call
// generates new book identifier.
func (p *Packager) Package(ctx context.Context, b *book.Book) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.w == nil {
		return nil, fmt.Errorf("%w: no archive writer", common.ErrDependencyUnavailable)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: no book to package", common.ErrInvalidInput)
	}

	id := "urn:uuid:" + p.newID()
	entries, err := p.Layout(b, id)
	if err != nil {
		return nil, err
	}

	data, err := p.w.Write(entries)
	if err != nil {
		return nil, fmt.Errorf("unable to write archive: %w", err)
	}
	p.log.Debug("EPUB packaged", zap.String("id", id), zap.Int("entries", len(entries)), zap.Int("size", len(data)))
	return data, nil
}

// Layout returns archive entries in physical order.
func (p *Packager) Layout(b *book.Book, id string) ([]Entry, error) {
	meta := metadata{
		id:       id,
		title:    b.Title,
		author:   b.Author,
		language: p.language,
	}
	if p.transliterate {
		meta.title, meta.author = slug.Make(meta.title), slug.Make(meta.author)
	}

	entries := make([]Entry, 0, 5+len(b.Chapters))
	entries = append(entries, Entry{Name: "mimetype", Data: []byte(mimetypeContent), Stored: true})

	for _, part := range []struct {
		name  string
		build func() ([]byte, error)
	}{
		{"META-INF/container.xml", buildContainer},
		{oebpsDir + "/" + opfFile, func() ([]byte, error) { return buildOPF(meta, len(b.Chapters)) }},
		{oebpsDir + "/" + ncxFile, func() ([]byte, error) { return buildNCX(meta, b.Chapters) }},
	} {
		data, err := part.build()
		if err != nil {
			return nil, fmt.Errorf("unable to build %s: %w", part.name, err)
		}
		entries = append(entries, Entry{Name: part.name, Data: data})
	}

	entries = append(entries, Entry{Name: oebpsDir + "/" + styleFile, Data: p.css})

	for i, ch := range b.Chapters {
		data, err := buildChapter(ch)
		if err != nil {
			return nil, fmt.Errorf("unable to build chapter %d: %w", i+1, err)
		}
		entries = append(entries, Entry{Name: oebpsDir + "/" + book.ChapterFile(i), Data: data})
	}
	return entries, nil
}

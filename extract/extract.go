// Package extract pulls plain text out of PDF documents.
package extract

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"pdf2epub/common"
	"pdf2epub/config"
)

// Document is an opened PDF as seen by the extractor. Pages are numbered from 1.
type Document interface {
	NumPage() int
	PageText(n int) (string, error)
}

// Opener turns raw document bytes into Document.
type Opener func(data []byte) (Document, error)

type Option func(*PDF)

// WithOpener replaces PDF engine.
func WithOpener(open Opener) Option {
	return func(x *PDF) {
		x.open = open
	}
}

// PDF is text extractor.
type PDF struct {
	open      Opener
	maxLength int
	log       *zap.Logger
}

func New(cfg *config.ExtractorConfig, log *zap.Logger, opts ...Option) *PDF {
	x := &PDF{
		open: OpenPDF,
		log:  log.Named("extract"),
	}
	if cfg != nil {
		x.maxLength = cfg.MaxTextLength
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract returns text of all pages, each page followed by empty line.
// Progress is reported after every page as percentage of processed pages.
func (x *PDF) Extract(ctx context.Context, data []byte, p common.Progress) (text string, err error) {
	if p == nil {
		p = common.Discard
	}

	// PDF engines are not very robust when fed with garbage
	defer func() {
		if r := recover(); r != nil {
			x.log.Debug("PDF engine panic", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			text, err = "", fmt.Errorf("%w: engine failure: %v", common.ErrUnsupportedDocument, r)
		}
	}()

	doc, err := x.open(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrUnsupportedDocument, err)
	}

	pages := doc.NumPage()
	if pages <= 0 {
		return "", fmt.Errorf("%w: document has no pages", common.ErrUnsupportedDocument)
	}
	x.log.Debug("Extracting text", zap.Int("pages", pages), zap.Int("size", len(data)))

	var (
		buf    strings.Builder
		failed int
		errs   error
	)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		pageText, err := doc.PageText(i)
		if err != nil {
			failed++
			errs = multierr.Append(errs, fmt.Errorf("page %d: %w", i, err))
			x.log.Warn("Skipping page", zap.Int("page", i), zap.Error(err))
		} else {
			buf.WriteString(strings.TrimSpace(pageText))
			buf.WriteString("\n\n")
		}
		p.Report(float64(i)/float64(pages)*100, common.StepParsingPDF)
	}

	if failed == pages {
		return "", fmt.Errorf("%w: unable to read any page: %w", common.ErrUnsupportedDocument, errs)
	}

	text = norm.NFC.String(strings.ToValidUTF8(buf.String(), "\uFFFD"))
	if len(strings.TrimSpace(text)) == 0 {
		return "", fmt.Errorf("%w: no text found, document may contain only images", common.ErrUnsupportedDocument)
	}

	if x.maxLength > 0 && len(text) > x.maxLength {
		trimmed := trimText(text, x.maxLength)
		x.log.Warn("Text is too long, trimming", zap.Int("length", len(text)), zap.Int("limit", x.maxLength), zap.Int("trimmed", len(trimmed)))
		text = trimmed
	}

	if failed > 0 {
		x.log.Info("Text extracted with errors", zap.Int("pages", pages), zap.Int("failed", failed), zap.Int("length", len(text)))
	} else {
		x.log.Debug("Text extracted", zap.Int("pages", pages), zap.Int("length", len(text)))
	}
	return text, nil
}

package epub

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"text/template"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"pdf2epub/book"
)

//go:embed default.css
var defaultStylesheet []byte

// content is inserted as is, it is expected to be XHTML body fragment.
var chapterTemplate = template.Must(template.New("chapter").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>{{ html .Title }}</title>
  <link rel="stylesheet" type="text/css" href="` + styleFile + `" />
</head>
<body>
  <h1>{{ html .Title }}</h1>
  {{ .Content }}
</body>
</html>`))

func buildChapter(ch book.Chapter) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := chapterTemplate.Execute(buf, ch); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DefaultStylesheet returns copy of built-in stylesheet.
func DefaultStylesheet() []byte {
	return bytes.Clone(defaultStylesheet)
}

// CheckStylesheet makes sure css could be parsed.
func CheckStylesheet(data []byte) error {
	p := css.NewParser(parse.NewInputBytes(data), false)
	for {
		gt, _, _ := p.Next()
		if gt == css.ErrorGrammar {
			if err := p.Err(); !errors.Is(err, io.EOF) {
				return fmt.Errorf("bad stylesheet: %w", err)
			}
			return nil
		}
	}
}

package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"pdf2epub/book"
	"pdf2epub/config"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	Author     string
	Chapters   int
	Language   string
	SourceFile string
}

func expandTemplate(b *book.Book, name config.TemplateFieldName, field, src, lang string) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	var srcFile string
	if len(src) > 0 {
		srcFile = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}

	values := Values{
		Context:    string(name),
		Title:      b.Title,
		Author:     b.Author,
		Chapters:   len(b.Chapters),
		Language:   lang,
		SourceFile: srcFile,
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

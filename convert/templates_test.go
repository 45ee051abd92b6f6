package convert

import (
	"strings"
	"testing"

	"pdf2epub/book"
	"pdf2epub/config"
)

func templateBook() *book.Book {
	return &book.Book{
		Title:  "My Great Book",
		Author: "Jane Roe",
		Chapters: []book.Chapter{
			{Title: "One", Content: "<p>1</p>"},
			{Title: "Two", Content: "<p>2</p>"},
		},
	}
}

func TestExpandTemplate(t *testing.T) {
	tests := []struct {
		name  string
		field string
		src   string
		want  string
	}{
		{name: "simple text", field: "simple-text", want: "simple-text"},
		{name: "title", field: "{{ .Title }}", want: "My Great Book"},
		{name: "author and title", field: "{{ .Author }}/{{ .Title }}", want: "Jane Roe/My Great Book"},
		{name: "chapters", field: "{{ .Title }} ({{ .Chapters }})", want: "My Great Book (2)"},
		{name: "language", field: "{{ .Language }}", want: "de"},
		{name: "source file", field: "{{ .SourceFile }}", src: "dir/scan.pdf", want: "scan"},
		{name: "context", field: "{{ .Context }}", want: string(config.OutputNameTemplateFieldName)},
		{name: "sprig functions", field: "{{ .Title | upper | replace \" \" \"_\" }}", want: "MY_GREAT_BOOK"},
		{name: "sprig default", field: "{{ .SourceFile | default \"unnamed\" }}", want: "unnamed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandTemplate(templateBook(), config.OutputNameTemplateFieldName, tt.field, tt.src, "de")
			if err != nil {
				t.Fatalf("expandTemplate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandTemplate_Errors(t *testing.T) {
	_, err := expandTemplate(templateBook(), config.OutputNameTemplateFieldName, "{{ .Title ", "a.pdf", "en")
	if err == nil || !strings.Contains(err.Error(), string(config.OutputNameTemplateFieldName)) {
		t.Errorf("expandTemplate() parse error = %v", err)
	}

	_, err = expandTemplate(templateBook(), config.OutputNameTemplateFieldName, "{{ .Missing }}", "a.pdf", "en")
	if err == nil {
		t.Error("expandTemplate() expected execution error for unknown field")
	}
}

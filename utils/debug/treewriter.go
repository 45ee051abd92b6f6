// Package debug has helpers producing human readable dumps for debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TreeWriter accumulates indented lines.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes quoted value under label. When limit is positive value is
// shortened to that many runes and the number of dropped runes is noted.
func (tw TreeWriter) TextBlock(depth int, label, value string, limit int) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value, limit))
	tw.w.WriteByte('\n')
}

func encodeText(raw string, limit int) string {
	if raw == "" {
		return raw
	}
	total := utf8.RuneCountInString(raw)
	if limit <= 0 || total <= limit {
		return strconv.Quote(raw)
	}
	cut, n := 0, 0
	for i := range raw {
		if n == limit {
			cut = i
			break
		}
		n++
	}
	return fmt.Sprintf("%s (+%d runes)", strconv.Quote(raw[:cut]), total-limit)
}

package extract

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

var tokenizer = sync.OnceValue(func() *sentences.DefaultSentenceTokenizer {
	t, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil
	}
	return t
})

// trimText cuts text to at most limit bytes ending at the last sentence
// boundary which fits. Without such boundary text is cut at the last rune
// which fits.
func trimText(text string, limit int) string {
	if len(text) <= limit {
		return text
	}

	if t := tokenizer(); t != nil {
		// sentences are contiguous, leading spaces belong to the next one
		end := 0
		for _, s := range t.Tokenize(text) {
			if end+len(s.Text) > limit {
				break
			}
			end += len(s.Text)
		}
		for end > 0 && !utf8.RuneStart(text[end]) {
			end--
		}
		if end > 0 {
			return strings.TrimRightFunc(text[:end], isSpace)
		}
	}

	end := limit
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	return text[:end]
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

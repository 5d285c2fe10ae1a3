package anonymize

import (
	"strings"
	"unicode/utf8"
)

// Decode replaces every known token in text with its original. Tokens made
// of word characters only match as whole words; unknown token-shaped words
// are left untouched.
func Decode(text string, reverse map[string]string) string {
	if len(reverse) == 0 || text == "" {
		return text
	}
	r := newReplacer(reverse)
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		if token, original, ok := r.match(text, i); ok {
			b.WriteString(original)
			i += len(token)
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[i : i+size])
		i += size
	}
	return b.String()
}

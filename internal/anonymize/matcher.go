package anonymize

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// replacer finds the longest known pattern at a text position. Patterns are
// bucketed by their first byte and ordered longest first inside a bucket.
type replacer struct {
	byFirst map[byte][]string
	table   map[string]string
}

func newReplacer(table map[string]string) *replacer {
	r := &replacer{byFirst: make(map[byte][]string), table: table}
	for pattern := range table {
		if pattern == "" {
			continue
		}
		r.byFirst[pattern[0]] = append(r.byFirst[pattern[0]], pattern)
	}
	for first, bucket := range r.byFirst {
		slices.SortFunc(bucket, func(a, b string) int {
			if c := cmp.Compare(len(b), len(a)); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		})
		r.byFirst[first] = bucket
	}
	return r
}

// match returns the pattern starting at text[i:] and its replacement.
func (r *replacer) match(text string, i int) (string, string, bool) {
	bucket := r.byFirst[text[i]]
	for _, pattern := range bucket {
		if !strings.HasPrefix(text[i:], pattern) {
			continue
		}
		if !onBoundary(text, i, i+len(pattern), pattern) {
			continue
		}
		return pattern, r.table[pattern], true
	}
	return "", "", false
}

// onBoundary applies a word-boundary check to each end of pattern whose
// outermost rune is a word character. Non-word ends match literally.
func onBoundary(text string, start, end int, pattern string) bool {
	first, _ := utf8.DecodeRuneInString(pattern)
	if isWordRune(first) && start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(prev) {
			return false
		}
	}
	last, _ := utf8.DecodeLastRuneInString(pattern)
	if isWordRune(last) && end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(next) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

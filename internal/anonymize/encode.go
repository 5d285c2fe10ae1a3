package anonymize

import (
	"fmt"
	"maps"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	markerOpen  = "[["
	markerClose = "]]"
)

// markerPattern accepts a non-empty single-line term without nested brackets;
// spaces are allowed so phrases can be marked. Whitespace around the term is
// kept in the text and never becomes part of the original.
var markerPattern = regexp.MustCompile(`\[\[([^\[\]\r\n]+)\]\]`)

// Result is the outcome of Encode.
type Result struct {
	// Text is the anonymized text.
	Text string
	// Forward is the full ORIGINAL→TOKEN mapping after encoding.
	Forward map[string]string
	// Created holds the ORIGINAL→TOKEN entries minted by this call.
	Created map[string]string
}

type marker struct {
	end   int
	lead  string
	term  string
	trail string
}

func newMarker(end int, raw string) marker {
	trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)
	term := strings.TrimRightFunc(trimmed, unicode.IsSpace)
	return marker{
		end:   end,
		lead:  raw[:len(raw)-len(trimmed)],
		term:  term,
		trail: trimmed[len(term):],
	}
}

// Markers returns the distinct marked terms, trimmed of surrounding
// whitespace, in order of first appearance. Blank markers are skipped.
func Markers(text string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
		term := strings.TrimSpace(m[1])
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

// Encode anonymizes text against forward. The input map is not modified.
func Encode(text string, forward map[string]string, gen *TokenGenerator) (Result, error) {
	if gen == nil {
		gen = NewTokenGenerator(DefaultTokenLength)
	}

	out := Result{
		Forward: maps.Clone(forward),
		Created: make(map[string]string),
	}
	if out.Forward == nil {
		out.Forward = make(map[string]string)
	}

	markers := locateMarkers(text)
	if err := assignTokens(text, markers, out.Forward, out.Created, gen); err != nil {
		return Result{}, err
	}

	r := newReplacer(out.Forward)
	var b strings.Builder
	b.Grow(len(text))
	segment := 0
	flush := func(upTo int) {
		b.WriteString(stripStray(text[segment:upTo]))
	}

	for i := 0; i < len(text); {
		if m, ok := markers[i]; ok {
			flush(i)
			b.WriteString(m.lead)
			if m.term != "" {
				b.WriteString(out.Forward[m.term])
			}
			b.WriteString(m.trail)
			i = m.end
			segment = i
			continue
		}
		if pattern, token, ok := r.match(text, i); ok {
			flush(i)
			b.WriteString(token)
			i += len(pattern)
			segment = i
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	flush(len(text))

	out.Text = b.String()
	return out, nil
}

// StripMarkers removes marker brackets, keeping the marked terms, and drops
// stray "[[" / "]]" the same way Encode does.
func StripMarkers(text string) string {
	markers := locateMarkers(text)
	var b strings.Builder
	b.Grow(len(text))
	segment := 0
	for i := 0; i < len(text); {
		if m, ok := markers[i]; ok {
			b.WriteString(stripStray(text[segment:i]))
			b.WriteString(m.lead + m.term + m.trail)
			i = m.end
			segment = i
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	b.WriteString(stripStray(text[segment:]))
	return b.String()
}

func locateMarkers(text string) map[int]marker {
	found := markerPattern.FindAllStringSubmatchIndex(text, -1)
	markers := make(map[int]marker, len(found))
	for _, loc := range found {
		markers[loc[0]] = newMarker(loc[1], text[loc[2]:loc[3]])
	}
	return markers
}

func assignTokens(text string, markers map[int]marker, forward, created map[string]string, gen *TokenGenerator) error {
	if len(markers) == 0 {
		return nil
	}
	tokens := make(map[string]struct{}, len(forward))
	for _, token := range forward {
		tokens[token] = struct{}{}
	}
	taken := func(candidate string) bool {
		if _, ok := tokens[candidate]; ok {
			return true
		}
		_, ok := forward[candidate]
		return ok
	}

	for _, term := range Markers(text) {
		if _, ok := forward[term]; ok {
			continue
		}
		token, err := gen.Generate(taken)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
		forward[term] = token
		created[term] = token
		tokens[token] = struct{}{}
	}
	return nil
}

func stripStray(s string) string {
	if !strings.Contains(s, markerOpen) && !strings.Contains(s, markerClose) {
		return s
	}
	s = strings.ReplaceAll(s, markerOpen, "")
	return strings.ReplaceAll(s, markerClose, "")
}

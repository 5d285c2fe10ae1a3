package anonymize

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"
)

var tokenShape = regexp.MustCompile(`^[A-Za-z0-9]{8}$`)

func TestTokenGeneratorShapeAndUniqueness(t *testing.T) {
	gen := NewTokenGenerator(0)
	if gen.Length() != DefaultTokenLength {
		t.Fatalf("expected default length, got %d", gen.Length())
	}
	seen := make(map[string]struct{})
	for range 500 {
		token, err := gen.Generate(func(s string) bool { _, ok := seen[s]; return ok })
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if !tokenShape.MatchString(token) {
			t.Fatalf("unexpected token shape %q", token)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = struct{}{}
	}
}

func TestTokenGeneratorRejectsTaken(t *testing.T) {
	// 'A' is alphabet index 0; byte 248 is rejected and 1 maps to 'B'.
	source := bytes.NewReader([]byte{0, 0, 0, 0, 248, 1, 1, 1, 1, 9, 9, 9})
	gen := NewTokenGenerator(4, WithRandomSource(source))
	token, err := gen.Generate(func(s string) bool { return s == "AAAA" })
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if token != "BBBB" {
		t.Fatalf("expected BBBB after rejecting taken token, got %q", token)
	}
}

func TestTokenGeneratorExhausted(t *testing.T) {
	gen := NewTokenGenerator(4)
	_, err := gen.Generate(func(string) bool { return true })
	if !errors.Is(err, ErrTokenSpaceExhausted) {
		t.Fatalf("expected exhaustion error, got %v", err)
	}
}

func TestEncodeCreatesTokensForMarkedTerms(t *testing.T) {
	res, err := Encode("Hi [[Alice]] and [[Bob Smith]], bye [[Alice]].", nil, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(res.Created) != 2 || len(res.Forward) != 2 {
		t.Fatalf("expected two created entries, got created=%v forward=%v", res.Created, res.Forward)
	}
	alice, bob := res.Forward["Alice"], res.Forward["Bob Smith"]
	if !tokenShape.MatchString(alice) || !tokenShape.MatchString(bob) {
		t.Fatalf("unexpected tokens %q %q", alice, bob)
	}
	want := "Hi " + alice + " and " + bob + ", bye " + alice + "."
	if res.Text != want {
		t.Fatalf("Encode text = %q, want %q", res.Text, want)
	}
}

func TestEncodeReplacesKnownUnmarkedOriginals(t *testing.T) {
	forward := map[string]string{"Alice": "AAAA1111", "Berlin": "BBBB2222"}
	res, err := Encode("Alice lives in Berlin. Alicella does not.", forward, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if res.Text != "AAAA1111 lives in BBBB2222. Alicella does not." {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if len(res.Created) != 0 {
		t.Fatalf("expected no new tokens, got %v", res.Created)
	}
	if len(forward) != 2 {
		t.Fatal("input mapping must not be modified")
	}
}

func TestEncodeLongestOriginalWins(t *testing.T) {
	forward := map[string]string{"New": "NNNN0000", "New York": "YYYY0000"}
	res, err := Encode("New York and New Jersey", forward, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if res.Text != "YYYY0000 and NNNN0000 Jersey" {
		t.Fatalf("unexpected text %q", res.Text)
	}
}

func TestEncodeNonWordEndsMatchLiterally(t *testing.T) {
	forward := map[string]string{"+49 30": "PHONE001", "C++": "LANG0001"}
	res, err := Encode("call+49 30x about C++11", forward, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// "+49 30" ends with a digit, so the trailing boundary still applies.
	if res.Text != "call+49 30x about LANG000111" {
		t.Fatalf("unexpected text %q", res.Text)
	}
}

func TestEncodeDoesNotResubstituteTokens(t *testing.T) {
	// The token for "Alice" is itself a known original; a single pass must
	// not translate it a second time.
	forward := map[string]string{"Alice": "Bob", "Bob": "CCCC3333"}
	res, err := Encode("Alice", forward, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if res.Text != "Bob" {
		t.Fatalf("expected single substitution, got %q", res.Text)
	}
}

func TestEncodeDropsStrayBrackets(t *testing.T) {
	res, err := Encode("a ]] b [[]] c [[a[b]] d [[ e", nil, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if res.Text != "a  b  c a[b d  e" {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if len(res.Created) != 0 {
		t.Fatalf("invalid markers must not create tokens: %v", res.Created)
	}
}

func TestEncodeUnicodeWordBoundaries(t *testing.T) {
	forward := map[string]string{"Müller": "MMMM0000"}
	res, err := Encode("Herr Müller und Müllers Hund", forward, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if res.Text != "Herr MMMM0000 und Müllers Hund" {
		t.Fatalf("unexpected text %q", res.Text)
	}
}

func TestDecodeReplacesKnownTokensOnly(t *testing.T) {
	reverse := map[string]string{"AAAA1111": "Alice"}
	got := Decode("AAAA1111 met ZZZZ9999 and xAAAA1111", reverse)
	if got != "Alice met ZZZZ9999 and xAAAA1111" {
		t.Fatalf("unexpected decode %q", got)
	}
	if Decode("unchanged", nil) != "unchanged" {
		t.Fatal("empty reverse mapping must be a no-op")
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"Hello [[World]]",
		"[[Alice]] wrote to [[Bob Smith]]; Alice signed. Bob Smith replied.",
		"Plain text without markers.",
		"Umlaute: [[Jürgen]] trifft Jürgen in [[Köln]].",
		"a [[ spaced phrase ]] and a stray ]] bracket",
	}
	for _, input := range inputs {
		forward := map[string]string{"Existing": "EEEE0000"}
		res, err := Encode(input, forward, nil)
		if err != nil {
			t.Fatalf("Encode(%q): %v", input, err)
		}
		back := Decode(res.Text, NewMapping(res.Forward).Reverse)
		if want := StripMarkers(input); back != want {
			t.Fatalf("round trip of %q = %q, want %q", input, back, want)
		}
	}
}

func TestStripMarkers(t *testing.T) {
	if got := StripMarkers("a [[b c]] d [[ e"); got != "a b c d  e" {
		t.Fatalf("unexpected strip result %q", got)
	}
}

func TestMarkers(t *testing.T) {
	got := Markers("[[x]] [[y]] [[x]] [[]] [[a[b]]")
	if strings.Join(got, ",") != "x,y" {
		t.Fatalf("unexpected markers %v", got)
	}
}

func TestMappingMergeKeepsExisting(t *testing.T) {
	m := NewMapping(map[string]string{"Alice": "AAAA1111"})
	added := m.Merge(map[string]string{"Alice": "OTHER000", "Bob": "BBBB2222"})
	if added != 1 {
		t.Fatalf("expected one added entry, got %d", added)
	}
	if m.Forward["Alice"] != "AAAA1111" {
		t.Fatalf("existing original must win, got %q", m.Forward["Alice"])
	}
	if m.Reverse["BBBB2222"] != "Bob" || m.Reverse["OTHER000"] != "Alice" {
		t.Fatalf("unexpected reverse mapping %v", m.Reverse)
	}

	clone := m.Clone()
	clone.Forward["Carol"] = "CCCC3333"
	if _, ok := m.Forward["Carol"]; ok {
		t.Fatal("clone must not share maps")
	}
	if got := m.SortedOriginals(); strings.Join(got, ",") != "Alice,Bob" {
		t.Fatalf("unexpected originals %v", got)
	}
}

func TestMergeOnZeroMapping(t *testing.T) {
	var m Mapping
	m.Merge(map[string]string{"x": "y"})
	if m.Len() != 1 || m.Reverse["y"] != "x" {
		t.Fatalf("unexpected mapping %+v", m)
	}
}

func TestEncodeTrimsMarkedTerms(t *testing.T) {
	res, err := Encode("a [[ Alice ]] b [[Alice]] c [[  ]] d", nil, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	token, ok := res.Forward["Alice"]
	if !ok || len(res.Forward) != 1 {
		t.Fatalf("expected one trimmed entry, got %v", res.Forward)
	}
	if want := "a  " + token + "  b " + token + " c    d"; res.Text != want {
		t.Fatalf("Encode text = %q, want %q", res.Text, want)
	}
}

func TestMarkersDoNotSpanLines(t *testing.T) {
	input := "Dear [[Bob\nSmith]], [[Carol\r\nDoe]] and [[ Eve ]]"
	if got := Markers(input); strings.Join(got, ",") != "Eve" {
		t.Fatalf("unexpected markers %q", got)
	}
	res, err := Encode(input, nil, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, ok := res.Forward["Bob\nSmith"]; ok || len(res.Forward) != 1 {
		t.Fatalf("multi-line terms must not be tokenized, got %v", res.Forward)
	}
	if !strings.HasPrefix(res.Text, "Dear Bob\nSmith, Carol\r\nDoe and ") {
		t.Fatalf("unexpected text %q", res.Text)
	}
}

func TestCheckEntry(t *testing.T) {
	good := [][2]string{{"Alice", "AAAA1111"}, {"key=value", "TOK00001"}, {"Bob Smith", "TOK00002"}}
	for _, e := range good {
		if err := CheckEntry(e[0], e[1]); err != nil {
			t.Fatalf("CheckEntry(%q, %q): %v", e[0], e[1], err)
		}
	}
	bad := [][2]string{
		{"", "AAAA1111"},
		{"Bob\nSmith", "AAAA1111"},
		{" Alice", "AAAA1111"},
		{"Alice\t", "AAAA1111"},
		{"Alice", ""},
		{"Alice", "AA=A1111"},
		{"Alice", "AAAA1111\r"},
	}
	for _, e := range bad {
		if err := CheckEntry(e[0], e[1]); !errors.Is(err, ErrInvalidEntry) {
			t.Fatalf("CheckEntry(%q, %q) = %v, want ErrInvalidEntry", e[0], e[1], err)
		}
	}
	if err := CheckEntries(map[string]string{"Alice": "AAAA1111", "x\ny": "BBBB2222"}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("CheckEntries accepted a multi-line original: %v", err)
	}
	if err := CheckEntries(nil); err != nil {
		t.Fatalf("CheckEntries(nil): %v", err)
	}
}

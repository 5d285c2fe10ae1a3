package mapping

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"anonymizer/internal/anonymize"
)

func TestParseTextIgnoresMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		"AAAA1111 = Alice",
		"",
		"no separator here",
		" = missing token",
		"BBBB2222 =",
		"CCCC3333 =  Bob = Smith  ",
	}, "\n")
	m, err := ParseText(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("expected two entries, got %v", m.Forward)
	}
	if m.Forward["Alice"] != "AAAA1111" || m.Reverse["CCCC3333"] != "Bob = Smith" {
		t.Fatalf("unexpected mapping %+v", m)
	}
}

func TestFormatTextSortsCaseInsensitively(t *testing.T) {
	got := string(FormatText(map[string]string{
		"bob":   "TOK00002",
		"Alice": "TOK00001",
		"alice": "TOK00003",
		"Carl":  "TOK00004",
	}))
	want := "TOK00001 = Alice\nTOK00003 = alice\nTOK00002 = bob\nTOK00004 = Carl\n"
	if got != want {
		t.Fatalf("FormatText =\n%s\nwant\n%s", got, want)
	}
}

func TestTextRoundTrip(t *testing.T) {
	forward := map[string]string{"New York": "NYNYNY00", "Jürgen": "JJJJ0000"}
	m, err := ParseText(strings.NewReader(string(FormatText(forward))))
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	for original, token := range forward {
		if m.Forward[original] != token {
			t.Fatalf("entry %q lost in round trip: %v", original, m.Forward)
		}
	}
}

func TestFormatParseTextPreservesStorableEntries(t *testing.T) {
	forward := map[string]string{
		"key=value":  "TOK00001",
		"a = b":      "TOK00002",
		"Bob Smith":  "TOK00003",
		"Jürgen":     "TOK00004",
		"x = y = z":  "TOK00005",
		"trailing =": "TOK00006",
	}
	if err := anonymize.CheckEntries(forward); err != nil {
		t.Fatalf("CheckEntries: %v", err)
	}
	m, err := ParseText(bytes.NewReader(FormatText(forward)))
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if len(m.Forward) != len(forward) {
		t.Fatalf("parsed %v, want %v", m.Forward, forward)
	}
	for original, token := range forward {
		if m.Forward[original] != token || m.Reverse[token] != original {
			t.Fatalf("entry %q=%q did not survive: %+v", original, token, m)
		}
	}
}

func TestFileStoreSaveRejectsUnstorableEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.txt")
	store := NewFileStore(path)
	for _, forward := range []map[string]string{
		{"Bob\nSmith": "TOK00001"},
		{" Alice": "TOK00001"},
		{"Alice": "TOK\r0001"},
		{"Alice": "TOK=0001"},
	} {
		err := store.Save(context.Background(), forward)
		if !errors.Is(err, anonymize.ErrInvalidEntry) {
			t.Fatalf("Save(%q): expected ErrInvalidEntry, got %v", forward, err)
		}
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("rejected saves must not create the file, stat err=%v", err)
	}
}

package mapping

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"anonymizer/internal/anonymize"
)

const lineSeparator = "="

var fold = cases.Fold()

// ParseText reads "TOKEN = ORIGINAL" lines. Blank lines and lines without a
// separator or with an empty side are ignored.
func ParseText(r io.Reader) (anonymize.Mapping, error) {
	forward := make(map[string]string)
	reverse := make(map[string]string)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		left, right, ok := strings.Cut(line, lineSeparator)
		if !ok {
			continue
		}
		token := strings.TrimSpace(left)
		original := strings.TrimSpace(right)
		if token == "" || original == "" {
			continue
		}
		reverse[token] = original
		forward[original] = token
	}
	if err := scanner.Err(); err != nil {
		return anonymize.Mapping{}, fmt.Errorf("read mapping lines: %w", err)
	}
	return anonymize.Mapping{Forward: forward, Reverse: reverse}, nil
}

// FormatText renders forward as "TOKEN = ORIGINAL" lines ordered by the
// case-folded original, ties broken by the original itself.
func FormatText(forward map[string]string) []byte {
	var buf bytes.Buffer
	for _, original := range sortedOriginals(forward) {
		buf.WriteString(forward[original])
		buf.WriteString(" " + lineSeparator + " ")
		buf.WriteString(original)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func sortedOriginals(forward map[string]string) []string {
	originals := slices.Collect(maps.Keys(forward))
	folded := make(map[string]string, len(originals))
	for _, o := range originals {
		folded[o] = fold.String(o)
	}
	slices.SortFunc(originals, func(a, b string) int {
		if c := strings.Compare(folded[a], folded[b]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return originals
}

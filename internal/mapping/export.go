package mapping

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"anonymizer/internal/anonymize"
)

// Export formats.
const (
	ExportText     = "text"
	ExportJSON     = "json"
	ExportMarkdown = "markdown"
)

// ExportFormats lists the accepted Export format names.
var ExportFormats = []string{ExportText, ExportJSON, ExportMarkdown}

// Export writes m to w in the requested format.
func Export(w io.Writer, m anonymize.Mapping, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", ExportText:
		_, err := w.Write(FormatText(m.Forward))
		return err
	case ExportJSON:
		forward := m.Forward
		if forward == nil {
			forward = map[string]string{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(forward)
	case ExportMarkdown:
		return exportMarkdown(w, m)
	default:
		return fmt.Errorf("unsupported export format %q (want one of %s)", format, strings.Join(ExportFormats, ", "))
	}
}

func exportMarkdown(w io.Writer, m anonymize.Mapping) error {
	md := markdown.NewMarkdown(w)
	md.H1("Anonymizer mapping")
	md.PlainText("")
	md.PlainText("Entries: " + strconv.Itoa(m.Len()))
	md.PlainText("")

	rows := make([][]string, 0, m.Len())
	for _, original := range sortedOriginals(m.Forward) {
		rows = append(rows, []string{"`" + m.Forward[original] + "`", escapeCell(original)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Token", "Original"},
		Rows:   rows,
	})
	return md.Build()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

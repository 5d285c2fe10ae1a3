package anonymize

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrInvalidEntry reports a mapping entry that cannot be stored as a
// "TOKEN = ORIGINAL" line.
var ErrInvalidEntry = errors.New("invalid mapping entry")

// Mapping pairs the ORIGINAL→TOKEN table with its inverse.
type Mapping struct {
	Forward map[string]string
	Reverse map[string]string
}

// NewMapping builds a Mapping from a forward table. The input map is copied.
// When several originals share a token, the lexically first original keeps
// the reverse entry.
func NewMapping(forward map[string]string) Mapping {
	m := Mapping{
		Forward: make(map[string]string, len(forward)),
		Reverse: make(map[string]string, len(forward)),
	}
	for _, original := range slices.Sorted(maps.Keys(forward)) {
		token := forward[original]
		m.Forward[original] = token
		if _, exists := m.Reverse[token]; !exists {
			m.Reverse[token] = original
		}
	}
	return m
}

// Merge adds entries from other without overriding existing originals or
// tokens. It returns the number of forward entries added.
func (m *Mapping) Merge(other map[string]string) int {
	if m.Forward == nil {
		m.Forward = make(map[string]string, len(other))
	}
	if m.Reverse == nil {
		m.Reverse = make(map[string]string, len(other))
	}
	added := 0
	for _, original := range slices.Sorted(maps.Keys(other)) {
		token := other[original]
		if _, exists := m.Forward[original]; !exists {
			m.Forward[original] = token
			added++
		}
		if _, exists := m.Reverse[token]; !exists {
			m.Reverse[token] = original
		}
	}
	return added
}

// Len reports the number of forward entries.
func (m Mapping) Len() int {
	return len(m.Forward)
}

// Clone returns a deep copy.
func (m Mapping) Clone() Mapping {
	return Mapping{Forward: maps.Clone(m.Forward), Reverse: maps.Clone(m.Reverse)}
}

// SortedOriginals returns the originals in byte order.
func (m Mapping) SortedOriginals() []string {
	return slices.Sorted(maps.Keys(m.Forward))
}

// CheckEntry reports whether original and token can round-trip through the
// line-based mapping file. Both sides must be trimmed single-line strings, and
// the token must not contain "=".
func CheckEntry(original, token string) error {
	switch {
	case !storableSide(original):
		return fmt.Errorf("%w: original %q", ErrInvalidEntry, original)
	case !storableSide(token) || strings.Contains(token, "="):
		return fmt.Errorf("%w: token %q for %q", ErrInvalidEntry, token, original)
	}
	return nil
}

// CheckEntries applies CheckEntry to every entry of forward in sorted order.
func CheckEntries(forward map[string]string) error {
	for _, original := range slices.Sorted(maps.Keys(forward)) {
		if err := CheckEntry(original, forward[original]); err != nil {
			return err
		}
	}
	return nil
}

func storableSide(s string) bool {
	return s != "" && strings.TrimSpace(s) == s && !strings.ContainsAny(s, "\r\n")
}

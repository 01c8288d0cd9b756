package testutil

import (
	"path/filepath"
	"sort"
	"strings"
)

// Normalizer rewrites volatile substrings (temp directories, generated IDs)
// to stable placeholders before golden comparison. A nil Normalizer only
// normalizes line endings.
type Normalizer struct {
	replacements map[string]string
}

// NewNormalizer creates an empty Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{replacements: make(map[string]string)}
}

// Replace maps every occurrence of value to placeholder. Empty values are
// ignored.
func (n *Normalizer) Replace(value, placeholder string) *Normalizer {
	if value != "" {
		n.replacements[value] = placeholder
	}
	return n
}

// ReplacePath is Replace for a filesystem path; the slash-separated form is
// replaced too.
func (n *Normalizer) ReplacePath(path, placeholder string) *Normalizer {
	n.Replace(path, placeholder)
	return n.Replace(filepath.ToSlash(path), placeholder)
}

// Normalize applies the replacements, longest value first, and converts
// CRLF line endings to LF.
func (n *Normalizer) Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if n == nil {
		return s
	}

	values := make([]string, 0, len(n.replacements))
	for v := range n.replacements {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool {
		if len(values[i]) != len(values[j]) {
			return len(values[i]) > len(values[j])
		}
		return values[i] < values[j]
	})
	for _, v := range values {
		s = strings.ReplaceAll(s, v, n.replacements[v])
	}
	return s
}

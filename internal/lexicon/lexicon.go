package lexicon

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnavailable is returned when the backing store cannot be queried.
var ErrUnavailable = errors.New("lexicon unavailable")

// MapLexicon serves ranked synonym lists from memory. It is read-only after
// construction and safe for concurrent use.
type MapLexicon struct {
	entries map[string][]string
}

// NewMapLexicon normalizes keys to lower case and drops duplicate or blank
// candidates while keeping their rank order. Keys that collapse to the same
// word are merged with the already-normalized key first, then the rest in
// byte order, so the first candidate is stable across loads.
func NewMapLexicon(entries map[string][]string) *MapLexicon {
	m := &MapLexicon{entries: make(map[string][]string, len(entries))}
	for _, word := range slices.SortedFunc(maps.Keys(entries), compareKeys) {
		key := normalizeKey(word)
		if key == "" {
			continue
		}
		m.entries[key] = appendUnique(m.entries[key], entries[word])
	}
	return m
}

func normalizeKey(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

func compareKeys(a, b string) int {
	an, bn := a == normalizeKey(a), b == normalizeKey(b)
	switch {
	case an && !bn:
		return -1
	case bn && !an:
		return 1
	}
	return strings.Compare(a, b)
}

func appendUnique(dst, candidates []string) []string {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || slices.Contains(dst, c) {
			continue
		}
		dst = append(dst, c)
	}
	return dst
}

// ReadYAML parses a `word: [synonym, ...]` document.
func ReadYAML(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: read file: %w", err)
	}
	var entries map[string][]string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("lexicon: parse yaml: %w", err)
	}
	return entries, nil
}

// LoadYAML builds a MapLexicon from a YAML file.
func LoadYAML(path string) (*MapLexicon, error) {
	entries, err := ReadYAML(path)
	if err != nil {
		return nil, err
	}
	return NewMapLexicon(entries), nil
}

// Synonyms returns a copy of the ranked candidates for word.
func (m *MapLexicon) Synonyms(ctx context.Context, word string) ([]string, error) {
	return slices.Clone(m.entries[strings.ToLower(word)]), nil
}

// Len returns the number of head words.
func (m *MapLexicon) Len() int { return len(m.entries) }

func (m *MapLexicon) Ping(ctx context.Context) error { return nil }

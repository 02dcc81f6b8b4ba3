// Package topic canonicalizes free-text topic strings to a fixed closed
// vocabulary of topic tokens.
package topic

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultTopics is the built-in canonical topic set.
var defaultTopics = []string{
	"daily", "sport", "school", "travel", "technology", "art", "business",
	"food", "general", "health", "nature", "people", "science",
}

// defaultAliases maps common misspellings, synonyms and plurals to
// canonical tokens.
var defaultAliases = map[string]string{
	"sports":     "sport",
	"tech":       "technology",
	"it":         "technology",
	"medical":    "health",
	"medicine":   "health",
	"healthcare": "health",
	"doctor":     "health",
	"hospital":   "health",
}

// Normalizer maps raw topic strings to canonical tokens. Immutable after
// construction and safe for concurrent use.
type Normalizer struct {
	canonical map[string]bool
	aliases   map[string]string
}

// NewNormalizer returns a Normalizer with the built-in topic set and alias
// table.
func NewNormalizer() *Normalizer {
	return newNormalizer(defaultTopics, defaultAliases)
}

// normalizerFile is the YAML shape of an external topics file.
type normalizerFile struct {
	Topics  []string          `yaml:"topics"`
	Aliases map[string]string `yaml:"aliases"`
}

// LoadNormalizer reads a topics YAML file with `topics` and `aliases` keys.
// Missing keys fall back to the built-in defaults.
func LoadNormalizer(path string) (*Normalizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("topic: read %q: %w", path, err)
	}
	var file normalizerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("topic: parse %q: %w", path, err)
	}
	topics := file.Topics
	if len(topics) == 0 {
		topics = defaultTopics
	}
	aliases := file.Aliases
	if len(aliases) == 0 {
		aliases = defaultAliases
	}
	return newNormalizer(topics, aliases), nil
}

func newNormalizer(topics []string, aliases map[string]string) *Normalizer {
	n := &Normalizer{
		canonical: make(map[string]bool, len(topics)),
		aliases:   make(map[string]string, len(aliases)),
	}
	for _, t := range topics {
		n.canonical[strings.ToLower(strings.TrimSpace(t))] = true
	}
	for from, to := range aliases {
		n.aliases[strings.ToLower(strings.TrimSpace(from))] = strings.ToLower(strings.TrimSpace(to))
	}
	return n
}

// Normalize canonicalizes a raw topic string: trim, lowercase, alias lookup,
// then a trailing-"s" fold against the canonical set. Unrecognized topics
// pass through lowercased; the caller decides whether that is an error.
// Normalize is total and never fails.
func (n *Normalizer) Normalize(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return ""
	}
	if canonical, ok := n.aliases[t]; ok {
		t = canonical
	}
	if !n.canonical[t] && strings.HasSuffix(t, "s") && n.canonical[strings.TrimSuffix(t, "s")] {
		t = strings.TrimSuffix(t, "s")
	}
	return t
}

// IsCanonical reports whether t is a member of the canonical topic set.
func (n *Normalizer) IsCanonical(t string) bool {
	return n.canonical[t]
}

// Topics returns the canonical topic set in sorted order.
func (n *Normalizer) Topics() []string {
	out := make([]string, 0, len(n.canonical))
	for t := range n.canonical {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

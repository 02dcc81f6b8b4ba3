package difficulty

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Feature keys after tolerant name resolution. The model artifact names its
// features freely ("Word length", "No. of Syllables", "word_frequency");
// resolution folds them onto these keys.
const (
	featureLength    = "length"
	featureSyllables = "syllables"
	featureFrequency = "frequency"
)

// resolveFeatureKey folds a model feature name onto one of the known keys.
// Matching is case- and punctuation-tolerant: any name mentioning "length"
// means word length, "syllab" means syllable count, and "freq" means the
// corpus-frequency score.
func resolveFeatureKey(name string) (string, bool) {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "length"):
		return featureLength, true
	case strings.Contains(n, "syllab"):
		return featureSyllables, true
	case strings.Contains(n, "freq"):
		return featureFrequency, true
	}
	return "", false
}

// extractFeatures computes the named feature vector for a word.
func extractFeatures(word string, freq *FrequencyTable) map[string]float64 {
	return map[string]float64{
		featureLength:    float64(utf8.RuneCountInString(word)),
		featureSyllables: float64(CountSyllables(word)),
		featureFrequency: freq.Zipf(word),
	}
}

// CountSyllables estimates the number of syllables in an English word by
// counting vowel groups, discounting a silent trailing "e" and crediting a
// consonant+"le" ending. Every word has at least one syllable.
func CountSyllables(word string) int {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return 0
	}

	isVowel := func(r byte) bool {
		return strings.IndexByte("aeiouy", r) >= 0
	}

	count := 0
	prevVowel := false
	for i := 0; i < len(w); i++ {
		v := isVowel(w[i])
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	// Silent trailing e: "phrase" has one vowel group too many.
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && count > 1 {
		count--
	}
	// Consonant + "le" carries its own syllable ("table", "little"), but the
	// vowel-group scan already saw the "e", so nothing to add when the scan
	// counted it. Handle "le" after a vowel ("ale") silently dropping the e.
	if strings.HasSuffix(w, "le") && len(w) > 2 && isVowel(w[len(w)-3]) && count > 1 {
		count--
	}

	if count < 1 {
		count = 1
	}
	return count
}

// FrequencyTable maps words to zipf-scale corpus frequency scores
// (log10 of occurrences per billion words, roughly 0..8). Words absent from
// the table score 0, matching how unknown words behave in standard
// frequency corpora.
type FrequencyTable struct {
	scores map[string]float64
}

// NewFrequencyTable builds a table from an in-memory map, for tests.
func NewFrequencyTable(scores map[string]float64) *FrequencyTable {
	normalized := make(map[string]float64, len(scores))
	for w, s := range scores {
		normalized[strings.ToLower(strings.TrimSpace(w))] = s
	}
	return &FrequencyTable{scores: normalized}
}

// LoadFrequencyTable reads a tab-separated word/score file, one entry per
// line. Blank lines and lines starting with '#' are skipped.
func LoadFrequencyTable(path string) (*FrequencyTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: frequency table %q: %v", ErrModelLoad, path, err)
	}
	defer func() { _ = file.Close() }()

	scores := make(map[string]float64)
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: frequency table %q line %d: want word<TAB>score", ErrModelLoad, path, lineNo)
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: frequency table %q line %d: bad score %q", ErrModelLoad, path, lineNo, parts[1])
		}
		scores[strings.ToLower(strings.TrimSpace(parts[0]))] = score
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: frequency table %q: %v", ErrModelLoad, path, err)
	}
	return &FrequencyTable{scores: scores}, nil
}

// Zipf returns the frequency score for a word, 0 when unknown.
func (t *FrequencyTable) Zipf(word string) float64 {
	return t.scores[strings.ToLower(strings.TrimSpace(word))]
}

// Len returns the number of entries in the table.
func (t *FrequencyTable) Len() int { return len(t.scores) }

package difficulty

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the word→tier cache. Tiers are deterministic for
// a loaded model, so caching is purely a latency optimization.
const DefaultCacheSize = 1024

// Classifier predicts a difficulty tier per word. Safe for concurrent use:
// the model and frequency table are read-only and the cache is internally
// synchronized.
type Classifier struct {
	model *Model
	freq  *FrequencyTable
	cache *lru.Cache[string, Tier]
}

// NewClassifier builds a classifier over a loaded model and frequency
// table. cacheSize <= 0 selects DefaultCacheSize.
func NewClassifier(model *Model, freq *FrequencyTable, cacheSize int) (*Classifier, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrModelLoad)
	}
	if freq == nil {
		freq = NewFrequencyTable(nil)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, Tier](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("%w: cache: %v", ErrModelLoad, err)
	}
	return &Classifier{model: model, freq: freq, cache: cache}, nil
}

// Classify predicts the difficulty tier for a word. On failure it returns
// TierUnknown and an error wrapping ErrClassification; callers degrade to
// an empty tier instead of failing the request.
func (c *Classifier) Classify(word string) (Tier, error) {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return TierUnknown, fmt.Errorf("%w: empty word", ErrClassification)
	}

	if tier, ok := c.cache.Get(w); ok {
		return tier, nil
	}

	tier, err := c.model.predict(extractFeatures(w, c.freq))
	if err != nil {
		return TierUnknown, err
	}
	c.cache.Add(w, tier)
	return tier, nil
}

// Package difficulty classifies words into Easy/Medium/Hard tiers using a
// pre-trained decision-tree model over three features: word length,
// syllable count, and a zipf-scale corpus-frequency score.
package difficulty

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Tier is a word difficulty level.
type Tier string

// The three tiers the model can predict. TierUnknown is the explicit
// "could not classify" marker callers substitute on failure.
const (
	TierEasy    Tier = "Easy"
	TierMedium  Tier = "Medium"
	TierHard    Tier = "Hard"
	TierUnknown Tier = ""
)

// IsValidTier reports whether t is one of the three predictable tiers.
func IsValidTier(t Tier) bool {
	return t == TierEasy || t == TierMedium || t == TierHard
}

// ErrModelLoad indicates the model artifact or frequency table could not be
// loaded. Fatal at startup: the process must not serve traffic without it.
var ErrModelLoad = errors.New("difficulty: model load failed")

// ErrClassification indicates the model could not produce a prediction.
// Callers must treat it as non-fatal and substitute TierUnknown rather than
// aborting the whole request.
var ErrClassification = errors.New("difficulty: classification failed")

// treeNode is a single node of the serialized decision tree. Internal nodes
// carry a feature name, threshold and child indexes; leaves carry the
// predicted tier. The split rule is: feature value <= threshold goes left.
type treeNode struct {
	Feature   string  `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Leaf      Tier    `json:"leaf,omitempty"`
}

func (n treeNode) isLeaf() bool { return n.Leaf != "" }

// Model is a pre-trained decision tree loaded from a JSON artifact. The
// artifact carries its own feature-name list; names are resolved tolerantly
// so that "Word length", "word_length" and "No. of Characters Length" all
// mean the same feature.
type Model struct {
	FeatureNames []string   `json:"feature_names"`
	Nodes        []treeNode `json:"nodes"`
}

// LoadModel reads and validates a decision-tree artifact.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", ErrModelLoad, path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrModelLoad, path, err)
	}
	return &m, nil
}

// validate checks structural invariants: at least one node, known feature
// names, in-range child indexes, and valid leaf tiers.
func (m *Model) validate() error {
	if len(m.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for _, name := range m.FeatureNames {
		if _, ok := resolveFeatureKey(name); !ok {
			return fmt.Errorf("unknown feature name %q", name)
		}
	}
	for i, n := range m.Nodes {
		if n.isLeaf() {
			if !IsValidTier(n.Leaf) {
				return fmt.Errorf("node %d: invalid leaf tier %q", i, n.Leaf)
			}
			continue
		}
		if _, ok := resolveFeatureKey(n.Feature); !ok {
			return fmt.Errorf("node %d: unknown feature %q", i, n.Feature)
		}
		if n.Left <= 0 || n.Left >= len(m.Nodes) || n.Right <= 0 || n.Right >= len(m.Nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}

// predict walks the tree for the given feature vector, starting at node 0.
func (m *Model) predict(features map[string]float64) (Tier, error) {
	i := 0
	for steps := 0; steps <= len(m.Nodes); steps++ {
		n := m.Nodes[i]
		if n.isLeaf() {
			return n.Leaf, nil
		}
		key, ok := resolveFeatureKey(n.Feature)
		if !ok {
			return TierUnknown, fmt.Errorf("%w: unknown feature %q", ErrClassification, n.Feature)
		}
		if features[key] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	// A cycle in the node graph; validate catches most cases but a
	// malformed artifact could still loop.
	return TierUnknown, fmt.Errorf("%w: tree walk did not terminate", ErrClassification)
}

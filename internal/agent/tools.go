package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/scrypster/vocabuddy/internal/llm"
	"github.com/scrypster/vocabuddy/internal/recommend"
)

// safeFallbackTopics is the ordered chain tried when a requested topic is
// not in the word index, before falling back to the first vocabulary word.
var safeFallbackTopics = []string{"general", "daily", "people", "nature"}

// findSimilarArgs is the argument shape of the find_similar_vocabs tool.
type findSimilarArgs struct {
	TopicOfInterest string `json:"topic_of_interest"`
}

// classifyArgs is the argument shape of the classify_difficulty tool.
type classifyArgs struct {
	VocabList []string `json:"vocab_list"`
}

// tools returns the fixed dispatch table registered with the reasoning
// loop: a closed set of named operations with typed signatures, no runtime
// reflection.
func (o *Orchestrator) tools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "find_similar_vocabs",
			Description: "Finds a list of similar vocabulary words given a specific topic of interest.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"topic_of_interest": {
						"type": "string",
						"description": "The topic to find words for."
					}
				},
				"required": ["topic_of_interest"]
			}`),
			Call: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in findSimilarArgs
				if err := json.Unmarshal(args, &in); err != nil {
					return "", fmt.Errorf("find_similar_vocabs: bad arguments: %w", err)
				}
				log.Printf("agent: find_similar_vocabs(%q)", in.TopicOfInterest)
				words, _ := o.recommendWithFallback(o.topics.Normalize(in.TopicOfInterest), recommend.DefaultK)
				out, err := json.Marshal(words)
				if err != nil {
					return "", err
				}
				return string(out), nil
			},
		},
		{
			Name:        "classify_difficulty",
			Description: "Classifies difficulty (Easy, Medium, or Hard) for each word in vocab_list.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"vocab_list": {
						"type": "array",
						"items": {"type": "string"},
						"description": "The list of words to classify."
					}
				},
				"required": ["vocab_list"]
			}`),
			Call: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in classifyArgs
				if err := json.Unmarshal(args, &in); err != nil {
					return "", fmt.Errorf("classify_difficulty: bad arguments: %w", err)
				}
				log.Printf("agent: classify_difficulty(%d words)", len(in.VocabList))
				tiers := make(map[string]string, len(in.VocabList))
				for _, word := range in.VocabList {
					tier, err := o.classifier.Classify(word)
					if err != nil {
						// Classification failure degrades to a blank tier.
						log.Printf("agent: classify %q failed: %v", word, err)
						tier = ""
					}
					tiers[word] = string(tier)
				}
				out, err := json.Marshal(tiers)
				if err != nil {
					return "", err
				}
				return string(out), nil
			},
		},
	}
}

// recommendWithFallback looks up neighbors for the topic, walking the safe
// fallback chain and finally the first vocabulary word when the topic is
// absent from the word index. Returns the words and the topic that actually
// produced them; both empty when even the fallbacks fail.
func (o *Orchestrator) recommendWithFallback(topicToken string, k int) ([]string, string) {
	candidates := make([]string, 0, len(safeFallbackTopics)+2)
	if topicToken != "" {
		candidates = append(candidates, topicToken)
	}
	candidates = append(candidates, safeFallbackTopics...)
	if o.store.Len() > 0 {
		candidates = append(candidates, o.store.Word(0))
	}

	for _, candidate := range candidates {
		words, err := o.index.Nearest(candidate, k)
		if err == nil && len(words) > 0 {
			return words, candidate
		}
	}
	return nil, ""
}

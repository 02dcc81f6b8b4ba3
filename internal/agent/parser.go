package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/scrypster/vocabuddy/internal/difficulty"
	"github.com/scrypster/vocabuddy/internal/session"
)

// learnedBlockRe matches the structured block the output contract requires
// at the end of every tutoring reply. Tolerant of case, whitespace, and
// surrounding prose.
var learnedBlockRe = regexp.MustCompile(`(?is)<learned_json>\s*(.*?)\s*</learned_json>`)

// ParseLearnedRecords extracts learned-word records from a model reply.
// Parsing is tolerant: markdown code fences are stripped and the JSON array
// is located inside the block even when the model adds prose around it.
// A missing or malformed block yields nil — "no structured data", never an
// error; the caller synthesizes a fallback record instead.
func ParseLearnedRecords(text string) []session.LearnedWord {
	m := learnedBlockRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	raw := strings.ReplaceAll(m[1], "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")
	raw = strings.TrimSpace(raw)

	// Narrow to the array boundaries in case the model wrapped the JSON in
	// extra text despite instructions.
	if start := strings.Index(raw, "["); start >= 0 {
		if end := strings.LastIndex(raw, "]"); end > start {
			raw = raw[start : end+1]
		}
	}

	var records []session.LearnedWord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil
	}

	valid := records[:0]
	for _, rec := range records {
		rec.Word = strings.TrimSpace(rec.Word)
		if rec.Word == "" {
			continue
		}
		rec.Level = normalizeLevel(rec.Level)
		valid = append(valid, rec)
	}
	if len(valid) == 0 {
		return nil
	}
	return valid
}

// normalizeLevel folds a model-emitted level onto the canonical tier
// spelling. Anything unrecognized becomes blank rather than leaking
// free-form text into learned records.
func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "easy":
		return string(difficulty.TierEasy)
	case "medium":
		return string(difficulty.TierMedium)
	case "hard":
		return string(difficulty.TierHard)
	default:
		return ""
	}
}

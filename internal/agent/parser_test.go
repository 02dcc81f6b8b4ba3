package agent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/vocabuddy/internal/agent"
	"github.com/scrypster/vocabuddy/internal/session"
)

func TestParseLearnedRecords_PlainBlock(t *testing.T) {
	text := `Great choice! Let's learn "serendipity".

<learned_json> [{"word": "serendipity", "topic": "General", "level": "Hard", "hint": "A happy accident"}] </learned_json>`

	got := agent.ParseLearnedRecords(text)
	require.Len(t, got, 1)
	assert.Equal(t, session.LearnedWord{
		Word:  "serendipity",
		Topic: "General",
		Level: "Hard",
		Hint:  "A happy accident",
	}, got[0])
}

func TestParseLearnedRecords_StripsCodeFences(t *testing.T) {
	text := "<learned_json>\n```json\n[{\"word\": \"goal\", \"topic\": \"Sport\", \"level\": \"Easy\", \"hint\": \"Score one\"}]\n```\n</learned_json>"

	got := agent.ParseLearnedRecords(text)
	require.Len(t, got, 1)
	assert.Equal(t, "goal", got[0].Word)
}

func TestParseLearnedRecords_ProseAroundArray(t *testing.T) {
	text := `<learned_json> Here is the record: [{"word": "goal", "topic": "Sport", "level": "Easy", "hint": "h"}] hope that helps </learned_json>`

	got := agent.ParseLearnedRecords(text)
	require.Len(t, got, 1)
	assert.Equal(t, "goal", got[0].Word)
}

func TestParseLearnedRecords_CaseInsensitiveTags(t *testing.T) {
	text := `<LEARNED_JSON> [{"word": "goal", "topic": "Sport", "level": "Easy", "hint": "h"}] </LEARNED_JSON>`

	got := agent.ParseLearnedRecords(text)
	require.Len(t, got, 1)
}

func TestParseLearnedRecords_NormalizesLevels(t *testing.T) {
	text := `<learned_json> [
		{"word": "a", "topic": "General", "level": "easy", "hint": "h"},
		{"word": "b", "topic": "General", "level": "MEDIUM", "hint": "h"},
		{"word": "c", "topic": "General", "level": "tricky", "hint": "h"}
	] </learned_json>`

	got := agent.ParseLearnedRecords(text)
	require.Len(t, got, 3)
	assert.Equal(t, "Easy", got[0].Level)
	assert.Equal(t, "Medium", got[1].Level)
	assert.Equal(t, "", got[2].Level)
}

func TestParseLearnedRecords_DropsEmptyWords(t *testing.T) {
	text := `<learned_json> [
		{"word": "  ", "topic": "General", "level": "Easy", "hint": "h"},
		{"word": "goal", "topic": "Sport", "level": "Easy", "hint": "h"}
	] </learned_json>`

	got := agent.ParseLearnedRecords(text)
	require.Len(t, got, 1)
	assert.Equal(t, "goal", got[0].Word)
}

// TestParseLearnedRecords_MalformedYieldsNil pins the contract: a missing
// or broken block means "no structured data", never a panic or error.
func TestParseLearnedRecords_MalformedYieldsNil(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no block", "Just a chatty reply with no structure."},
		{"unterminated block", "<learned_json> [{\"word\": \"goal\"}]"},
		{"broken json", "<learned_json> [{word: goal}] </learned_json>"},
		{"empty array", "<learned_json> [] </learned_json>"},
		{"only empty words", `<learned_json> [{"word": ""}] </learned_json>`},
		{"empty input", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, agent.ParseLearnedRecords(tt.text))
		})
	}
}

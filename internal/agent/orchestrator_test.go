package agent_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/vocabuddy/internal/agent"
	"github.com/scrypster/vocabuddy/internal/difficulty"
	"github.com/scrypster/vocabuddy/internal/llm"
	"github.com/scrypster/vocabuddy/internal/recommend"
	"github.com/scrypster/vocabuddy/internal/session"
	"github.com/scrypster/vocabuddy/internal/topic"
	"github.com/scrypster/vocabuddy/internal/vocab"
)

// stubModel is a canned ToolCaller. It records what the orchestrator sent
// so tests can assert on prompt composition and history replay.
type stubModel struct {
	output     string
	err        error
	runs       int
	lastSystem string
	lastInput  string
	lastHist   []llm.Message
	lastTools  []llm.Tool
}

func (s *stubModel) RunTools(ctx context.Context, systemPrompt string, history []llm.Message, input string, tools []llm.Tool) (*llm.ToolRunResult, error) {
	s.runs++
	s.lastSystem = systemPrompt
	s.lastInput = input
	s.lastHist = history
	s.lastTools = tools
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ToolRunResult{Output: s.output}, nil
}

func (s *stubModel) GetModel() string { return "stub" }

const orchestratorModelJSON = `{
	"feature_names": ["Word length", "No. of Syllables", "Word Frequency"],
	"nodes": [
		{"feature": "Word Frequency", "threshold": 4.0, "left": 1, "right": 2},
		{"feature": "word_length", "threshold": 7, "left": 3, "right": 4},
		{"leaf": "Easy"},
		{"leaf": "Medium"},
		{"leaf": "Hard"}
	]
}`

// testFixture wires an orchestrator over a small vocabulary where the topic
// tokens themselves are vocabulary words, as in the real embedding data.
type testFixture struct {
	orch     *agent.Orchestrator
	model    *stubModel
	sessions *session.Store
}

func newFixture(t *testing.T, model *stubModel) *testFixture {
	t.Helper()

	words := []string{"general", "sport", "soccer", "tennis", "goal", "match", "river"}
	angles := []float64{0, 10, 12, 14, 16, 18, 60}
	vectors := make([][]float32, len(angles))
	for i, deg := range angles {
		rad := deg * math.Pi / 180
		vectors[i] = []float32{float32(math.Cos(rad)), float32(math.Sin(rad))}
	}
	store, err := vocab.NewStore(words, vectors)
	require.NoError(t, err)

	modelPath := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(modelPath, []byte(orchestratorModelJSON), 0o644))
	tree, err := difficulty.LoadModel(modelPath)
	require.NoError(t, err)
	classifier, err := difficulty.NewClassifier(tree, difficulty.NewFrequencyTable(map[string]float64{"goal": 6}), 64)
	require.NoError(t, err)

	sessions := session.NewStore()
	orch := agent.New(model, recommend.NewIndex(store), store, classifier, topic.NewNormalizer(), sessions, agent.Config{})
	return &testFixture{orch: orch, model: model, sessions: sessions}
}

func TestRespond_SuccessWithStructuredBlock(t *testing.T) {
	reply := `Let's learn "soccer"!

<learned_json> [{"word": "soccer", "topic": "Sport", "level": "Medium", "hint": "A team game"}] </learned_json>`
	fx := newFixture(t, &stubModel{output: reply})

	res, err := fx.orch.Respond(t.Context(), agent.Input{Message: "I like sports", Topic: "Sports", Level: "Intermediate"})
	require.NoError(t, err)

	assert.Equal(t, agent.StateDone, res.State)
	assert.False(t, res.Fallback)
	assert.Equal(t, "sport", res.CanonicalTopic)
	assert.NotEmpty(t, res.SessionID, "a session id is minted when none is supplied")
	require.Len(t, res.Learned, 1)
	assert.Equal(t, "soccer", res.Learned[0].Word)

	// Turn and record land in the session store.
	turns := fx.sessions.Turns(res.SessionID)
	require.Len(t, turns, 2)
	assert.Equal(t, session.RoleUser, turns[0].Role)
	assert.Equal(t, session.RoleAssistant, turns[1].Role)
	assert.Len(t, fx.sessions.Learned(res.SessionID), 1)
}

func TestRespond_EmptyMessage(t *testing.T) {
	fx := newFixture(t, &stubModel{output: "unused"})

	_, err := fx.orch.Respond(t.Context(), agent.Input{Message: "   "})
	assert.ErrorIs(t, err, agent.ErrEmptyMessage)
	assert.Equal(t, 0, fx.model.runs, "no model call for empty input")
}

// TestRespond_MissingBlockSynthesizesRecord covers the partial-failure
// path: the model answered but dropped the structured block, so the
// orchestrator synthesizes one from the index and classifier and appends
// the block to the reply.
func TestRespond_MissingBlockSynthesizesRecord(t *testing.T) {
	fx := newFixture(t, &stubModel{output: "Just a friendly chat reply with no block."})

	res, err := fx.orch.Respond(t.Context(), agent.Input{Message: "teach me", Topic: "sport"})
	require.NoError(t, err)

	assert.Equal(t, agent.StateDone, res.State)
	assert.False(t, res.Fallback)
	require.Len(t, res.Learned, 1)
	assert.Equal(t, "soccer", res.Learned[0].Word, "nearest neighbor of the topic token")
	assert.Equal(t, "Sport", res.Learned[0].Topic)
	assert.Equal(t, "Current learning word", res.Learned[0].Hint)
	assert.Contains(t, res.Reply, "<learned_json>")
}

// TestRespond_ModelFailureDegrades covers the full-failure path: the run
// itself errored, so the reply is built deterministically from the index
// and classifier, flagged as fallback, and still recorded in the session.
func TestRespond_ModelFailureDegrades(t *testing.T) {
	fx := newFixture(t, &stubModel{err: errors.New("upstream exploded")})

	res, err := fx.orch.Respond(t.Context(), agent.Input{Message: "teach me", Topic: "sport"})
	require.NoError(t, err, "model failure must not surface as a request error")

	assert.True(t, res.Fallback)
	assert.Equal(t, agent.StateErrored, res.State)
	assert.True(t, strings.HasPrefix(res.Reply, "Here are some Sport words:"), "got %q", res.Reply)
	require.NotEmpty(t, res.Learned)
	assert.Equal(t, "Suggested sport word", res.Learned[0].Hint)

	assert.Len(t, fx.sessions.Turns(res.SessionID), 2)
}

func TestRespond_DegradedUnknownTopicWalksFallbackChain(t *testing.T) {
	fx := newFixture(t, &stubModel{err: errors.New("down")})

	res, err := fx.orch.Respond(t.Context(), agent.Input{Message: "teach me", Topic: "zzz"})
	require.NoError(t, err)

	// "zzz" is not in the vocabulary; the chain lands on "general".
	assert.True(t, strings.HasPrefix(res.Reply, "Here are some General words:"), "got %q", res.Reply)
}

func TestRespond_ReplaysBoundedHistory(t *testing.T) {
	reply := `ok <learned_json> [{"word": "goal", "topic": "Sport", "level": "Easy", "hint": "h"}] </learned_json>`
	fx := newFixture(t, &stubModel{output: reply})

	first, err := fx.orch.Respond(t.Context(), agent.Input{Message: "first turn"})
	require.NoError(t, err)

	assert.Empty(t, fx.model.lastHist, "no history on the first turn")

	_, err = fx.orch.Respond(t.Context(), agent.Input{SessionID: first.SessionID, Message: "second turn"})
	require.NoError(t, err)

	require.Len(t, fx.model.lastHist, 2)
	assert.Equal(t, "user", fx.model.lastHist[0].Role)
	assert.Equal(t, "first turn", fx.model.lastHist[0].Content)
	assert.Equal(t, "assistant", fx.model.lastHist[1].Role)
}

func TestRespond_InputCarriesLevelAndTopic(t *testing.T) {
	reply := `ok <learned_json> [{"word": "goal", "topic": "Sport", "level": "Easy", "hint": "h"}] </learned_json>`
	fx := newFixture(t, &stubModel{output: reply})

	_, err := fx.orch.Respond(t.Context(), agent.Input{Message: "hello", Level: "Beginner", Topic: "Sports"})
	require.NoError(t, err)

	assert.Contains(t, fx.model.lastInput, "Level: Beginner")
	assert.Contains(t, fx.model.lastInput, "Use canonical topic token: sport")
	assert.Contains(t, fx.model.lastInput, "hello")
}

func TestRespond_RegistersBothTools(t *testing.T) {
	reply := `ok <learned_json> [{"word": "goal", "topic": "Sport", "level": "Easy", "hint": "h"}] </learned_json>`
	fx := newFixture(t, &stubModel{output: reply})

	_, err := fx.orch.Respond(t.Context(), agent.Input{Message: "hello"})
	require.NoError(t, err)

	names := make([]string, len(fx.model.lastTools))
	for i, tool := range fx.model.lastTools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{"find_similar_vocabs", "classify_difficulty"}, names)
}

func TestRespond_DailyModePrompt(t *testing.T) {
	reply := `ok <learned_json> [{"word": "goal", "topic": "Sport", "level": "Easy", "hint": "h"}] </learned_json>`
	fx := newFixture(t, &stubModel{output: reply})

	_, err := fx.orch.Respond(t.Context(), agent.Input{Message: "daily word please", Mode: agent.ModeDaily})
	require.NoError(t, err)

	assert.Contains(t, fx.model.lastSystem, "word | topic | level | hint")
}

func TestReset_ClearsSessionHistory(t *testing.T) {
	reply := `ok <learned_json> [{"word": "goal", "topic": "Sport", "level": "Easy", "hint": "h"}] </learned_json>`
	fx := newFixture(t, &stubModel{output: reply})

	res, err := fx.orch.Respond(t.Context(), agent.Input{Message: "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, fx.sessions.Turns(res.SessionID))

	fx.orch.Reset(res.SessionID)
	assert.Empty(t, fx.sessions.Turns(res.SessionID))
	assert.Empty(t, fx.sessions.Learned(res.SessionID))
}

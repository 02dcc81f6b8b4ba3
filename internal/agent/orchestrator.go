// Package agent drives the conversational tutoring loop: it composes the
// persona and output contract, delegates reasoning and tool selection to an
// external language model, validates the structured reply, and updates the
// session store. When the model or its reply fails, the orchestrator
// degrades to a deterministic answer built directly from the recommendation
// index and difficulty classifier — the system always returns something
// usable.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/scrypster/vocabuddy/internal/difficulty"
	"github.com/scrypster/vocabuddy/internal/llm"
	"github.com/scrypster/vocabuddy/internal/recommend"
	"github.com/scrypster/vocabuddy/internal/session"
	"github.com/scrypster/vocabuddy/internal/topic"
	"github.com/scrypster/vocabuddy/internal/vocab"
)

// State names the phases a single turn moves through. A turn ends in
// StateDone when the model produced (or fallback synthesis completed) a
// structured reply, and in StateErrored when the degraded model-free path
// produced the reply.
type State string

// Turn states.
const (
	StateAwaitingInput     State = "awaiting_input"
	StateToolPlanning      State = "tool_planning"
	StateToolExecuting     State = "tool_executing"
	StateResponseComposing State = "response_composing"
	StateDone              State = "done"
	StateErrored           State = "errored"
)

// ErrEmptyMessage is returned when a turn carries no message text. This is
// the one orchestrator error surfaced to the caller; everything else
// degrades internally.
var ErrEmptyMessage = errors.New("agent: message text is required")

// Input is one turn of user input.
type Input struct {
	SessionID string
	Message   string
	Level     string
	Topic     string
	Mode      string // ModeChat (default) or ModeDaily
}

// Result is the outcome of one turn. Either the model's validated reply or
// a degraded one — the Fallback flag and terminal State make the branch
// visible to callers instead of hiding it in error handling.
type Result struct {
	Reply          string
	SessionID      string
	CanonicalTopic string
	Learned        []session.LearnedWord
	Fallback       bool
	State          State
	ToolCalls      []llm.ToolCallRecord
}

// Config tunes the orchestrator.
type Config struct {
	// Timeout bounds one model run including tool calls. A timeout is
	// treated as full model failure and triggers the degraded path.
	// Default: 60s.
	Timeout time.Duration

	// HistoryLimit caps how many prior turns are replayed to the model.
	// Default: 20.
	HistoryLimit int
}

// Orchestrator coordinates one tutoring turn at a time. Stateless between
// turns; all conversation state lives in the session store.
type Orchestrator struct {
	model        llm.ToolCaller
	index        *recommend.Index
	store        *vocab.Store
	classifier   *difficulty.Classifier
	topics       *topic.Normalizer
	sessions     *session.Store
	timeout      time.Duration
	historyLimit int
}

// New creates an orchestrator over the given collaborators.
func New(model llm.ToolCaller, index *recommend.Index, store *vocab.Store, classifier *difficulty.Classifier, topics *topic.Normalizer, sessions *session.Store, cfg Config) *Orchestrator {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = 20
	}
	return &Orchestrator{
		model:        model,
		index:        index,
		store:        store,
		classifier:   classifier,
		topics:       topics,
		sessions:     sessions,
		timeout:      cfg.Timeout,
		historyLimit: cfg.HistoryLimit,
	}
}

// Respond runs one turn. It returns an error only for empty input; model
// and tool failures degrade to a deterministic reply instead.
func (o *Orchestrator) Respond(ctx context.Context, in Input) (*Result, error) {
	state := StateAwaitingInput

	text := strings.TrimSpace(in.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	sid := strings.TrimSpace(in.SessionID)
	if sid == "" {
		sid = o.sessions.NewID()
	}
	mode := strings.ToLower(strings.TrimSpace(in.Mode))
	if mode == "" {
		mode = ModeChat
	}
	canonical := o.topics.Normalize(in.Topic)

	agentInput := buildAgentInput(strings.TrimSpace(in.Level), canonical, text)
	history := o.historyMessages(sid)

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	state = StateToolPlanning
	run, err := o.model.RunTools(ctx, systemPrompt(mode, o.topics.Topics()), history, agentInput, o.tools())
	if err != nil {
		// Full-failure path: the reasoning loop itself failed (or timed
		// out). Degrade to a deterministic reply rather than surfacing an
		// error to the student.
		log.Printf("agent: model run failed in state %s, degrading: %v", state, err)
		reply, learned := o.degradedReply(canonical)
		o.record(sid, text, reply, learned)
		return &Result{
			Reply:          reply,
			SessionID:      sid,
			CanonicalTopic: canonical,
			Learned:        learned,
			Fallback:       true,
			State:          StateErrored,
		}, nil
	}
	state = StateResponseComposing

	output := run.Output
	learned := ParseLearnedRecords(output)
	if len(learned) == 0 && (mode == ModeChat || mode == ModeDaily) {
		// The contract block is missing or malformed; synthesize one so the
		// client always receives a learned record.
		if rec, ok := o.synthesizeLearned(canonical); ok {
			learned = []session.LearnedWord{rec}
			if blockJSON, merr := json.Marshal(learned); merr == nil {
				output = fmt.Sprintf("%s\n\n<learned_json> %s </learned_json>", output, blockJSON)
			}
		}
	}

	o.record(sid, text, output, learned)
	state = StateDone

	return &Result{
		Reply:          output,
		SessionID:      sid,
		CanonicalTopic: canonical,
		Learned:        learned,
		State:          state,
		ToolCalls:      run.ToolCalls,
	}, nil
}

// Reset clears the turn history for one session only.
func (o *Orchestrator) Reset(sessionID string) {
	o.sessions.Reset(sessionID)
}

// historyMessages replays the session's recent turns as model messages,
// bounded by the history limit.
func (o *Orchestrator) historyMessages(sessionID string) []llm.Message {
	turns := o.sessions.Turns(sessionID)
	if len(turns) > o.historyLimit {
		turns = turns[len(turns)-o.historyLimit:]
	}
	messages := make([]llm.Message, len(turns))
	for i, t := range turns {
		messages[i] = llm.Message{Role: string(t.Role), Content: t.Text}
	}
	return messages
}

// synthesizeLearned builds a fallback learned-word record from the
// recommendation index and classifier directly.
func (o *Orchestrator) synthesizeLearned(canonicalTopic string) (session.LearnedWord, bool) {
	topicUsed := canonicalTopic
	if topicUsed == "" {
		topicUsed = "general"
	}
	words, topicUsed := o.recommendWithFallback(topicUsed, 1)
	if len(words) == 0 {
		return session.LearnedWord{}, false
	}

	tier, err := o.classifier.Classify(words[0])
	if err != nil {
		tier = difficulty.TierUnknown
	}
	return session.LearnedWord{
		Word:  words[0],
		Topic: capitalize(topicUsed),
		Level: string(tier),
		Hint:  "Current learning word",
	}, true
}

// degradedReply builds the deterministic model-free answer: a formatted
// list of topic words with difficulty annotations, plus matching learned
// records.
func (o *Orchestrator) degradedReply(canonicalTopic string) (string, []session.LearnedWord) {
	topicUsed := canonicalTopic
	if topicUsed == "" {
		topicUsed = "general"
	}
	words, topicUsed := o.recommendWithFallback(topicUsed, 5)
	if len(words) == 0 {
		return "Sorry, I couldn't fetch recommendations right now. Please try again.", nil
	}

	lines := []string{fmt.Sprintf("Here are some %s words:", capitalize(topicUsed))}
	learned := make([]session.LearnedWord, 0, len(words))
	for _, word := range words {
		tier, err := o.classifier.Classify(word)
		if err != nil {
			tier = difficulty.TierUnknown
		}
		if tier != difficulty.TierUnknown {
			lines = append(lines, fmt.Sprintf("- %s (%s)", word, tier))
		} else {
			lines = append(lines, "- "+word)
		}
		learned = append(learned, session.LearnedWord{
			Word:  word,
			Topic: capitalize(topicUsed),
			Level: string(tier),
			Hint:  fmt.Sprintf("Suggested %s word", topicUsed),
		})
	}
	return strings.Join(lines, "\n"), learned
}

// record appends the turn and any learned records to the session.
func (o *Orchestrator) record(sessionID, userText, reply string, learned []session.LearnedWord) {
	o.sessions.AppendTurn(sessionID, session.RoleUser, userText)
	o.sessions.AppendTurn(sessionID, session.RoleAssistant, reply)
	o.sessions.AppendLearned(sessionID, learned...)
}

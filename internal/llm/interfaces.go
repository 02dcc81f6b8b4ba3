// Package llm adapts an external OpenAI-compatible language model behind a
// tool-calling interface. The model is a black box reachable over HTTP with
// failure mode = error; everything above this package treats it that way.
package llm

import (
	"context"
	"encoding/json"
)

// Message is one entry of a conversation transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool is a callable operation registered with the reasoning loop: a typed
// signature (JSON schema), a natural-language description for the model,
// and the Go handler invoked when the model calls it.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Call        func(ctx context.Context, args json.RawMessage) (string, error)
}

// ToolCallRecord traces a single tool invocation made during a run.
type ToolCallRecord struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
}

// ToolRunResult is the outcome of a completed reasoning loop.
type ToolRunResult struct {
	// Output is the model's final free-text reply.
	Output string

	// ToolCalls is the ordered trace of tool invocations.
	ToolCalls []ToolCallRecord
}

// ToolCaller runs a multi-step "reason, call tools, reason again" loop:
// given a system prompt, prior conversation history, and the new user
// input, it lets the model call any of the registered tools until it
// produces a final text reply.
type ToolCaller interface {
	RunTools(ctx context.Context, systemPrompt string, history []Message, input string, tools []Tool) (*ToolRunResult, error)
	GetModel() string
}

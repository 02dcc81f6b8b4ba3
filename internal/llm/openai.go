package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIConfig holds configuration for the OpenAI-compatible client.
// BaseURL may point at any endpoint speaking the chat completions API
// (OpenAI, OpenRouter, a local gateway).
type OpenAIConfig struct {
	APIKey        string
	Model         string        // default: gpt-4o-mini
	BaseURL       string        // default: https://api.openai.com
	Timeout       time.Duration // per-request timeout, default: 30s
	MaxToolRounds int           // cap on reason→tool→reason cycles, default: 4
}

// OpenAIClient implements ToolCaller over the chat completions API with
// function calling.
type OpenAIClient struct {
	cfg            OpenAIConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
}

// NewOpenAIClient creates a new client with the given configuration.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxToolRounds == 0 {
		cfg.MaxToolRounds = 4
	}
	return &OpenAIClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: NewCircuitBreaker(),
	}
}

// chatMessage is the wire shape of a conversation message, including the
// function-calling fields.
type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// chatTool is the wire shape of a registered tool.
type chatTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// RunTools drives the reasoning loop: it sends the transcript with the
// registered tools, executes any tool calls the model makes, feeds the
// results back, and repeats until the model answers in plain text or the
// round cap is reached. Unknown tool names and tool handler errors are
// reported back to the model as the tool result rather than aborting the
// run, so the model can recover.
func (c *OpenAIClient) RunTools(ctx context.Context, systemPrompt string, history []Message, input string, tools []Tool) (*ToolRunResult, error) {
	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: input})

	wireTools := make([]chatTool, len(tools))
	byName := make(map[string]Tool, len(tools))
	for i, t := range tools {
		wireTools[i].Type = "function"
		wireTools[i].Function.Name = t.Name
		wireTools[i].Function.Description = t.Description
		wireTools[i].Function.Parameters = t.Parameters
		byName[t.Name] = t
	}

	result := &ToolRunResult{}
	for round := 0; round <= c.cfg.MaxToolRounds; round++ {
		reply, err := c.complete(ctx, messages, wireTools)
		if err != nil {
			return nil, err
		}

		if len(reply.ToolCalls) == 0 {
			result.Output = reply.Content
			return result, nil
		}

		messages = append(messages, *reply)
		for _, call := range reply.ToolCalls {
			output := c.executeTool(ctx, byName, call)
			result.ToolCalls = append(result.ToolCalls, ToolCallRecord{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
				Result:    output,
			})
			messages = append(messages, chatMessage{
				Role:       "tool",
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}

	return nil, fmt.Errorf("model did not produce a final answer within %d tool rounds", c.cfg.MaxToolRounds)
}

// executeTool dispatches a single tool call. Failures become the tool
// output so the model can see what went wrong.
func (c *OpenAIClient) executeTool(ctx context.Context, byName map[string]Tool, call chatToolCall) string {
	tool, ok := byName[call.Function.Name]
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", call.Function.Name)
	}
	output, err := tool.Call(ctx, json.RawMessage(call.Function.Arguments))
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return output
}

// complete sends one chat completion request through the circuit breaker.
func (c *OpenAIClient) complete(ctx context.Context, messages []chatMessage, tools []chatTool) (*chatMessage, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.doComplete(ctx, messages, tools)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, fmt.Errorf("openai circuit breaker open: %w", err)
		}
		return nil, err
	}
	return result.(*chatMessage), nil
}

func (c *OpenAIClient) doComplete(ctx context.Context, messages []chatMessage, tools []chatTool) (*chatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Tools:       tools,
		Temperature: 0,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(body))
	}

	var respData chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(respData.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return &respData.Choices[0].Message, nil
}

// GetModel returns the configured model name.
func (c *OpenAIClient) GetModel() string {
	return c.cfg.Model
}

// Compile-time assertion.
var _ ToolCaller = (*OpenAIClient)(nil)

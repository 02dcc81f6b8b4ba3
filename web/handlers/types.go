package handlers

import "github.com/scrypster/vocabuddy/internal/session"

// ChatRequest is the flexible /chat body. It accepts both the original
// schema ("user_message") and the Mini Program shape ("session_id",
// "message", "level", "topic", "mode").
type ChatRequest struct {
	SessionID   string `json:"session_id,omitempty"`
	Message     string `json:"message,omitempty"`
	UserMessage string `json:"user_message,omitempty"`
	Level       string `json:"level,omitempty"`
	Topic       string `json:"topic,omitempty"`
	Mode        string `json:"mode,omitempty"` // "chat" or "daily"
}

// ChatResponse is the /chat reply.
type ChatResponse struct {
	Reply          string                `json:"reply"`
	SessionID      string                `json:"session_id"`
	CanonicalTopic string                `json:"canonical_topic"`
	Learned        []session.LearnedWord `json:"learned"`
	Fallback       bool                  `json:"fallback,omitempty"`
}

// ResetRequest is the /reset body.
type ResetRequest struct {
	SessionID string `json:"session_id"`
}

// ResetResponse is the /reset reply.
type ResetResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// HistoryResponse is the /history reply: the conversation turns and the
// learned-word records for one session.
type HistoryResponse struct {
	SessionID string                `json:"session_id"`
	History   []session.Turn        `json:"history"`
	Learned   []session.LearnedWord `json:"learned"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Package handlers provides HTTP handlers and middleware for the VocaBuddy
// backend API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/scrypster/vocabuddy/internal/agent"
	"github.com/scrypster/vocabuddy/internal/recommend"
	"github.com/scrypster/vocabuddy/internal/session"
	"github.com/scrypster/vocabuddy/internal/topic"
	"github.com/scrypster/vocabuddy/internal/vocab"
)

// APIHandlers contains the HTTP handlers for the REST API.
type APIHandlers struct {
	orchestrator *agent.Orchestrator
	index        *recommend.Index
	topics       *topic.Normalizer
	sessions     *session.Store
	hub          *WebSocketHub
}

// NewAPIHandlers creates a new APIHandlers instance. hub may be nil when
// live learned-word broadcasts are not wanted (tests).
func NewAPIHandlers(orchestrator *agent.Orchestrator, index *recommend.Index, topics *topic.Normalizer, sessions *session.Store, hub *WebSocketHub) *APIHandlers {
	return &APIHandlers{
		orchestrator: orchestrator,
		index:        index,
		topics:       topics,
		sessions:     sessions,
		hub:          hub,
	}
}

// Root handles GET / — confirms the API is running.
func (h *APIHandlers) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "AI Vocabulary Recommendation API is running.",
	})
}

// Health handles GET /api/health.
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Recommend handles GET /recommend/{topic}?num_recommendations=N.
// The topic is canonicalized first; an unknown topic surfaces as 404.
func (h *APIHandlers) Recommend(w http.ResponseWriter, r *http.Request) {
	rawTopic := r.PathValue("topic")
	if rawTopic == "" {
		respondError(w, http.StatusBadRequest, "topic is required", nil)
		return
	}
	num := parseInt(r.URL.Query().Get("num_recommendations"), 5)

	canonical := h.topics.Normalize(rawTopic)
	words, err := h.index.Nearest(canonical, num)
	if err != nil {
		if errors.Is(err, vocab.ErrNotFound) {
			respondError(w, http.StatusNotFound,
				fmt.Sprintf("Topic %q not found or no recommendations available.", rawTopic), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "recommendation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, words)
}

// Chat handles POST /chat — one tutoring turn. The orchestrator never
// surfaces model failures; the only client errors here are malformed
// bodies and missing message text.
func (h *APIHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	text := strings.TrimSpace(req.UserMessage)
	if text == "" {
		text = strings.TrimSpace(req.Message)
	}

	result, err := h.orchestrator.Respond(r.Context(), agent.Input{
		SessionID: req.SessionID,
		Message:   text,
		Level:     req.Level,
		Topic:     req.Topic,
		Mode:      req.Mode,
	})
	if err != nil {
		if errors.Is(err, agent.ErrEmptyMessage) {
			respondError(w, http.StatusUnprocessableEntity, "'user_message' or 'message' is required", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "chat failed", err)
		return
	}

	if h.hub != nil {
		for _, rec := range result.Learned {
			h.hub.Broadcast(LearnedEvent{
				Type:      "learned_word",
				SessionID: result.SessionID,
				Record:    rec,
			})
		}
	}

	respondJSON(w, http.StatusOK, ChatResponse{
		Reply:          result.Reply,
		SessionID:      result.SessionID,
		CanonicalTopic: result.CanonicalTopic,
		Learned:        result.Learned,
		Fallback:       result.Fallback,
	})
}

// Reset handles POST /reset — clears one session's history.
func (h *APIHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	sid := strings.TrimSpace(req.SessionID)
	if sid == "" {
		sid = "default"
	}

	h.orchestrator.Reset(sid)
	respondJSON(w, http.StatusOK, ResetResponse{Status: "reset", SessionID: sid})
}

// History handles GET /history?session_id= — returns the conversation turns
// and learned records for a session. Unknown sessions yield empty lists.
func (h *APIHandlers) History(w http.ResponseWriter, r *http.Request) {
	sid := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sid == "" {
		sid = "default"
	}

	respondJSON(w, http.StatusOK, HistoryResponse{
		SessionID: sid,
		History:   h.sessions.Turns(sid),
		Learned:   h.sessions.Learned(sid),
	})
}

// parseInt parses an integer from a string, returning defaultValue if
// parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; nothing to do but note it.
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}
	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}
	respondJSON(w, statusCode, errResp)
}

// Package server provides HTTP server initialization and lifecycle
// management for the VocaBuddy backend.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/vocabuddy/internal/agent"
	"github.com/scrypster/vocabuddy/internal/config"
	"github.com/scrypster/vocabuddy/internal/recommend"
	"github.com/scrypster/vocabuddy/internal/session"
	"github.com/scrypster/vocabuddy/internal/topic"
	"github.com/scrypster/vocabuddy/web/handlers"
)

// Deps are the initialized collaborators the HTTP surface dispatches to.
type Deps struct {
	Orchestrator *agent.Orchestrator
	Index        *recommend.Index
	Topics       *topic.Normalizer
	Sessions     *session.Store
}

// Start initializes and starts the HTTP server. It returns the actual
// address being listened on (useful for testing with port 0) and the
// WebSocketHub carrying learned-word broadcasts. The server shuts down
// gracefully when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, deps Deps) (string, *handlers.WebSocketHub, error) {
	wsHub := handlers.NewWebSocketHub()
	api := handlers.NewAPIHandlers(deps.Orchestrator, deps.Index, deps.Topics, deps.Sessions, wsHub)

	// Rate limiter (10 req/sec, burst of 20).
	rateLimiter := handlers.NewRateLimiter(10.0, 20)

	// API routes (require auth in production mode).
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/recommend/{topic}", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			api.Recommend(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			api.Chat(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			api.Reset(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			api.History(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux := http.NewServeMux()
	mux.Handle("/recommend/", handlers.RequireAuth(apiMux, cfg))
	mux.Handle("/chat", handlers.RequireAuth(apiMux, cfg))
	mux.Handle("/reset", handlers.RequireAuth(apiMux, cfg))
	mux.Handle("/history", handlers.RequireAuth(apiMux, cfg))

	// Health endpoints — no auth, used by monitoring.
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			api.Health(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		api.Root(w, r)
	})

	// WebSocket endpoint (no auth required).
	mux.Handle("/ws", wsHub)

	// Wrap with rate limiting, CORS, then security headers.
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = handlers.CORSMiddleware(handler)
	handler = handlers.SecurityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // chat turns can run long
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub, nil
}

// Package api serves the read-side HTTP surface: the recent-messages query
// and the liveness routes. No chat logic lives here; handlers are thin
// pass-throughs to the message store.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"realchat/internal/registry"
	"realchat/pkg/interfaces"
	"realchat/pkg/types"
)

// Server handles the HTTP API routes.
type Server struct {
	store          interfaces.MessageStore
	registry       *registry.Registry
	historyLimit   int
	allowedOrigins map[string]bool
	allowAll       bool
	router         *http.ServeMux
}

// NewServer creates the API server. allowedOrigins configures CORS; a "*"
// entry allows any origin.
func NewServer(store interfaces.MessageStore, reg *registry.Registry, historyLimit int, allowedOrigins []string) *Server {
	s := &Server{
		store:          store,
		registry:       reg,
		historyLimit:   historyLimit,
		allowedOrigins: make(map[string]bool),
		router:         http.NewServeMux(),
	}

	for _, origin := range allowedOrigins {
		if origin == "*" {
			s.allowAll = true
		}
		s.allowedOrigins[origin] = true
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Handle("/api/messages", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleMessages))))
	s.router.Handle("/health", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleHealth))))
	s.router.Handle("/", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleRoot))))
}

// ServeHTTP implements http.Handler for integration with the standard HTTP
// server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleMessages returns the most recent persisted messages, oldest first.
// Direct pass-through to the store's ordered retrieval.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	// Preflight OPTIONS requests are answered by corsMiddleware.
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	messages, err := s.store.Recent(r.Context(), s.historyLimit)
	if err != nil {
		log.Printf("api: failed to fetch messages: %v", err)
		s.sendError(w, "Failed to fetch messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []types.ChatMessage{}
	}

	s.sendJSON(w, messages, http.StatusOK)
}

// handleHealth reports liveness and the current connection count.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, map[string]interface{}{
		"status":      "ok",
		"connections": s.registry.Count(),
	}, http.StatusOK)
}

// handleRoot serves the static acknowledgment on the bare root path only.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.sendError(w, "Not found", http.StatusNotFound)
		return
	}

	s.sendJSON(w, map[string]string{
		"message": "Chat server is running!",
	}, http.StatusOK)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case s.allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && s.allowedOrigins[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) sendJSON(w http.ResponseWriter, v interface{}, status int) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: failed to encode response: %v", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, message string, status int) {
	s.sendJSON(w, map[string]string{"error": message}, status)
}

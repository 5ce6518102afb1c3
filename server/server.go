// Package server exposes the agent over HTTP for web clients.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	dexagent "github.com/pokedex-pro/dexagent"
	"github.com/pokedex-pro/dexagent/store"
)

// Server holds the shared agent and one conversation per session id.
type Server struct {
	agent         *dexagent.Agent
	store         *store.Store
	maxIterations int
	logger        *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// session pairs a conversation with its own lock. A Conversation is not
// safe for concurrent use, so every access to conv happens under mu; the
// server mutex above guards only the map itself.
type session struct {
	mu   sync.Mutex
	conv *dexagent.Conversation
}

// New wires a Server around an already constructed agent.
func New(agent *dexagent.Agent, st *store.Store, maxIterations int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if maxIterations <= 0 {
		maxIterations = dexagent.DefaultMaxIterations
	}
	return &Server{
		agent:         agent,
		store:         st,
		maxIterations: maxIterations,
		logger:        logger,
		sessions:      make(map[string]*session),
	}
}

// Handler builds the chi router with CORS enabled for browser clients.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)
		r.Post("/sessions/{id}/messages", s.handlePostMessage)
		r.Post("/sessions/{id}/clear", s.handleClearSession)
		r.Get("/schema", s.handleSchema)
		r.Get("/health", s.handleHealth)
	})
	return r
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("listening", "addr", addr)
	return srv.ListenAndServe()
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Messages  int    `json:"messages"`
}

type messageRequest struct {
	Content string `json:"content"`
}

type messageResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) lookup(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = &session{conv: dexagent.NewSession()}
	s.mu.Unlock()

	s.logger.Info("session created", "session_id", id)
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id, Messages: 1})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, ok := s.lookup(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown session"})
		return
	}

	sess.mu.Lock()
	count := sess.conv.Len()
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, Messages: count})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown session"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, ok := s.lookup(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown session"})
		return
	}

	sess.mu.Lock()
	sess.conv.Reset()
	count := sess.conv.Len()
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, Messages: count})
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, ok := s.lookup(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown session"})
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "content is required"})
		return
	}

	// Requests to the same session are serialized; a conversation has one
	// loop appending to it at a time.
	sess.mu.Lock()
	sess.conv.AddUserMessage(req.Content)
	reply := s.agent.Chat(r.Context(), sess.conv, s.maxIterations)
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, messageResponse{SessionID: id, Reply: reply})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	tables, err := s.store.ListTables(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	schema := make(map[string][]map[string]any, len(tables))
	for _, table := range tables {
		cols, err := s.store.TableInfo(r.Context(), table)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		schema[table] = cols
	}
	writeJSON(w, http.StatusOK, schema)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !s.store.Exists() {
		status = "database missing"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

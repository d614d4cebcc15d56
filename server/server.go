// Package server exposes the assistant over HTTP: JSON chat, SSE streaming
// of interpreted turn events, and a health probe.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/elroy-bot/elroy-sub001/assistant"
	"github.com/elroy-bot/elroy-sub001/llm/interpret"
)

// Server wraps an assistant with HTTP endpoints.
type Server struct {
	assistant *assistant.Assistant
	config    Config
	http      *http.Server
}

// Config for the HTTP server.
type Config struct {
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	RequestTimeout      time.Duration
	MaxRequestBodyBytes int64
	// DefaultUser is the user requests without a user_id act as.
	DefaultUser string
}

// New constructs the server.
func New(a *assistant.Assistant, cfg Config) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.MaxRequestBodyBytes == 0 {
		cfg.MaxRequestBodyBytes = 1 << 20
	}
	if cfg.DefaultUser == "" {
		cfg.DefaultUser = "default"
	}

	s := &Server{assistant: a, config: cfg}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.health)
	// The JSON endpoint gets a request deadline; the SSE endpoint cannot,
	// TimeoutHandler's writer does not flush.
	mux.Handle("/chat", http.TimeoutHandler(http.HandlerFunc(s.chat), cfg.RequestTimeout, "request timeout"))
	mux.HandleFunc("/chat/stream", s.stream)

	s.http = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     mux,
		ReadTimeout: cfg.ReadTimeout,
		// WriteTimeout stays unset so SSE responses can outlive it.
	}
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start the HTTP server.
func (s *Server) Start() error { return s.http.ListenAndServe() }

// Stop the HTTP server.
func (s *Server) Stop(ctx context.Context) error { return s.http.Shutdown(ctx) }

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type ChatResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "time": time.Now().Format(time.RFC3339)})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*ChatRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var req ChatRequest
	if err := dec.Decode(&req); err != nil {
		s.writeErr(w, http.StatusBadRequest, "invalid json")
		return nil, false
	}
	if req.Message == "" {
		s.writeErr(w, http.StatusBadRequest, "message is required")
		return nil, false
	}
	if req.UserID == "" {
		req.UserID = s.config.DefaultUser
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	return &req, true
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	reply, err := s.assistant.Respond(r.Context(), req.UserID, req.SessionID, req.Message, nil)
	if err != nil {
		s.writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ChatResponse{Message: reply, SessionID: req.SessionID})
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeErr(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func(ev interpret.Event) {
		writeSSEEvent(w, ev)
		flusher.Flush()
	}
	reply, err := s.assistant.Respond(r.Context(), req.UserID, req.SessionID, req.Message, emit)
	if err != nil {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
		flusher.Flush()
		return
	}
	data, _ := json.Marshal(ChatResponse{Message: reply, SessionID: req.SessionID})
	fmt.Fprintf(w, "event: done\ndata: %s\n\n", data)
	flusher.Flush()
}

func (s *Server) writeErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(ChatResponse{Error: msg})
}

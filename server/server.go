// Package server implements the Minuteman HTTP server: REST API, JWT auth,
// and SSE notification events.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"minuteman/analytics"
	"minuteman/config"
	"minuteman/extract"
	"minuteman/lifecycle"
	"minuteman/server/api"
	"minuteman/store"
)

// Server is the Minuteman HTTP server.
type Server struct {
	cfg     config.Config
	mux     *http.ServeMux
	httpSrv *http.Server
	logger  *slog.Logger

	store     *store.Store
	engine    *lifecycle.Engine
	reader    *analytics.Reader
	extractor extract.Extractor
	handlers  *api.Handlers

	// SSE clients
	sseMu      sync.RWMutex
	sseClients map[chan []byte]struct{}

	// JWT secret caching
	secretOnce      sync.Once
	generatedSecret string

	startTime time.Time
	version   string
}

// New creates a new Server with the given config and logger.
func New(cfg config.Config, ver string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:        cfg,
		mux:        http.NewServeMux(),
		logger:     logger,
		sseClients: make(map[chan []byte]struct{}),
		startTime:  time.Now(),
		version:    ver,
	}
}

// SetStore attaches the entity store.
func (s *Server) SetStore(st *store.Store) { s.store = st }

// SetEngine attaches the lifecycle engine. The engine's notification
// announcer is wired to the SSE broadcast.
func (s *Server) SetEngine(e *lifecycle.Engine) {
	s.engine = e
	e.SetAnnouncer(func(n *store.Notification) {
		s.BroadcastEvent("notification", n)
	})
}

// SetAnalytics attaches the analytics reader.
func (s *Server) SetAnalytics(r *analytics.Reader) { s.reader = r }

// SetExtractor attaches the transcript extractor.
func (s *Server) SetExtractor(ex extract.Extractor) { s.extractor = ex }

// Start registers routes and begins listening.
func (s *Server) Start() error {
	s.registerRoutes()

	addr := s.cfg.Server.Addr
	if addr == "" {
		addr = ":8000"
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 15 * time.Second,
	}
	s.logger.Info("server listening", slog.String("addr", addr))
	return s.httpSrv.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	h := &api.Handlers{
		Store:     s.store,
		Engine:    s.engine,
		Analytics: s.reader,
		Extractor: s.extractor,
		Logger:    s.logger,
		Version:   s.version,
	}
	s.handlers = h

	// Public routes (no auth required)
	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("GET /api/status", h.StatusHandler())

	// SSE auth is handled inline because EventSource can't set headers
	s.mux.HandleFunc("GET /events", s.handleSSE)

	// Protected API, wrapped in auth middleware
	apiMux := http.NewServeMux()
	h.RegisterRoutes(apiMux)
	apiMux.HandleFunc("GET /api/auth/me", s.handleMe)

	s.mux.Handle("/api/", s.authMiddleware(apiMux))
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleSSE implements Server-Sent Events for live notification pushes.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	// Verify auth via query token param (EventSource can't set headers)
	token := r.URL.Query().Get("token")
	if _, err := s.verifyToken(r.Context(), token); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch := make(chan []byte, 64)
	s.sseMu.Lock()
	s.sseClients[ch] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, ch)
		s.sseMu.Unlock()
		close(ch)
	}()

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n") //nolint:errcheck
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			lines := strings.Split(string(data), "\n")
			for _, line := range lines {
				fmt.Fprintf(w, "data: %s\n", line) //nolint:errcheck
			}
			fmt.Fprintln(w) //nolint:errcheck
			flusher.Flush()
		}
	}
}

// BroadcastEvent sends a JSON-encoded event to all connected SSE clients.
func (s *Server) BroadcastEvent(eventType string, payload any) {
	data, err := json.Marshal(map[string]any{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		s.logger.Error("broadcast event marshal", slog.Any("err", err))
		return
	}

	s.sseMu.RLock()
	defer s.sseMu.RUnlock()
	for ch := range s.sseClients {
		select {
		case ch <- data:
		default:
			// Client channel full, skip
		}
	}
}
